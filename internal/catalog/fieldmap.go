package catalog

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldMap maps source spreadsheet headers to canonical fields.
//
// Lookup is exact after trimming and lower-casing. Several headers may
// target one field; the order of a field's aliases is its priority when an
// upload carries more than one of them.
type FieldMap struct {
	version string
	headers map[string]alias
	aliases map[Field][]string
}

type alias struct {
	field    Field
	priority int // 0 is highest
}

// NormalizeHeader is the canonical lookup form of a header cell.
func NormalizeHeader(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(CleanCell(raw)), " "))
}

// NewFieldMap builds a map from per-field alias lists. The canonical field
// name is always accepted as a header, after the listed aliases.
func NewFieldMap(version string, aliases map[Field][]string) (*FieldMap, error) {
	m := &FieldMap{
		version: version,
		headers: make(map[string]alias),
		aliases: make(map[Field][]string),
	}

	for f := range aliases {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}

	// Iterate in schema order so conflicts are reported deterministically.
	for _, f := range Fields() {
		list := append(slices.Clone(aliases[f]), string(f))

		for _, raw := range list {
			h := NormalizeHeader(raw)
			if h == "" {
				continue
			}
			if prev, exists := m.headers[h]; exists {
				if prev.field != f {
					return nil, fmt.Errorf("header %q mapped to both %s and %s", h, prev.field, f)
				}
				continue
			}
			m.headers[h] = alias{field: f, priority: len(m.aliases[f])}
			m.aliases[f] = append(m.aliases[f], h)
		}
	}

	return m, nil
}

// Version identifies the dictionary revision.
func (m *FieldMap) Version() string { return m.version }

// Normalize maps a raw header to its canonical field.
// Unrecognized headers report false and are ignored by ingestion.
func (m *FieldMap) Normalize(rawHeader string) (Field, bool) {
	a, ok := m.headers[NormalizeHeader(rawHeader)]
	return a.field, ok
}

func (m *FieldMap) priority(rawHeader string) int {
	a, ok := m.headers[NormalizeHeader(rawHeader)]
	if !ok {
		return -1
	}
	return a.priority
}

// Aliases returns the accepted headers for f in priority order.
func (m *FieldMap) Aliases(f Field) []string {
	return slices.Clone(m.aliases[f])
}

// fieldMapFile is the on-disk form of a field map.
//
//	version: v2
//	fields:
//	  sku: [sku, asin, item #]
//	  quantity: [qty, on hand]
type fieldMapFile struct {
	Version string              `yaml:"version"`
	Extends string              `yaml:"extends"`
	Fields  map[string][]string `yaml:"fields"`
}

// LoadFieldMap reads a YAML field map. With "extends: default" the file's
// aliases are added in front of the built-in ones.
func LoadFieldMap(r io.Reader) (*FieldMap, error) {
	var file fieldMapFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode field map: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("field map: version is required")
	}

	aliases := make(map[Field][]string, len(file.Fields))
	for name, list := range file.Fields {
		f, ok := LookupField(name)
		if !ok {
			return nil, fmt.Errorf("field map: %w: %q", ErrUnknownField, name)
		}
		aliases[f] = list
	}

	switch strings.ToLower(file.Extends) {
	case "":
	case "default":
		for f, list := range defaultAliases {
			aliases[f] = append(aliases[f], list...)
		}
	default:
		return nil, fmt.Errorf("field map: unknown base %q", file.Extends)
	}

	return NewFieldMap(file.Version, aliases)
}

// LoadFieldMapFile reads a YAML field map from path.
func LoadFieldMapFile(path string) (*FieldMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open field map: %w", err)
	}
	defer f.Close()
	return LoadFieldMap(f)
}

// DefaultFieldMap returns the built-in dictionary for the deals spreadsheet.
func DefaultFieldMap() *FieldMap {
	m, err := NewFieldMap(SchemaVersion, defaultAliases)
	if err != nil {
		panic(err)
	}
	return m
}

// defaultAliases covers the headers of the daily deals sheet and the product
// export, in priority order.
var defaultAliases = map[Field][]string{
	FieldSKU:        {"sku", "asin", "item #", "item number", "model", "model #"},
	FieldTitle:      {"title", "name", "product name", "product", "description"},
	FieldCategory:   {"category", "product category"},
	FieldBrand:      {"brand", "manufacturer"},
	FieldUPC:        {"upc", "barcode"},
	FieldVendor:     {"vendor", "supplier"},
	FieldVendorID:   {"vendor id", "vendor_id"},
	FieldCondition:  {"condition"},
	FieldFOB:        {"fob", "fob location", "ships from"},
	FieldDimensions: {"dimensions", "size"},
	FieldWarranty:   {"warranty"},
	FieldImageURL:   {"image url", "image", "image_url", "photo"},
	FieldAmazonURL:  {"amazon url", "amazon_url", "amazon link"},
	FieldWalmartURL: {"walmart url", "walmart_url", "walmart link"},
	FieldEbayURL:    {"ebay url", "ebay_url", "ebay link"},

	FieldPrice:     {"price", "our price", "sale price"},
	FieldCost:      {"cost", "unit cost"},
	FieldProfitMOQ: {"profit/moq", "profit moq", "profit_moq"},
	FieldWidth:     {"width", "w"},
	FieldDepth:     {"depth", "d", "length"},
	FieldHeight:    {"height", "h"},
	FieldWeight:    {"weight", "weight (lbs)", "lbs"},

	FieldMOQ:      {"moq", "min order", "minimum order"},
	FieldQuantity: {"qty", "quantity", "on hand", "available"},
	FieldLeadTime: {"lead time", "lead_time", "lead time (days)"},

	FieldOutOfStock:       {"out of stock", "out_of_stock", "oos"},
	FieldAssemblyRequired: {"assembly required", "assembly_required", "requires assembly"},

	FieldOfferDate: {"offer date", "offer_date", "date"},
	FieldExpDate:   {"exp date", "exp_date", "expiration", "expiration date", "expires"},
	FieldLastSent:  {"last sent", "last_sent"},

	FieldRoomType: {"room type", "room_type", "room types", "rooms"},
	FieldStyle:    {"style", "styles"},
	FieldMaterial: {"material", "materials"},
	FieldColor:    {"color", "colors", "colour", "finish"},
}
