package catalog

import "strings"

// SchemaVersion identifies the canonical product schema defined in this file.
const SchemaVersion = "v1"

// FieldType is the semantic type a canonical field's values are coerced into.
type FieldType int

const (
	TypeText FieldType = iota
	TypeFloat
	TypeInteger
	TypeBoolean
	TypeTimestamp
	TypeTextSet
)

func (t FieldType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeFloat:
		return "float"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeTimestamp:
		return "timestamp"
	case TypeTextSet:
		return "text_set"
	default:
		return "unknown"
	}
}

// Field is a canonical product attribute. The string value doubles as the
// storage column name.
type Field string

const (
	FieldSKU        Field = "sku"
	FieldTitle      Field = "title"
	FieldCategory   Field = "category"
	FieldBrand      Field = "brand"
	FieldUPC        Field = "upc"
	FieldVendor     Field = "vendor"
	FieldVendorID   Field = "vendor_id"
	FieldCondition  Field = "condition"
	FieldFOB        Field = "fob"
	FieldDimensions Field = "dimensions"
	FieldWarranty   Field = "warranty"
	FieldImageURL   Field = "image_url"
	FieldAmazonURL  Field = "amazon_url"
	FieldWalmartURL Field = "walmart_url"
	FieldEbayURL    Field = "ebay_url"

	FieldPrice     Field = "price"
	FieldCost      Field = "cost"
	FieldProfitMOQ Field = "profit_moq"
	FieldWidth     Field = "width"
	FieldDepth     Field = "depth"
	FieldHeight    Field = "height"
	FieldWeight    Field = "weight"

	FieldMOQ      Field = "moq"
	FieldQuantity Field = "quantity"
	FieldLeadTime Field = "lead_time"

	FieldOutOfStock       Field = "out_of_stock"
	FieldAssemblyRequired Field = "assembly_required"

	FieldOfferDate Field = "offer_date"
	FieldExpDate   Field = "exp_date"
	FieldLastSent  Field = "last_sent"

	FieldRoomType Field = "room_type"
	FieldStyle    Field = "style"
	FieldMaterial Field = "material"
	FieldColor    Field = "color"
)

type fieldDef struct {
	field Field
	typ   FieldType
	facet bool
}

// schema is the v1 product schema in column order.
var schema = []fieldDef{
	{FieldSKU, TypeText, false},
	{FieldTitle, TypeText, false},
	{FieldCategory, TypeText, true},
	{FieldBrand, TypeText, true},
	{FieldUPC, TypeText, false},
	{FieldVendor, TypeText, false},
	{FieldVendorID, TypeText, false},
	{FieldCondition, TypeText, true},
	{FieldFOB, TypeText, true},
	{FieldDimensions, TypeText, false},
	{FieldWarranty, TypeText, false},
	{FieldImageURL, TypeText, false},
	{FieldAmazonURL, TypeText, false},
	{FieldWalmartURL, TypeText, false},
	{FieldEbayURL, TypeText, false},

	{FieldPrice, TypeFloat, false},
	{FieldCost, TypeFloat, false},
	{FieldProfitMOQ, TypeFloat, false},
	{FieldWidth, TypeFloat, false},
	{FieldDepth, TypeFloat, false},
	{FieldHeight, TypeFloat, false},
	{FieldWeight, TypeFloat, false},

	{FieldMOQ, TypeInteger, false},
	{FieldQuantity, TypeInteger, false},
	{FieldLeadTime, TypeInteger, false},

	{FieldOutOfStock, TypeBoolean, false},
	{FieldAssemblyRequired, TypeBoolean, false},

	{FieldOfferDate, TypeTimestamp, false},
	{FieldExpDate, TypeTimestamp, false},
	{FieldLastSent, TypeTimestamp, false},

	{FieldRoomType, TypeTextSet, true},
	{FieldStyle, TypeTextSet, true},
	{FieldMaterial, TypeTextSet, true},
	{FieldColor, TypeTextSet, true},
}

var schemaIndex = func() map[Field]fieldDef {
	idx := make(map[Field]fieldDef, len(schema))
	for _, d := range schema {
		idx[d.field] = d
	}
	return idx
}()

// Fields returns every canonical field in schema order.
func Fields() []Field {
	out := make([]Field, len(schema))
	for i, d := range schema {
		out[i] = d.field
	}
	return out
}

// FacetFields returns the fields that can be listed as filter options.
func FacetFields() []Field {
	var out []Field
	for _, d := range schema {
		if d.facet {
			out = append(out, d.field)
		}
	}
	return out
}

// LookupField resolves a canonical field identifier, case-insensitively.
func LookupField(name string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	_, ok := schemaIndex[f]
	return f, ok
}

// Valid reports whether f is part of the schema.
func (f Field) Valid() bool {
	_, ok := schemaIndex[f]
	return ok
}

// Type returns the declared type of f. Unknown fields report TypeText.
func (f Field) Type() FieldType {
	return schemaIndex[f].typ
}

// IsFacet reports whether f is a filterable attribute.
func (f Field) IsFacet() bool {
	return schemaIndex[f].facet
}

func (f Field) String() string { return string(f) }
