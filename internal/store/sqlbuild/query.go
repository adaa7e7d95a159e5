package sqlbuild

import (
	"fmt"
	"strings"
	"time"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// Columns returns the selected columns of the products table in scan order:
// id, created_at, then every field in schema order.
func Columns() []string {
	fields := catalog.Fields()
	cols := make([]string, 0, len(fields)+2)
	cols = append(cols, "id", "created_at")
	for _, f := range fields {
		cols = append(cols, string(f))
	}
	return cols
}

func selectList() string {
	cols := Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func col(f catalog.Field) string { return QuoteIdentifier(string(f)) }

// FindByKey selects products whose field equals v, oldest first.
func (d Dialect) FindByKey(f catalog.Field, v catalog.Value, limit int) (string, []any) {
	b := New(d.Style)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY id",
		selectList(), Table, col(f), b.Arg(d.Encode(v)))
	if limit > 0 {
		q += " LIMIT " + b.Arg(limit)
	}
	return q, b.Args()
}

// Insert writes the present fields of rec plus created_at and returns the new id.
func (d Dialect) Insert(rec catalog.Record, now time.Time) (string, []any) {
	b := New(d.Style)
	cols := []string{"created_at"}
	vals := []string{b.Arg(d.encodeTime(now))}
	for _, f := range rec.Fields() {
		cols = append(cols, col(f))
		vals = append(vals, b.Arg(d.Encode(rec[f])))
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		Table, strings.Join(cols, ", "), strings.Join(vals, ", "))
	return q, b.Args()
}

// Update sets the present fields of rec on product id. rec must not be empty.
func (d Dialect) Update(id int64, rec catalog.Record) (string, []any) {
	b := New(d.Style)
	sets := make([]string, 0, len(rec))
	for _, f := range rec.Fields() {
		sets = append(sets, col(f)+" = "+b.Arg(d.Encode(rec[f])))
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s", Table, strings.Join(sets, ", "), b.Arg(id))
	return q, b.Args()
}

// Exists selects 1 when product id exists.
func (d Dialect) Exists(id int64) (string, []any) {
	b := New(d.Style)
	return fmt.Sprintf("SELECT 1 FROM %s WHERE id = %s", Table, b.Arg(id)), b.Args()
}

// Distinct selects the distinct stored values of f, ordered by the first id
// holding each.
func Distinct(f catalog.Field) string {
	c := col(f)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY MIN(id)",
		c, Table, c, c)
}

// ByValues selects products whose f is one of values. Only fields stored as
// text can be filtered in SQL; for the rest every product holding f is
// returned and the caller filters on the rendered value.
func (d Dialect) ByValues(f catalog.Field, values []string) (q string, args []any, filtered bool) {
	b := New(d.Style)
	switch f.Type() {
	case catalog.TypeText, catalog.TypeTextSet:
		if len(values) == 0 {
			return "", nil, true
		}
		vs := make([]any, len(values))
		for i, v := range values {
			vs[i] = v
		}
		q = fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s) ORDER BY id",
			selectList(), Table, col(f), b.List(vs))
		return q, b.Args(), true
	}
	q = fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL ORDER BY id", selectList(), Table, col(f))
	return q, nil, false
}

// Range selects MIN and MAX of a numeric field.
func Range(f catalog.Field) (string, error) {
	switch f.Type() {
	case catalog.TypeFloat, catalog.TypeInteger:
	default:
		return "", fmt.Errorf("field %s is not numeric", f)
	}
	c := col(f)
	return fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", c, c, Table), nil
}

// ScanRange converts the scanned MIN and MAX into a Range.
func ScanRange(lo, hi any) (catalog.Range, error) {
	if lo == nil || hi == nil {
		return catalog.Range{}, nil
	}
	minV, err := asFloat(lo)
	if err != nil {
		return catalog.Range{}, err
	}
	maxV, err := asFloat(hi)
	if err != nil {
		return catalog.Range{}, err
	}
	return catalog.Range{Min: minV, Max: maxV, Valid: true}, nil
}

// Product builds a product from one row scanned in Columns order.
func (d Dialect) Product(row []any) (catalog.Product, error) {
	fields := catalog.Fields()
	if len(row) != len(fields)+2 {
		return catalog.Product{}, fmt.Errorf("scan product: got %d columns, want %d", len(row), len(fields)+2)
	}

	var p catalog.Product
	switch id := row[0].(type) {
	case int64:
		p.ID = id
	case int32:
		p.ID = int64(id)
	default:
		return catalog.Product{}, fmt.Errorf("scan product: unexpected id %T", row[0])
	}
	created, err := decodeTime(row[1])
	if err != nil {
		return catalog.Product{}, fmt.Errorf("scan product %d: %w", p.ID, err)
	}
	p.CreatedAt = created

	p.Fields = make(catalog.Record)
	for i, f := range fields {
		v, ok, err := d.Decode(f, row[i+2])
		if err != nil {
			return catalog.Product{}, fmt.Errorf("scan product %d: %w", p.ID, err)
		}
		if ok {
			p.Fields[f] = v
		}
	}
	return p, nil
}
