package sqlbuild

import (
	"fmt"
	"strings"
	"time"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// Table is the name of the products table.
const Table = "products"

// storedTimeLayout is used by dialects without a native timestamp type.
const storedTimeLayout = time.RFC3339Nano

// Dialect describes how one backend lays out and encodes the products table.
type Dialect struct {
	Name  string
	Style PlaceholderStyle

	// IDColumn is the full definition of the id column.
	IDColumn string
	// Types maps each field type to its column type.
	Types map[catalog.FieldType]string

	// NativeBool and NativeTime report whether booleans and timestamps are
	// bound as Go values or as integers and RFC3339 text.
	NativeBool bool
	NativeTime bool
}

var Postgres = Dialect{
	Name:     "postgres",
	Style:    PlaceholderDollar,
	IDColumn: "id BIGSERIAL PRIMARY KEY",
	Types: map[catalog.FieldType]string{
		catalog.TypeText:      "TEXT",
		catalog.TypeFloat:     "DOUBLE PRECISION",
		catalog.TypeInteger:   "BIGINT",
		catalog.TypeBoolean:   "BOOLEAN",
		catalog.TypeTimestamp: "TIMESTAMPTZ",
		catalog.TypeTextSet:   "TEXT",
	},
	NativeBool: true,
	NativeTime: true,
}

// SQLite declares timestamps as TEXT so the driver hands them back untouched.
var SQLite = Dialect{
	Name:     "sqlite",
	Style:    PlaceholderQuestion,
	IDColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT",
	Types: map[catalog.FieldType]string{
		catalog.TypeText:      "TEXT",
		catalog.TypeFloat:     "REAL",
		catalog.TypeInteger:   "INTEGER",
		catalog.TypeBoolean:   "INTEGER",
		catalog.TypeTimestamp: "TEXT",
		catalog.TypeTextSet:   "TEXT",
	},
}

// indexed are the columns looked up by the matcher and the category pages.
var indexed = []catalog.Field{catalog.FieldSKU, catalog.FieldTitle, catalog.FieldCategory}

// DDL returns the statements that create the products and meta tables.
func (d Dialect) DDL() []string {
	cols := []string{d.IDColumn, "created_at " + d.Types[catalog.TypeTimestamp] + " NOT NULL"}
	for _, f := range catalog.Fields() {
		cols = append(cols, QuoteIdentifier(string(f))+" "+d.Types[f.Type()])
	}

	stmts := []string{
		"CREATE TABLE IF NOT EXISTS catalog_meta (\n  key   TEXT PRIMARY KEY,\n  value TEXT NOT NULL\n)",
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", Table, strings.Join(cols, ",\n  ")),
	}
	for _, f := range indexed {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
			Table, f, Table, QuoteIdentifier(string(f))))
	}
	return stmts
}

// SetMeta returns an upsert into catalog_meta.
func (d Dialect) SetMeta(key, value string) (string, []any) {
	b := New(d.Style)
	q := fmt.Sprintf("INSERT INTO catalog_meta (key, value) VALUES (%s, %s) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		b.Arg(key), b.Arg(value))
	return q, b.Args()
}

// GetMeta returns the lookup of one catalog_meta key.
func (d Dialect) GetMeta(key string) (string, []any) {
	b := New(d.Style)
	return "SELECT value FROM catalog_meta WHERE key = " + b.Arg(key), b.Args()
}

// Encode converts v to the value bound for its column.
func (d Dialect) Encode(v catalog.Value) any {
	switch v.Type() {
	case catalog.TypeFloat:
		return v.Float()
	case catalog.TypeInteger:
		return v.Int()
	case catalog.TypeBoolean:
		if d.NativeBool {
			return v.Bool()
		}
		if v.Bool() {
			return int64(1)
		}
		return int64(0)
	case catalog.TypeTimestamp:
		return d.encodeTime(v.Time())
	default:
		// text and text_set both store their rendered text
		return v.String()
	}
}

func (d Dialect) encodeTime(t time.Time) any {
	if d.NativeTime {
		return t.UTC()
	}
	return t.UTC().Format(storedTimeLayout)
}

// Decode converts a scanned column value back into a catalog value.
// ok is false for NULL and for empty text.
func (d Dialect) Decode(f catalog.Field, raw any) (catalog.Value, bool, error) {
	if raw == nil {
		return catalog.Value{}, false, nil
	}
	if b, isBytes := raw.([]byte); isBytes {
		raw = string(b)
	}

	switch f.Type() {
	case catalog.TypeText:
		s, err := asString(raw)
		if err != nil || s == "" {
			return catalog.Value{}, false, err
		}
		return catalog.TextValue(s), true, nil
	case catalog.TypeTextSet:
		s, err := asString(raw)
		if err != nil {
			return catalog.Value{}, false, err
		}
		members := catalog.SplitFacets(s)
		if len(members) == 0 {
			return catalog.Value{}, false, nil
		}
		return catalog.SetValue(members...), true, nil
	case catalog.TypeFloat:
		n, err := asFloat(raw)
		if err != nil {
			return catalog.Value{}, false, err
		}
		return catalog.FloatValue(n), true, nil
	case catalog.TypeInteger:
		switch n := raw.(type) {
		case int64:
			return catalog.IntValue(n), true, nil
		case int32:
			return catalog.IntValue(int64(n)), true, nil
		case float64:
			return catalog.IntValue(int64(n)), true, nil
		}
	case catalog.TypeBoolean:
		switch b := raw.(type) {
		case bool:
			return catalog.BoolValue(b), true, nil
		case int64:
			return catalog.BoolValue(b != 0), true, nil
		}
	case catalog.TypeTimestamp:
		t, err := decodeTime(raw)
		if err != nil {
			return catalog.Value{}, false, err
		}
		return catalog.TimeValue(t), true, nil
	}
	return catalog.Value{}, false, fmt.Errorf("column %s: unexpected %T", f, raw)
}

func asString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("unexpected %T for text column", raw)
	}
	return s, nil
}

func asFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("unexpected %T for numeric column", raw)
}

func decodeTime(raw any) (time.Time, error) {
	switch t := raw.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(storedTimeLayout, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", t, err)
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unexpected %T for timestamp column", raw)
}
