package sqlbuild

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

func TestBuilderPlaceholders(t *testing.T) {
	b := New(PlaceholderDollar)
	assert.Equal(t, "$1", b.Arg("a"))
	assert.Equal(t, "$2, $3", b.List([]any{1, 2}))
	assert.Equal(t, 3, b.Len())

	q := New(PlaceholderQuestion)
	assert.Equal(t, "?, ?", q.List([]any{"x", "y"}))
	assert.Equal(t, []any{"x", "y"}, q.Args())
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sku", `"sku"`},
		{`we"ird`, `"we""ird"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QuoteIdentifier(tt.in))
	}
}

func TestInsertAndUpdateStatements(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := catalog.Record{
		catalog.FieldPrice: catalog.FloatValue(9.5),
		catalog.FieldSKU:   catalog.TextValue("A1"),
	}

	q, args := Postgres.Insert(rec, now)
	assert.Equal(t, `INSERT INTO products (created_at, "sku", "price") VALUES ($1, $2, $3) RETURNING id`, q)
	assert.Equal(t, []any{now, "A1", 9.5}, args)

	q, args = SQLite.Update(7, rec)
	assert.Equal(t, `UPDATE products SET "sku" = ?, "price" = ? WHERE id = ?`, q)
	assert.Equal(t, []any{"A1", 9.5, int64(7)}, args)
}

func TestFindByKeyLimit(t *testing.T) {
	q, args := Postgres.FindByKey(catalog.FieldTitle, catalog.TextValue("Chair"), 2)
	assert.True(t, strings.HasSuffix(q, `WHERE "title" = $1 ORDER BY id LIMIT $2`), q)
	assert.Equal(t, []any{"Chair", 2}, args)

	q, _ = SQLite.FindByKey(catalog.FieldTitle, catalog.TextValue("Chair"), 0)
	assert.NotContains(t, q, "LIMIT")
}

func TestDDLCoversEveryField(t *testing.T) {
	stmts := SQLite.DDL()
	require.GreaterOrEqual(t, len(stmts), 2)
	table := stmts[1]
	for _, f := range catalog.Fields() {
		assert.Contains(t, table, QuoteIdentifier(string(f)))
	}
	assert.Contains(t, table, `"offer_date" TEXT`)
	assert.Contains(t, Postgres.DDL()[1], `"offer_date" TIMESTAMPTZ`)
}

func TestEncodeDecode(t *testing.T) {
	ts := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		field catalog.Field
		value catalog.Value
	}{
		{"text", catalog.FieldTitle, catalog.TextValue("Desk")},
		{"float", catalog.FieldPrice, catalog.FloatValue(12.25)},
		{"integer", catalog.FieldMOQ, catalog.IntValue(40)},
		{"boolean", catalog.FieldOutOfStock, catalog.BoolValue(true)},
		{"timestamp", catalog.FieldOfferDate, catalog.TimeValue(ts)},
		{"text_set", catalog.FieldColor, catalog.SetValue("Red", "Blue")},
	}
	for _, d := range []Dialect{Postgres, SQLite} {
		for _, tt := range tests {
			t.Run(d.Name+"/"+tt.name, func(t *testing.T) {
				got, ok, err := d.Decode(tt.field, d.Encode(tt.value))
				require.NoError(t, err)
				require.True(t, ok)
				assert.True(t, tt.value.Equal(got), "got %v", got)
			})
		}
	}
}

func TestDecodeAbsent(t *testing.T) {
	_, ok, err := SQLite.Decode(catalog.FieldTitle, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = SQLite.Decode(catalog.FieldTitle, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = SQLite.Decode(catalog.FieldPrice, "abc")
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	_, err := Range(catalog.FieldCategory)
	assert.Error(t, err)

	r, err := ScanRange(int64(3), 9.5)
	require.NoError(t, err)
	assert.Equal(t, catalog.Range{Min: 3, Max: 9.5, Valid: true}, r)

	r, err = ScanRange(nil, nil)
	require.NoError(t, err)
	assert.False(t, r.Valid)
}
