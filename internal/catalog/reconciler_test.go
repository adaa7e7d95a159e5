package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/catalog/memstore"
)

func ingest(t *testing.T, store catalog.Store, rows ...catalog.RawRow) catalog.Outcome {
	t.Helper()
	rc := &catalog.Reconciler{Store: store}
	out, err := rc.Ingest(context.Background(), rows, catalog.DefaultFieldMap(), catalog.DefaultMatchKey())
	require.NoError(t, err)
	return out
}

func TestIngestPartialUpdateScenario(t *testing.T) {
	store := memstore.New()

	out := ingest(t, store,
		catalog.RawRow{"sku": "A1", "title": "Chair", "price": "19.99"},
		catalog.RawRow{"sku": "A1", "price": "24.99"},
	)

	assert.Equal(t, 1, out.Inserted)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 0, out.Skipped)

	require.Equal(t, 1, store.Len())
	p, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "A1", p.Fields[catalog.FieldSKU].Text())
	assert.Equal(t, "Chair", p.Fields[catalog.FieldTitle].Text())
	assert.InDelta(t, 24.99, p.Fields[catalog.FieldPrice].Float(), 1e-9)
}

func TestIngestNoMatchableKey(t *testing.T) {
	store := memstore.New()

	out := ingest(t, store, catalog.RawRow{"sku": " ", "title": "", "price": "10"})

	assert.Equal(t, catalog.Outcome{
		Skipped: 1,
		Rows:    1,
		Skips:   []catalog.Skip{{Line: 2, Reason: catalog.ReasonNoMatchableKey}},
	}, out)
	assert.Zero(t, store.Len())
}

func TestIngestNoDataToApply(t *testing.T) {
	store := memstore.New()

	// The key cell holds text, but nothing survives coercion.
	out := ingest(t, store, catalog.RawRow{"sku": `=""`, "price": "n/a"})

	require.Len(t, out.Skips, 1)
	assert.Equal(t, catalog.ReasonNoData, out.Skips[0].Reason)
	assert.Zero(t, store.Len())
}

func TestIngestKeyOnlyRowsAreSkipped(t *testing.T) {
	store := memstore.New()

	out := ingest(t, store,
		catalog.RawRow{"sku": "A1"},
		catalog.RawRow{"sku": "B2", "price": "n/a"},
		catalog.RawRow{"sku": "C3", "title": "Chair"},
	)

	assert.Equal(t, catalog.Outcome{
		Skipped: 3,
		Rows:    3,
		Skips: []catalog.Skip{
			{Line: 2, Reason: catalog.ReasonNoData},
			{Line: 3, Reason: catalog.ReasonNoData},
			{Line: 4, Reason: catalog.ReasonNoData},
		},
	}, out)
	assert.Zero(t, store.Len())
}

func TestIngestKeyOnlyRowDoesNotTouchMatch(t *testing.T) {
	store := memstore.New()
	ingest(t, store, catalog.RawRow{"sku": "A1", "price": "10"})

	out := ingest(t, store, catalog.RawRow{"sku": "A1", "price": "ask"})

	assert.Zero(t, out.Updated)
	require.Len(t, out.Skips, 1)
	assert.Equal(t, catalog.ReasonNoData, out.Skips[0].Reason)
	p, _ := store.Get(1)
	assert.InDelta(t, 10.0, p.Fields[catalog.FieldPrice].Float(), 1e-9)
}

func TestIngestIsIdempotent(t *testing.T) {
	store := memstore.New()
	rows := []catalog.RawRow{
		{"SKU": "A1", "Title": "Chair", "Price": "19.99"},
		{"SKU": "B2", "Title": "Desk", "Price": "120"},
		{"SKU": "C3", "Title": "Lamp", "Price": "35"},
	}

	first := ingest(t, store, rows...)
	second := ingest(t, store, rows...)

	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, first.Inserted, second.Updated)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 3, store.Len())
}

func TestIngestBlankBooleanLeavesValueUnchanged(t *testing.T) {
	store := memstore.New()

	ingest(t, store, catalog.RawRow{"sku": "A1", "out of stock": "yes"})
	ingest(t, store, catalog.RawRow{"sku": "A1", "out of stock": "", "price": "5"})
	ingest(t, store, catalog.RawRow{"sku": "A1", "out of stock": "no"})

	p, _ := store.Get(1)
	assert.True(t, p.Fields[catalog.FieldOutOfStock].Bool())
	assert.InDelta(t, 5.0, p.Fields[catalog.FieldPrice].Float(), 1e-9)
}

func TestIngestAmbiguousTitleInserts(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	for _, sku := range []string{"X1", "X2"} {
		_, err := store.Insert(ctx, catalog.Record{
			catalog.FieldSKU:   catalog.TextValue(sku),
			catalog.FieldTitle: catalog.TextValue("Chair"),
		})
		require.NoError(t, err)
	}

	out := ingest(t, store, catalog.RawRow{"title": "Chair", "price": "49"})

	assert.Equal(t, 1, out.Inserted)
	assert.Zero(t, out.Updated)
	assert.Equal(t, 3, store.Len())
	for _, id := range []int64{1, 2} {
		p, _ := store.Get(id)
		assert.False(t, p.Fields.Has(catalog.FieldPrice), "record %d was modified", id)
	}
}

func TestIngestAmbiguousSkuDoesNotFallBackToTitle(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	for _, sku := range []string{"DUP", "DUP"} {
		_, err := store.Insert(ctx, catalog.Record{catalog.FieldSKU: catalog.TextValue(sku)})
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, catalog.Record{catalog.FieldTitle: catalog.TextValue("Unique Sofa")})
	require.NoError(t, err)

	out := ingest(t, store, catalog.RawRow{"sku": "DUP", "title": "Unique Sofa", "price": "900"})

	assert.Equal(t, 1, out.Inserted)
	p, _ := store.Get(3)
	assert.False(t, p.Fields.Has(catalog.FieldPrice))
}

func TestIngestTitleFallbackMatches(t *testing.T) {
	store := memstore.New()
	ingest(t, store, catalog.RawRow{"title": "Bookcase", "price": "80"})

	out := ingest(t, store, catalog.RawRow{"sku": "NEW-SKU", "title": "Bookcase", "qty": "4"})

	assert.Equal(t, 1, out.Updated)
	p, _ := store.Get(1)
	assert.Equal(t, "NEW-SKU", p.Fields[catalog.FieldSKU].Text())
	assert.Equal(t, int64(4), p.Fields[catalog.FieldQuantity].Int())
}

func TestIngestIgnoresUnknownHeadersAndBlankRows(t *testing.T) {
	store := memstore.New()

	out := ingest(t, store,
		catalog.RawRow{"sku": "A1", "brand": "Acme", "internal notes": "call vendor"},
		catalog.RawRow{"sku": "", "internal notes": ""},
	)

	assert.Equal(t, 1, out.Inserted)
	assert.Equal(t, 1, out.Rows)
	p, _ := store.Get(1)
	assert.Equal(t, []catalog.Field{catalog.FieldSKU, catalog.FieldBrand}, p.Fields.Fields())
}

func TestIngestAliasPriority(t *testing.T) {
	store := memstore.New()

	// "sku" outranks "asin" regardless of column order.
	out := ingest(t, store, catalog.RawRow{"ASIN": "B00AAA", "SKU": "A1", "Qty": "1"})
	require.Equal(t, 1, out.Inserted)
	p, _ := store.Get(1)
	assert.Equal(t, "A1", p.Fields[catalog.FieldSKU].Text())

	// A lower-priority alias fills in when the preferred column is blank.
	out = ingest(t, store, catalog.RawRow{"ASIN": "B00BBB", "SKU": "", "Qty": "2"})
	require.Equal(t, 1, out.Inserted)
	p, _ = store.Get(2)
	assert.Equal(t, "B00BBB", p.Fields[catalog.FieldSKU].Text())
}

type failingStore struct {
	*memstore.Store
	failInsertFor string
}

func (f failingStore) Insert(ctx context.Context, rec catalog.Record) (int64, error) {
	if v, ok := rec[catalog.FieldSKU]; ok && v.Text() == f.failInsertFor {
		return 0, errors.New("duplicate key value violates unique constraint")
	}
	return f.Store.Insert(ctx, rec)
}

func TestIngestStoreErrorSkipsRowAndContinues(t *testing.T) {
	store := failingStore{Store: memstore.New(), failInsertFor: "BAD"}

	out := ingest(t, store,
		catalog.RawRow{"sku": "A1", "qty": "1"},
		catalog.RawRow{"sku": "BAD", "qty": "1"},
		catalog.RawRow{"sku": "C3", "qty": "1"},
	)

	assert.Equal(t, 2, out.Inserted)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.Skips, 1)
	assert.Equal(t, 3, out.Skips[0].Line)
	assert.Contains(t, out.Skips[0].Reason, "duplicate key")
}

type vanishingStore struct{ *memstore.Store }

func (vanishingStore) UpdateFields(context.Context, int64, catalog.Record) error {
	return catalog.ErrNotFound
}

func TestIngestUpdateNotFoundIsSkipped(t *testing.T) {
	base := memstore.New()
	ingest(t, base, catalog.RawRow{"sku": "A1", "qty": "1"})

	out := ingest(t, vanishingStore{base}, catalog.RawRow{"sku": "A1", "price": "3"})

	assert.Equal(t, 1, out.Skipped)
	assert.Contains(t, out.Skips[0].Reason, catalog.ErrNotFound.Error())
}

func TestIngestStructuralErrors(t *testing.T) {
	rc := &catalog.Reconciler{Store: memstore.New()}
	ctx := context.Background()

	_, err := rc.Ingest(ctx, nil, nil, nil)
	assert.ErrorIs(t, err, catalog.ErrEmptyFile)

	_, err = rc.IngestReader(ctx, strings.NewReader(""), nil, nil)
	assert.ErrorIs(t, err, catalog.ErrEmptyFile)

	_, err = rc.IngestReader(ctx, strings.NewReader(" , \nA1,x\n"), nil, nil)
	assert.ErrorIs(t, err, catalog.ErrNoHeader)
}

func TestIngestReaderReportsFileLines(t *testing.T) {
	store := memstore.New()
	rc := &catalog.Reconciler{Store: store}
	src := "SKU,Title,Room Type,Price\nA1,Chair,\"Office, Living Room\",\"1,234.50\"\n,,,\nB2,Desk,Office,12\n,,,99\n"

	out, err := rc.IngestReader(context.Background(), strings.NewReader(src), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Inserted)
	require.Len(t, out.Skips, 1)
	assert.Equal(t, 5, out.Skips[0].Line)

	p, _ := store.Get(1)
	assert.Equal(t, []string{"Living Room", "Office"}, p.Fields[catalog.FieldRoomType].Set())
	assert.InDelta(t, 1234.50, p.Fields[catalog.FieldPrice].Float(), 1e-9)
}

func TestIngestCancelledReturnsPartialOutcome(t *testing.T) {
	store := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())

	rc := &catalog.Reconciler{
		Store: store,
		Progress: func(p catalog.RowProgress) {
			if p.Row == 2 {
				cancel()
			}
		},
	}
	rows := []catalog.RawRow{{"sku": "A", "qty": "1"}, {"sku": "B", "qty": "1"}, {"sku": "C", "qty": "1"}}

	out, err := rc.Ingest(ctx, rows, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, out.Inserted)
	assert.Equal(t, 2, store.Len())
}

func TestIngestDryRunMatchesRealRun(t *testing.T) {
	base := memstore.New()
	ingest(t, base, catalog.RawRow{"sku": "A1", "title": "Chair", "brand": "Acme"})

	rows := []catalog.RawRow{
		{"sku": "A1", "price": "20"},
		{"sku": "N1", "title": "Ottoman", "brand": "Acme"},
		{"sku": "N1", "price": "45"},
		{"title": ""},
	}

	preview := ingest(t, memstore.NewOverlay(base), rows...)
	assert.Equal(t, 1, base.Len(), "dry run must not write")

	applied := ingest(t, base, rows...)
	assert.Equal(t, applied.Inserted, preview.Inserted)
	assert.Equal(t, applied.Updated, preview.Updated)
	assert.Equal(t, applied.Skipped, preview.Skipped)
}

func TestParseMatchKey(t *testing.T) {
	key, err := catalog.ParseMatchKey("sku, upc ,title")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Field{catalog.FieldSKU, catalog.FieldUPC, catalog.FieldTitle}, key.Fields())
	assert.Equal(t, "sku,upc,title", key.String())

	_, err = catalog.ParseMatchKey("price")
	assert.Error(t, err)
	_, err = catalog.ParseMatchKey("nope")
	assert.ErrorIs(t, err, catalog.ErrUnknownField)
	_, err = catalog.ParseMatchKey(" , ")
	assert.Error(t, err)
}
