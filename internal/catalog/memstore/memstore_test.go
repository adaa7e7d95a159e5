package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/store/storetest"
)

func TestStoreInsertAndUpdate(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New()
	s.Now = func() time.Time { return fixed }

	id, err := s.Insert(ctx, catalog.Record{
		catalog.FieldSKU:   catalog.TextValue("A1"),
		catalog.FieldPrice: catalog.FloatValue(10),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, s.UpdateFields(ctx, id, catalog.Record{catalog.FieldPrice: catalog.FloatValue(12)}))
	p, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, fixed, p.CreatedAt)
	assert.Equal(t, "A1", p.Fields[catalog.FieldSKU].Text())
	assert.Equal(t, 12.0, p.Fields[catalog.FieldPrice].Float())

	err = s.UpdateFields(ctx, 99, catalog.Record{catalog.FieldPrice: catalog.FloatValue(1)})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = s.Insert(ctx, catalog.Record{catalog.FieldPrice: catalog.TextValue("x")})
	assert.ErrorIs(t, err, catalog.ErrTypeMismatch)
}

func TestStoreFindByKeyLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, catalog.Record{catalog.FieldTitle: catalog.TextValue("Chair")})
		require.NoError(t, err)
	}

	hits, err := s.FindByKey(ctx, catalog.FieldTitle, catalog.TextValue("Chair"), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(2), hits[1].ID)

	hits, err = s.FindByKey(ctx, catalog.FieldTitle, catalog.TextValue("chair"), 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStoreListDistinctFetchOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, c := range []string{"Office", "Home & Garden", "Office", "home and garden"} {
		_, err := s.Insert(ctx, catalog.Record{catalog.FieldCategory: catalog.TextValue(c)})
		require.NoError(t, err)
	}

	got, err := s.ListDistinct(ctx, catalog.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"Office", "Home & Garden", "home and garden"}, got)
}

func TestStoreNumericRange(t *testing.T) {
	ctx := context.Background()
	s := New()

	r, err := s.NumericRange(ctx, catalog.FieldPrice)
	require.NoError(t, err)
	assert.False(t, r.Valid)

	for _, p := range []float64{20, 5, 300} {
		_, err := s.Insert(ctx, catalog.Record{catalog.FieldPrice: catalog.FloatValue(p)})
		require.NoError(t, err)
	}
	r, err = s.NumericRange(ctx, catalog.FieldPrice)
	require.NoError(t, err)
	assert.Equal(t, catalog.Range{Min: 5, Max: 300, Valid: true}, r)

	_, err = s.NumericRange(ctx, catalog.FieldTitle)
	assert.Error(t, err)
}

func TestOverlayDoesNotWriteBase(t *testing.T) {
	ctx := context.Background()
	base := New()
	id, err := base.Insert(ctx, catalog.Record{catalog.FieldSKU: catalog.TextValue("A1")})
	require.NoError(t, err)

	o := NewOverlay(base)
	hits, err := o.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("A1"), 2)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NoError(t, o.UpdateFields(ctx, id, catalog.Record{catalog.FieldSKU: catalog.TextValue("A2")}))
	_, err = o.Insert(ctx, catalog.Record{catalog.FieldSKU: catalog.TextValue("B1")})
	require.NoError(t, err)

	// The staged rename is visible through the overlay only.
	hits, err = o.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("A2"), 2)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)

	hits, err = o.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("A1"), 2)
	require.NoError(t, err)
	assert.Empty(t, hits)

	assert.Equal(t, 1, base.Len())
	assert.Len(t, o.Staged(), 1)
	assert.Equal(t, 1, o.Patches())
}

func TestOverlayUpdateUnknownID(t *testing.T) {
	ctx := context.Background()
	base := New()
	id, err := base.Insert(ctx, catalog.Record{catalog.FieldSKU: catalog.TextValue("A1")})
	require.NoError(t, err)

	o := NewOverlay(base)
	patch := catalog.Record{catalog.FieldPrice: catalog.FloatValue(5)}

	err = o.UpdateFields(ctx, 99, patch)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, base.UpdateFields(ctx, 99, patch), catalog.ErrNotFound)
	assert.Zero(t, o.Patches())

	_, err = o.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("A1"), 1)
	require.NoError(t, err)
	require.NoError(t, o.UpdateFields(ctx, id, patch))
	assert.Equal(t, 1, o.Patches())
}

func TestStoreKeepsIDOrderAtScale(t *testing.T) {
	ctx := context.Background()
	s := New()
	const n = 500
	for i := range n {
		title := "Chair"
		if i%2 == 1 {
			title = "Table"
		}
		_, err := s.Insert(ctx, catalog.Record{catalog.FieldTitle: catalog.TextValue(title)})
		require.NoError(t, err)
	}

	hits, err := s.FindByKey(ctx, catalog.FieldTitle, catalog.TextValue("Table"), 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []int64{2, 4, 6}, []int64{hits[0].ID, hits[1].ID, hits[2].ID})

	distinct, err := s.ListDistinct(ctx, catalog.FieldTitle)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chair", "Table"}, distinct)

	all := s.All()
	require.Len(t, all, n)
	for i, p := range all {
		require.Equal(t, int64(i+1), p.ID)
	}
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) catalog.ReadStore { return New() })
}
