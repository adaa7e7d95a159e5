// Package storetest is a behavioural test suite shared by every
// catalog.ReadStore implementation.
package storetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) catalog.ReadStore

// Run exercises a store against the catalog.Store and catalog.Browser contracts.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s catalog.ReadStore)
	}{
		{"RoundTripsEveryType", testRoundTrip},
		{"FindByKeyOrderAndLimit", testFindByKey},
		{"UpdateWritesOnlyPresentFields", testUpdate},
		{"UpdateMissingProduct", testUpdateMissing},
		{"ListDistinctFirstSeen", testListDistinct},
		{"ListByValues", testListByValues},
		{"NumericRange", testNumericRange},
		{"ReconcilerIngest", testIngest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func fullRecord() catalog.Record {
	offer := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	return catalog.Record{
		catalog.FieldSKU:              catalog.TextValue("B00X1"),
		catalog.FieldTitle:            catalog.TextValue(`Walnut Desk 60"`),
		catalog.FieldCategory:         catalog.TextValue("Office"),
		catalog.FieldPrice:            catalog.FloatValue(249.99),
		catalog.FieldMOQ:              catalog.IntValue(12),
		catalog.FieldOutOfStock:       catalog.BoolValue(false),
		catalog.FieldAssemblyRequired: catalog.BoolValue(true),
		catalog.FieldOfferDate:        catalog.TimeValue(offer),
		catalog.FieldRoomType:         catalog.SetValue("Office", "Bedroom"),
	}
}

func testRoundTrip(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	want := fullRecord()

	id, err := s.Insert(ctx, want)
	require.NoError(t, err)

	hits, err := s.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("B00X1"), 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)
	assert.False(t, hits[0].CreatedAt.IsZero())

	got := hits[0].Fields
	assert.Equal(t, want.Fields(), got.Fields())
	for f, v := range want {
		assert.True(t, v.Equal(got[f]), "field %s: got %v want %v", f, got[f], v)
	}
	_, err = s.Insert(ctx, catalog.Record{catalog.FieldPrice: catalog.TextValue("cheap")})
	assert.ErrorIs(t, err, catalog.ErrTypeMismatch)
}

func testFindByKey(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	var ids []int64
	for range 3 {
		id, err := s.Insert(ctx, catalog.Record{catalog.FieldTitle: catalog.TextValue("Accent Chair")})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	hits, err := s.FindByKey(ctx, catalog.FieldTitle, catalog.TextValue("Accent Chair"), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, ids[0], hits[0].ID)
	assert.Equal(t, ids[1], hits[1].ID)

	hits, err = s.FindByKey(ctx, catalog.FieldTitle, catalog.TextValue("Accent Chair"), 0)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	hits, err = s.FindByKey(ctx, catalog.FieldTitle, catalog.TextValue("accent chair"), 2)
	require.NoError(t, err)
	assert.Empty(t, hits, "matching is exact")
}

func testUpdate(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	id, err := s.Insert(ctx, fullRecord())
	require.NoError(t, err)

	require.NoError(t, s.UpdateFields(ctx, id, catalog.Record{
		catalog.FieldPrice:      catalog.FloatValue(199),
		catalog.FieldOutOfStock: catalog.BoolValue(true),
	}))
	require.NoError(t, s.UpdateFields(ctx, id, catalog.Record{}))

	hits, err := s.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("B00X1"), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	p := hits[0]
	assert.Equal(t, 199.0, p.Fields[catalog.FieldPrice].Float())
	assert.True(t, p.Fields[catalog.FieldOutOfStock].Bool())
	assert.Equal(t, int64(12), p.Fields[catalog.FieldMOQ].Int())
	assert.Equal(t, "Office", p.Fields[catalog.FieldCategory].Text())
}

func testUpdateMissing(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	err := s.UpdateFields(ctx, 4242, catalog.Record{catalog.FieldPrice: catalog.FloatValue(1)})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	err = s.UpdateFields(ctx, 4242, catalog.Record{})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func testListDistinct(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	for _, c := range []string{"Office", "Home & Garden", "Office", "home and garden"} {
		_, err := s.Insert(ctx, catalog.Record{catalog.FieldCategory: catalog.TextValue(c)})
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, catalog.Record{catalog.FieldSKU: catalog.TextValue("no-category")})
	require.NoError(t, err)

	got, err := s.ListDistinct(ctx, catalog.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"Office", "Home & Garden", "home and garden"}, got)
}

func testListByValues(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	for i, c := range []string{"Home & Garden", "Office", "home and garden"} {
		_, err := s.Insert(ctx, catalog.Record{
			catalog.FieldCategory: catalog.TextValue(c),
			catalog.FieldMOQ:      catalog.IntValue(int64(i + 1)),
		})
		require.NoError(t, err)
	}

	got, err := s.ListByValues(ctx, catalog.FieldCategory, []string{"Home & Garden", "home and garden"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Less(t, got[0].ID, got[1].ID)
	assert.Equal(t, "Home & Garden", got[0].Fields[catalog.FieldCategory].Text())

	got, err = s.ListByValues(ctx, catalog.FieldMOQ, []string{"2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Office", got[0].Fields[catalog.FieldCategory].Text())

	got, err = s.ListByValues(ctx, catalog.FieldCategory, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testNumericRange(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	r, err := s.NumericRange(ctx, catalog.FieldPrice)
	require.NoError(t, err)
	assert.False(t, r.Valid)

	for _, p := range []float64{20, 5.5, 300} {
		_, err := s.Insert(ctx, catalog.Record{catalog.FieldPrice: catalog.FloatValue(p)})
		require.NoError(t, err)
	}
	r, err = s.NumericRange(ctx, catalog.FieldPrice)
	require.NoError(t, err)
	assert.Equal(t, catalog.Range{Min: 5.5, Max: 300, Valid: true}, r)

	_, err = s.NumericRange(ctx, catalog.FieldTitle)
	assert.Error(t, err)
}

func testIngest(t *testing.T, s catalog.ReadStore) {
	ctx := context.Background()
	r := &catalog.Reconciler{Store: s}

	first := "SKU,Title,Price,Category,Room Type\nA1,Desk,$100.00,Office,\"Office, Den\"\nA2,Lamp,15,Lighting,\n"
	out, err := r.IngestReader(ctx, strings.NewReader(first), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Inserted)

	second := "SKU,Price\nA1,90\nA3,12\n"
	out, err = r.IngestReader(ctx, strings.NewReader(second), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Inserted)

	hits, err := s.FindByKey(ctx, catalog.FieldSKU, catalog.TextValue("A1"), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 90.0, hits[0].Fields[catalog.FieldPrice].Float())
	assert.Equal(t, "Desk", hits[0].Fields[catalog.FieldTitle].Text())
	assert.Equal(t, []string{"Den", "Office"}, hits[0].Fields[catalog.FieldRoomType].Set())

	c := &catalog.Catalog{Store: s}
	facets, err := c.ListFacets(ctx, []catalog.Field{catalog.FieldRoomType, catalog.FieldCategory})
	require.NoError(t, err)
	assert.Equal(t, []string{"Den", "Office"}, facets[catalog.FieldRoomType])
	assert.Equal(t, []string{"Lighting", "Office"}, facets[catalog.FieldCategory])
}
