package memstore

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// stagedIDBase keeps staged ids above any id a real store will hand out.
const stagedIDBase = math.MaxInt64 / 2

// Overlay stages writes in memory on top of a read-only base store.
// Rows later in a dry run see the inserts and updates of earlier rows, so a
// preview reports the same outcome a real run would.
//
// The Store contract has no lookup by id, so UpdateFields accepts only base
// ids that FindByKey has returned; any other id is ErrNotFound, as it would
// be for a product missing from a real store.
type Overlay struct {
	base catalog.Store

	mu      sync.Mutex
	staged  *Store
	patches map[int64]catalog.Record
	known   map[int64]bool
}

var _ catalog.Store = (*Overlay)(nil)

// NewOverlay wraps base. Nothing is ever written to base.
func NewOverlay(base catalog.Store) *Overlay {
	staged := New()
	staged.nextID = stagedIDBase
	return &Overlay{
		base:    base,
		staged:  staged,
		patches: make(map[int64]catalog.Record),
		known:   make(map[int64]bool),
	}
}

// FindByKey merges base hits, as patched, with staged inserts.
func (o *Overlay) FindByKey(ctx context.Context, field catalog.Field, value catalog.Value, limit int) ([]catalog.Product, error) {
	baseHits, err := o.base.FindByKey(ctx, field, value, 0)
	if err != nil {
		return nil, err
	}
	stagedHits, err := o.staged.FindByKey(ctx, field, value, 0)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var hits []catalog.Product
	seen := make(map[int64]bool)
	for _, p := range baseHits {
		o.known[p.ID] = true
		if patch, ok := o.patches[p.ID]; ok {
			p.Fields = p.Fields.Clone()
			p.Fields.Merge(patch)
			if v, ok := p.Fields[field]; !ok || !v.Equal(value) {
				continue
			}
		}
		seen[p.ID] = true
		hits = append(hits, p)
	}
	// Base records that only match after a staged update.
	for id, patch := range o.patches {
		if seen[id] {
			continue
		}
		if v, ok := patch[field]; ok && v.Equal(value) {
			hits = append(hits, catalog.Product{ID: id, Fields: patch.Clone()})
		}
	}
	hits = append(hits, stagedHits...)

	slices.SortFunc(hits, func(a, b catalog.Product) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Insert stages a new record.
func (o *Overlay) Insert(ctx context.Context, rec catalog.Record) (int64, error) {
	return o.staged.Insert(ctx, rec)
}

// UpdateFields stages a partial update.
func (o *Overlay) UpdateFields(ctx context.Context, id int64, rec catalog.Record) error {
	if id >= stagedIDBase {
		return o.staged.UpdateFields(ctx, id, rec)
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("stage update %d: %w", id, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.known[id] {
		return fmt.Errorf("stage update: product %d: %w", id, catalog.ErrNotFound)
	}
	patch, ok := o.patches[id]
	if !ok {
		patch = make(catalog.Record)
		o.patches[id] = patch
	}
	patch.Merge(rec)
	return nil
}

// ListDistinct reads from the base store only.
func (o *Overlay) ListDistinct(ctx context.Context, field catalog.Field) ([]string, error) {
	return o.base.ListDistinct(ctx, field)
}

// Staged returns the records a commit would insert.
func (o *Overlay) Staged() []catalog.Product {
	return o.staged.All()
}

// Patches returns the number of base records a commit would update.
func (o *Overlay) Patches() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.patches)
}

// PatchSet returns a copy of the staged updates keyed by base record id.
func (o *Overlay) PatchSet() map[int64]catalog.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[int64]catalog.Record, len(o.patches))
	for id, patch := range o.patches {
		out[id] = patch.Clone()
	}
	return out
}
