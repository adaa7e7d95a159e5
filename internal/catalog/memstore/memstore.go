// Package memstore provides in-memory catalog stores: a standalone store used
// by tests and the CLI, and an overlay that stages writes for dry runs.
package memstore

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// Store is a mutex-guarded map of products. Ids start at 1 and increase.
type Store struct {
	mu       sync.RWMutex
	products map[int64]catalog.Product
	order    []int64 // ids ascending; ids only grow and nothing is deleted
	nextID   int64

	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time
}

var _ catalog.ReadStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{products: make(map[int64]catalog.Product), nextID: 1}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// FindByKey returns up to limit products whose field equals value, by id.
// A limit of zero or less returns every hit.
func (s *Store) FindByKey(ctx context.Context, field catalog.Field, value catalog.Value, limit int) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []catalog.Product
	for _, id := range s.order {
		p := s.products[id]
		if v, ok := p.Fields[field]; ok && v.Equal(value) {
			hits = append(hits, clone(p))
			if limit > 0 && len(hits) == limit {
				break
			}
		}
	}
	return hits, nil
}

// Insert stores rec under a new id.
func (s *Store) Insert(ctx context.Context, rec catalog.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.products[id] = catalog.Product{ID: id, CreatedAt: s.now(), Fields: rec.Clone()}
	s.order = append(s.order, id)
	return id, nil
}

// UpdateFields merges the present fields of rec into product id.
func (s *Store) UpdateFields(ctx context.Context, id int64, rec catalog.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	fields := p.Fields.Clone()
	fields.Merge(rec)
	p.Fields = fields
	s.products[id] = p
	return nil
}

// ListDistinct returns distinct rendered values of field in first-seen id order.
func (s *Store) ListDistinct(ctx context.Context, field catalog.Field) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, id := range s.order {
		v, ok := s.products[id].Fields[field]
		if !ok {
			continue
		}
		text := v.String()
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out, nil
}

// ListByValues returns products whose rendered field value is in values.
func (s *Store) ListByValues(ctx context.Context, field catalog.Field, values []string) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Product
	for _, id := range s.order {
		p := s.products[id]
		if v, ok := p.Fields[field]; ok && slices.Contains(values, v.String()) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

// NumericRange returns the span of a float or integer field.
func (s *Store) NumericRange(ctx context.Context, field catalog.Field) (catalog.Range, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Range{}, err
	}
	switch field.Type() {
	case catalog.TypeFloat, catalog.TypeInteger:
	default:
		return catalog.Range{}, fmt.Errorf("field %s is not numeric", field)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r := catalog.Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range s.products {
		v, ok := p.Fields[field]
		if !ok {
			continue
		}
		n := v.Float()
		if v.Type() == catalog.TypeInteger {
			n = float64(v.Int())
		}
		r.Min = min(r.Min, n)
		r.Max = max(r.Max, n)
		r.Valid = true
	}
	if !r.Valid {
		return catalog.Range{}, nil
	}
	return r, nil
}

// Get returns product id.
func (s *Store) Get(id int64) (catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, false
	}
	return clone(p), true
}

// All returns every product by ascending id.
func (s *Store) All() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, len(s.order))
	for i, id := range s.order {
		out[i] = clone(s.products[id])
	}
	return out
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func clone(p catalog.Product) catalog.Product {
	p.Fields = p.Fields.Clone()
	return p
}
