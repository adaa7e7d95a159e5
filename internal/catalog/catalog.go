// Package catalog implements ingestion of product spreadsheets into a
// catalog store and the facet reads built on the same normalization rules.
//
// An upload flows through four steps per row:
//
//  1. headers are resolved to canonical fields by a FieldMap
//  2. cells are coerced to typed values; unparseable cells become absent
//  3. a MatchKey decides whether the row updates an existing record
//  4. the Reconciler inserts or partially updates through a Store
//
// Reads go through Catalog, which lists filter options and groups categories
// whose spellings differ only in case, accents or punctuation.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Catalog serves facet and category reads.
type Catalog struct {
	Store  ReadStore
	Policy LabelPolicy
}

// ListFacets returns, for each requested field, its sorted filter options.
// Multi-value fields list their distinct members. Text fields list one
// label per normalized key.
func (c *Catalog) ListFacets(ctx context.Context, fields []Field) (map[Field][]string, error) {
	for _, f := range fields {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[Field][]string, len(fields))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, f := range fields {
		g.Go(func() error {
			stored, err := c.Store.ListDistinct(gctx, f)
			if err != nil {
				return fmt.Errorf("list %s: %w", f, err)
			}

			var values []string
			if f.Type() == TypeTextSet {
				values = CollectFacets(stored)
			} else {
				values = NewCategoryIndex(stored, c.Policy).Labels()
			}
			if values == nil {
				values = []string{}
			}

			mu.Lock()
			out[f] = values
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterOptions lists every facet field plus the price range.
type FilterOptions struct {
	Facets     map[Field][]string `json:"facets"`
	PriceRange Range              `json:"price_range"`
}

// FilterOptions returns the data behind the catalog filter sidebar.
func (c *Catalog) FilterOptions(ctx context.Context) (FilterOptions, error) {
	facets, err := c.ListFacets(ctx, FacetFields())
	if err != nil {
		return FilterOptions{}, err
	}
	r, err := c.Store.NumericRange(ctx, FieldPrice)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("price range: %w", err)
	}
	return FilterOptions{Facets: facets, PriceRange: r}, nil
}

// Categories returns every category grouped by normalized key.
func (c *Catalog) Categories(ctx context.Context) ([]Category, error) {
	idx, err := c.categoryIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Categories(), nil
}

// ProductsInCategory returns the products of the category that name
// normalizes into, whichever spelling the caller used.
func (c *Catalog) ProductsInCategory(ctx context.Context, name string) (Category, []Product, error) {
	idx, err := c.categoryIndex(ctx)
	if err != nil {
		return Category{}, nil, err
	}
	cat, ok := idx.Lookup(name)
	if !ok {
		return Category{}, nil, fmt.Errorf("category %q: %w", name, ErrUnknownCategory)
	}
	products, err := c.Store.ListByValues(ctx, FieldCategory, cat.Variants)
	if err != nil {
		return Category{}, nil, fmt.Errorf("list category products: %w", err)
	}
	return cat, products, nil
}

func (c *Catalog) categoryIndex(ctx context.Context) (*CategoryIndex, error) {
	stored, err := c.Store.ListDistinct(ctx, FieldCategory)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return NewCategoryIndex(stored, c.Policy), nil
}
