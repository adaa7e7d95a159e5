package web

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// handleHealth reports liveness and batch slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.service.LimiterStatus(),
	})
}

// FieldInfo describes one canonical field for upload tooling.
type FieldInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Facet   bool     `json:"facet"`
	Aliases []string `json:"aliases"`
}

// handleFields lists the schema and the header aliases accepted for each field.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	fm := s.service.FieldMap()
	fields := make([]FieldInfo, 0, len(catalog.Fields()))
	for _, f := range catalog.Fields() {
		aliases := fm.Aliases(f)
		if aliases == nil {
			aliases = []string{}
		}
		fields = append(fields, FieldInfo{
			Name:    string(f),
			Type:    f.Type().String(),
			Facet:   f.IsFacet(),
			Aliases: aliases,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schema_version":    catalog.SchemaVersion,
		"field_map_version": fm.Version(),
		"match_key":         s.service.MatchKey().String(),
		"fields":            fields,
	})
}

// handleFacets lists filter options for ?field=a&field=b, or for every facet
// field when none is given.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["field"]
	fields := catalog.FacetFields()
	if len(names) > 0 {
		fields = fields[:0:0]
		for _, name := range names {
			f, ok := catalog.LookupField(name)
			if !ok {
				s.respondError(w, r, fmt.Errorf("%w: %q", catalog.ErrUnknownField, name))
				return
			}
			fields = append(fields, f)
		}
	}

	facets, err := s.service.Catalog().ListFacets(r.Context(), fields)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

// handleFilters returns every facet plus the price range.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.Catalog().FilterOptions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var priceRange any
	if opts.PriceRange.Valid {
		priceRange = opts.PriceRange
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"facets":      opts.Facets,
		"price_range": priceRange,
	})
}

// handleCategories lists categories as {key, label}.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.Catalog().Categories(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	type entry struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}
	out := make([]entry, len(cats))
	for i, c := range cats {
		out[i] = entry{Key: c.Key, Label: c.Label}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCategoryProducts lists the products of a category under any of its
// spellings.
func (s *Server) handleCategoryProducts(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "category"))
	if err != nil {
		name = chi.URLParam(r, "category")
	}

	cat, products, err := s.service.Catalog().ProductsInCategory(r.Context(), name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	views := make([]map[string]any, len(products))
	for i, p := range products {
		views[i] = productView(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": map[string]string{"key": cat.Key, "label": cat.Label},
		"products": views,
	})
}

// productView flattens a product into JSON-ready values keyed by field name.
func productView(p catalog.Product) map[string]any {
	out := make(map[string]any, len(p.Fields)+2)
	out["id"] = p.ID
	out["created_at"] = p.CreatedAt.Format(time.RFC3339)
	for f, v := range p.Fields {
		out[string(f)] = v.Any()
	}
	return out
}
