package catalog

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey reduces a category or facet string to its comparison key.
// "Home & Garden", "home and garden" and "Home  &  Gärden" share a key.
// Keys are never stored.
func NormalizeKey(s string) string {
	s = norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(s) + 8)
	pendingSpace := false
	flush := func() {
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
	}

	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			// combining marks and other non-ASCII remnants are dropped
		case r == '&':
			pendingSpace = true
			flush()
			b.WriteString("and")
			pendingSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flush()
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSpace = true
		}
	}

	return b.String()
}

// SplitFacets splits a comma-joined multi-value cell into distinct trimmed
// members, sorted. "Office, Living Room" yields ["Living Room", "Office"].
func SplitFacets(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// CollectFacets returns the sorted union of members across stored multi-value cells.
func CollectFacets(stored []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, cell := range stored {
		for _, m := range SplitFacets(cell) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out
}

// LabelPolicy decides which spelling represents a group of equivalent categories.
type LabelPolicy int

const (
	// LabelFirstSeen keeps the spelling of the first record in fetch order.
	LabelFirstSeen LabelPolicy = iota
	// LabelAlphabetical keeps the lexicographically smallest spelling.
	LabelAlphabetical
)

func (p LabelPolicy) String() string {
	if p == LabelAlphabetical {
		return "alphabetical"
	}
	return "first_seen"
}

// ParseLabelPolicy accepts "first_seen" or "alphabetical".
func ParseLabelPolicy(s string) (LabelPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first_seen", "first-seen", "first":
		return LabelFirstSeen, nil
	case "alphabetical", "alpha":
		return LabelAlphabetical, nil
	default:
		return 0, fmt.Errorf("unknown label policy %q", s)
	}
}

// Category is one group of category spellings sharing a key.
type Category struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Variants []string `json:"variants,omitempty"`
}

// CategoryIndex groups stored category strings by NormalizeKey.
type CategoryIndex struct {
	byKey map[string]*Category
	order []string
}

// NewCategoryIndex builds an index from stored values in fetch order.
// Values whose key is empty are ignored.
func NewCategoryIndex(stored []string, policy LabelPolicy) *CategoryIndex {
	idx := &CategoryIndex{byKey: make(map[string]*Category)}
	for _, raw := range stored {
		label := strings.TrimSpace(raw)
		key := NormalizeKey(label)
		if key == "" {
			continue
		}

		c, ok := idx.byKey[key]
		if !ok {
			c = &Category{Key: key, Label: label}
			idx.byKey[key] = c
			idx.order = append(idx.order, key)
		} else if policy == LabelAlphabetical && label < c.Label {
			c.Label = label
		}
		if !slices.Contains(c.Variants, label) {
			c.Variants = append(c.Variants, label)
		}
	}
	return idx
}

// Lookup finds the category any spelling of s belongs to.
func (idx *CategoryIndex) Lookup(s string) (Category, bool) {
	c, ok := idx.byKey[NormalizeKey(s)]
	if !ok {
		return Category{}, false
	}
	return *c, true
}

// Categories returns every category sorted by label.
func (idx *CategoryIndex) Categories() []Category {
	out := make([]Category, 0, len(idx.order))
	for _, k := range idx.order {
		out = append(out, *idx.byKey[k])
	}
	slices.SortFunc(out, func(a, b Category) int {
		return strings.Compare(a.Label, b.Label)
	})
	return out
}

// Labels returns the sorted display labels.
func (idx *CategoryIndex) Labels() []string {
	cats := idx.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Label
	}
	return out
}
