package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Strategy looks up existing records by exact equality on one field.
// A strategy whose field is absent from the incoming record is skipped.
type Strategy struct {
	Field Field
}

// MatchKey is an ordered list of strategies; the first unique hit wins.
type MatchKey []Strategy

// DefaultMatchKey matches on the identifier code, then on the title.
func DefaultMatchKey() MatchKey {
	return MatchKey{{Field: FieldSKU}, {Field: FieldTitle}}
}

// ParseMatchKey parses a comma-separated list of text fields, e.g. "sku,title".
func ParseMatchKey(s string) (MatchKey, error) {
	var key MatchKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, ok := LookupField(part)
		if !ok {
			return nil, fmt.Errorf("match key: %w: %q", ErrUnknownField, part)
		}
		if f.Type() != TypeText {
			return nil, fmt.Errorf("match key: field %s is %s, want text", f, f.Type())
		}
		key = append(key, Strategy{Field: f})
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("match key: no fields")
	}
	return key, nil
}

// Fields returns the key fields in priority order.
func (k MatchKey) Fields() []Field {
	out := make([]Field, len(k))
	for i, s := range k {
		out[i] = s.Field
	}
	return out
}

func (k MatchKey) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = string(s.Field)
	}
	return strings.Join(parts, ",")
}

// Usable reports whether rec carries at least one key field.
func (k MatchKey) Usable(rec Record) bool {
	for _, s := range k {
		if rec.Has(s.Field) {
			return true
		}
	}
	return false
}

// MatchResult describes how a record was matched.
type MatchResult struct {
	ID        int64
	Found     bool
	Strategy  Field // strategy that decided the result, if any
	Ambiguous bool
}

// Matcher resolves incoming records to existing catalog records.
type Matcher struct {
	Store Store
}

// Match evaluates the key's strategies in order. The first strategy with
// exactly one hit matches. A strategy with two or more hits stops
// evaluation with no match; later strategies are not consulted.
func (m Matcher) Match(ctx context.Context, rec Record, key MatchKey) (MatchResult, error) {
	for _, s := range key {
		v, ok := rec[s.Field]
		if !ok {
			continue
		}
		if v.Type() == TypeText && strings.TrimSpace(v.Text()) == "" {
			continue
		}

		hits, err := m.Store.FindByKey(ctx, s.Field, v, 2)
		if err != nil {
			return MatchResult{}, fmt.Errorf("find by %s: %w", s.Field, err)
		}

		switch len(hits) {
		case 0:
			continue
		case 1:
			return MatchResult{ID: hits[0].ID, Found: true, Strategy: s.Field}, nil
		default:
			return MatchResult{Strategy: s.Field, Ambiguous: true}, nil
		}
	}
	return MatchResult{}, nil
}
