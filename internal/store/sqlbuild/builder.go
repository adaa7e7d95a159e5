// Package sqlbuild holds the SQL shared by the postgres and sqlite catalog
// stores: placeholder numbering, identifier quoting, the products table
// layout and the conversion between catalog values and column values.
package sqlbuild

import (
	"strconv"
	"strings"
)

// PlaceholderStyle selects how bind parameters are written.
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

// Builder collects bind arguments and hands out their placeholders.
type Builder struct {
	Style PlaceholderStyle
	args  []any
}

func New(style PlaceholderStyle) *Builder {
	return &Builder{Style: style, args: make([]any, 0)}
}

// Arg records v and returns the placeholder that refers to it.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	if b.Style == PlaceholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// List records every value and returns the comma separated placeholders.
func (b *Builder) List(vs []any) string {
	ph := make([]string, len(vs))
	for i, v := range vs {
		ph[i] = b.Arg(v)
	}
	return strings.Join(ph, ", ")
}

func (b *Builder) Args() []any { return b.args }
func (b *Builder) Len() int    { return len(b.args) }

// QuoteIdentifier quotes a SQL identifier. Embedded quotes are doubled.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
