package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout used when a timestamp value is rendered as text.
const TimestampLayout = time.RFC3339

// Value is a typed field value. Only the accessor matching Type() is meaningful.
type Value struct {
	typ  FieldType
	text string
	num  float64
	i    int64
	b    bool
	t    time.Time
	set  []string
}

func TextValue(s string) Value { return Value{typ: TypeText, text: s} }
func FloatValue(f float64) Value { return Value{typ: TypeFloat, num: f} }
func IntValue(i int64) Value { return Value{typ: TypeInteger, i: i} }
func BoolValue(b bool) Value { return Value{typ: TypeBoolean, b: b} }
func TimeValue(t time.Time) Value { return Value{typ: TypeTimestamp, t: t.UTC()} }

// SetValue builds a text_set value. The members are de-duplicated and sorted.
func SetValue(members ...string) Value {
	set := slices.Clone(members)
	slices.Sort(set)
	return Value{typ: TypeTextSet, set: slices.Compact(set)}
}

func (v Value) Type() FieldType { return v.typ }
func (v Value) Text() string { return v.text }
func (v Value) Float() float64 { return v.num }
func (v Value) Int() int64 { return v.i }
func (v Value) Bool() bool { return v.b }
func (v Value) Time() time.Time { return v.t }
func (v Value) Set() []string { return slices.Clone(v.set) }

// String renders the value the way it is stored in text columns.
// text_set members are joined with ", ".
func (v Value) String() string {
	switch v.typ {
	case TypeText:
		return v.text
	case TypeFloat:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeTimestamp:
		return v.t.Format(TimestampLayout)
	case TypeTextSet:
		return strings.Join(v.set, ", ")
	default:
		return ""
	}
}

// Any returns the value as a plain Go value suitable for JSON or SQL arguments.
func (v Value) Any() any {
	switch v.typ {
	case TypeFloat:
		return v.num
	case TypeInteger:
		return v.i
	case TypeBoolean:
		return v.b
	case TypeTimestamp:
		return v.t
	case TypeTextSet:
		return v.Set()
	default:
		return v.text
	}
}

// Equal reports whether two values have the same type and content.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeFloat:
		return v.num == o.num
	case TypeInteger:
		return v.i == o.i
	case TypeBoolean:
		return v.b == o.b
	case TypeTimestamp:
		return v.t.Equal(o.t)
	case TypeTextSet:
		return slices.Equal(v.set, o.set)
	default:
		return v.text == o.text
	}
}

// Record holds the present fields of one product. A missing key means the
// field is absent, never a zero value.
type Record map[Field]Value

// Set stores v under f after checking that the types agree.
func (r Record) Set(f Field, v Value) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if f.Type() != v.Type() {
		return fmt.Errorf("field %s: %w: got %s, want %s", f, ErrTypeMismatch, v.Type(), f.Type())
	}
	r[f] = v
	return nil
}

// Has reports whether f is present.
func (r Record) Has(f Field) bool {
	_, ok := r[f]
	return ok
}

// Validate checks every value against its field's declared type.
func (r Record) Validate() error {
	for f, v := range r {
		if !f.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
		if f.Type() != v.Type() {
			return fmt.Errorf("field %s: %w", f, ErrTypeMismatch)
		}
	}
	return nil
}

// Fields returns the present fields in schema order.
func (r Record) Fields() []Field {
	out := make([]Field, 0, len(r))
	for _, d := range schema {
		if _, ok := r[d.field]; ok {
			out = append(out, d.field)
		}
	}
	return out
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for f, v := range r {
		out[f] = v
	}
	return out
}

// Merge overwrites r with every present field of patch.
func (r Record) Merge(patch Record) {
	for f, v := range patch {
		r[f] = v
	}
}

// Strings renders the record as field name to display text.
func (r Record) Strings() map[string]string {
	out := make(map[string]string, len(r))
	for f, v := range r {
		out[string(f)] = v.String()
	}
	return out
}

// Product is a persisted catalog record.
type Product struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Fields    Record    `json:"-"`
}

// Get returns the value of f, if present.
func (p Product) Get(f Field) (Value, bool) {
	v, ok := p.Fields[f]
	return v, ok
}
