package catalog

import "context"

// Store is the catalog persistence the engine reads and writes through.
// Implementations must make each Insert and UpdateFields atomic on its own;
// the engine holds no locks across calls.
type Store interface {
	// FindByKey returns up to limit records whose field equals value exactly,
	// by ascending id. A limit of zero or less means no limit.
	FindByKey(ctx context.Context, field Field, value Value, limit int) ([]Product, error)

	// Insert creates a record from the present fields and returns its id.
	Insert(ctx context.Context, rec Record) (int64, error)

	// UpdateFields writes only the fields present in rec.
	// Returns ErrNotFound if id does not exist.
	UpdateFields(ctx context.Context, id int64, rec Record) error

	// ListDistinct returns the distinct non-empty stored values of field as
	// text, ordered by the id of the first record holding each value.
	ListDistinct(ctx context.Context, field Field) ([]string, error)
}

// Browser is the read side used for category pages and filter ranges.
type Browser interface {
	// ListByValues returns records whose field is one of values, by ascending id.
	ListByValues(ctx context.Context, field Field, values []string) ([]Product, error)

	// NumericRange returns the min and max of a numeric field.
	NumericRange(ctx context.Context, field Field) (Range, error)
}

// Range is the span of a numeric field. Valid is false when no record has a value.
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"-"`
}

// ReadStore is a Store that also supports browsing. Both SQL stores and
// the in-memory store implement it.
type ReadStore interface {
	Store
	Browser
}
