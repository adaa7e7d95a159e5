package catalog

import "errors"

var (
	// ErrEmptyFile is returned when an upload contains no bytes or no rows.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoHeader is returned when the first row of an upload has no column names.
	ErrNoHeader = errors.New("missing header row")

	// ErrNotFound is returned by stores when an update targets a missing record.
	ErrNotFound = errors.New("record not found")

	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownCategory = errors.New("unknown category")
	ErrTypeMismatch    = errors.New("type mismatch")
)

// Skip reasons recorded in an Outcome.
const (
	ReasonNoMatchableKey = "no matchable key"
	ReasonNoData         = "no data to apply"
)
