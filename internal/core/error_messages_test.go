package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"wrapped empty file", fmt.Errorf("ingest: %w", catalog.ErrEmptyFile), "FILE005"},
		{"missing header", catalog.ErrNoHeader, "FILE006"},
		{"file too large sentinel", fmt.Errorf("%w: 200MB", ErrFileTooLarge), "FILE001"},
		{"csv parse error", errors.New("invalid csv: record on line 3: bare quote"), "FILE002"},
		{"encoding error", errors.New("encoding error: short write"), "FILE003"},
		{"no file", ErrNoFile, "FILE004"},
		{"busy", ErrTooManyUploads, "UPL002"},
		{"expired upload", fmt.Errorf("%w: abc", ErrUploadNotFound), "UPL003"},
		{"cancelled", context.Canceled, "UPL001"},
		{"deadline", fmt.Errorf("find by sku: %w", context.DeadlineExceeded), "UPL005"},
		{"duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"unique constraint", errors.New("UNIQUE constraint failed: products.sku"), "DB002"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), "DB004"},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB008"},
		{"unknown field", fmt.Errorf("%w: shoe_size", catalog.ErrUnknownField), "CAT001"},
		{"unknown category", fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, "Kitchen"), "CAT002"},
		{"match key type", errors.New("match key: field price is float, want text"), "CAT003"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
		{"case insensitive matching", errors.New("DUPLICATE KEY value"), "DB001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(catalog.ErrEmptyFile)

	expected := "The uploaded file has no data rows (Code: FILE005). Please upload a CSV file with a header and at least one row"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrTooManyUploads, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("read upload: %w", catalog.ErrNoHeader)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The first row of the file is blank" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, catalog.ErrNoHeader) {
			t.Error("Unwrap() should expose the original error")
		}
		if got := MapError(fmt.Errorf("outer: %w", userErr)); got.Code != "FILE006" {
			t.Errorf("MapError(wrapped UserError) code = %q, want FILE006", got.Code)
		}
	})
}
