package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawRow maps an upload's header text to the cell text of one row.
type RawRow map[string]string

// Table is a parsed upload: a header row and its data rows.
type Table struct {
	Header []string
	Rows   [][]string

	// Lines holds the file line each row starts on.
	Lines []int
}

// ReadTable parses comma-separated input. The input may be UTF-8 with or
// without a byte-order mark; anything that is not valid UTF-8 is decoded as
// Latin-1. Ragged rows and stray quotes are tolerated.
func ReadTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("encoding error: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := &Table{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if t.Header == nil {
			if isBlankRow(rec) {
				return nil, ErrNoHeader
			}
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
		t.Lines = append(t.Lines, line)
	}

	if t.Header == nil {
		return nil, ErrEmptyFile
	}
	return t, nil
}

// RawRows converts the data rows to header-keyed maps. Columns without a
// header are dropped. When a header repeats, the first non-blank cell wins.
func (t *Table) RawRows() []RawRow {
	out := make([]RawRow, len(t.Rows))
	for i, rec := range t.Rows {
		row := make(RawRow, len(t.Header))
		for col, h := range t.Header {
			if strings.TrimSpace(h) == "" || col >= len(rec) {
				continue
			}
			if prev, ok := row[h]; ok && strings.TrimSpace(prev) != "" {
				continue
			}
			row[h] = rec[col]
		}
		out[i] = row
	}
	return out
}

// line returns the file line of row i.
func (t *Table) line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
