package core

// streaming.go holds the readers an upload passes through before parsing:
// a size guard that fails once the configured limit is crossed, and a
// counter that the progress broadcaster samples while the table is parsed.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// ErrNoFile is returned when a request carries no upload.
var ErrNoFile = errors.New("no file provided")

// CountingReader wraps an io.Reader and counts the bytes read. BytesRead may
// be called from another goroutine while reads are in flight.
type CountingReader struct {
	reader io.Reader
	read   atomic.Int64
	Total  int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (r *CountingReader) BytesRead() int64 { return r.read.Load() }

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead() * 100 / r.Total)
}

// readLimited reads all of r, failing with ErrFileTooLarge as soon as more
// than limit bytes arrive. A limit of zero or less disables the check.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if limit <= 0 {
		return io.ReadAll(r)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return buf.Bytes(), nil
}
