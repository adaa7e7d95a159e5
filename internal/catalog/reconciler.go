package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// RowProgress is reported after each data row.
type RowProgress struct {
	Row      int // 1-based index among data rows
	Total    int
	Inserted int
	Updated  int
	Skipped  int
}

// Reconciler merges uploaded rows into a Store.
//
// Rows are processed one at a time in upload order: each row is mapped,
// coerced, matched and then inserted or partially updated. Row failures are
// recorded as skips and never abort the batch.
type Reconciler struct {
	Store Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Progress, if set, is called after every row.
	Progress func(RowProgress)
}

// IngestReader parses r as CSV and ingests its rows.
func (rc *Reconciler) IngestReader(ctx context.Context, r io.Reader, fm *FieldMap, key MatchKey) (Outcome, error) {
	t, err := ReadTable(r)
	if err != nil {
		return Outcome{}, err
	}
	return rc.IngestTable(ctx, t, fm, key)
}

// IngestTable ingests a parsed upload, reporting skips by file line.
func (rc *Reconciler) IngestTable(ctx context.Context, t *Table, fm *FieldMap, key MatchKey) (Outcome, error) {
	if t == nil || isBlankRow(t.Header) {
		return Outcome{}, ErrNoHeader
	}
	return rc.run(ctx, t.RawRows(), t.line, fm, key)
}

// Ingest merges rows into the store. Row i is reported as line i+2.
//
// A cancelled ctx stops the batch between rows; the partial outcome is
// returned with ctx.Err(). Writes already made are kept.
func (rc *Reconciler) Ingest(ctx context.Context, rows []RawRow, fm *FieldMap, key MatchKey) (Outcome, error) {
	return rc.run(ctx, rows, func(i int) int { return i + 2 }, fm, key)
}

func (rc *Reconciler) run(ctx context.Context, rows []RawRow, lineOf func(int) int, fm *FieldMap, key MatchKey) (Outcome, error) {
	if len(rows) == 0 {
		return Outcome{}, ErrEmptyFile
	}
	if fm == nil {
		fm = DefaultFieldMap()
	}
	if len(key) == 0 {
		key = DefaultMatchKey()
	}
	log := rc.Logger
	if log == nil {
		log = slog.Default()
	}

	var (
		out     Outcome
		mapper  = newRowMapper(fm, key)
		matcher = Matcher{Store: rc.Store}
	)

	log.Info("ingest started", "rows", len(rows), "field_map", fm.Version(), "match_key", key.String())

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			log.Warn("ingest interrupted", "row", i+1, "error", err)
			return out, err
		}

		line := lineOf(i)
		if isBlankRawRow(row) {
			continue
		}
		out.Rows++

		rec, keyCell := mapper.coerce(row)
		switch {
		case len(rec) == 0 && keyCell:
			rc.skip(log, &out, line, ReasonNoData)
		case !key.Usable(rec):
			rc.skip(log, &out, line, ReasonNoMatchableKey)
		case !mapper.hasData(rec):
			rc.skip(log, &out, line, ReasonNoData)
		default:
			rc.apply(ctx, log, &out, line, rec, key, matcher)
		}

		if rc.Progress != nil {
			rc.Progress(RowProgress{
				Row:      i + 1,
				Total:    len(rows),
				Inserted: out.Inserted,
				Updated:  out.Updated,
				Skipped:  out.Skipped,
			})
		}
	}

	log.Info("ingest finished",
		"inserted", out.Inserted,
		"updated", out.Updated,
		"skipped", out.Skipped,
	)
	return out, nil
}

// apply matches rec and issues the insert or partial update.
func (rc *Reconciler) apply(ctx context.Context, log *slog.Logger, out *Outcome, line int, rec Record, key MatchKey, m Matcher) {
	res, err := m.Match(ctx, rec, key)
	if err != nil {
		rc.skip(log, out, line, err.Error())
		return
	}

	if res.Found {
		// ErrNotFound means the record vanished between match and update.
		if err := rc.Store.UpdateFields(ctx, res.ID, rec); err != nil {
			rc.skip(log, out, line, fmt.Sprintf("update %d: %v", res.ID, err))
			return
		}
		out.Updated++
		return
	}

	if res.Ambiguous {
		log.Debug("ambiguous match, inserting", "line", line, "field", res.Strategy)
	}
	if _, err := rc.Store.Insert(ctx, rec); err != nil {
		rc.skip(log, out, line, fmt.Sprintf("insert: %v", err))
		return
	}
	out.Inserted++
}

func (rc *Reconciler) skip(log *slog.Logger, out *Outcome, line int, reason string) {
	log.Debug("row skipped", "line", line, "reason", reason)
	out.skip(line, reason)
}

// rowMapper resolves headers once per batch and coerces rows.
type rowMapper struct {
	fm      *FieldMap
	keys    map[Field]bool
	columns map[string]column
}

type pick struct {
	priority int
	header   string
}

type column struct {
	field    Field
	priority int
	known    bool
}

func newRowMapper(fm *FieldMap, key MatchKey) *rowMapper {
	keys := make(map[Field]bool, len(key))
	for _, s := range key {
		keys[s.Field] = true
	}
	return &rowMapper{fm: fm, keys: keys, columns: make(map[string]column)}
}

func (m *rowMapper) column(header string) column {
	if c, ok := m.columns[header]; ok {
		return c
	}
	f, ok := m.fm.Normalize(header)
	c := column{field: f, priority: m.fm.priority(header), known: ok}
	m.columns[header] = c
	return c
}

// coerce builds the typed record for row. keyCell reports whether any
// match-key column held non-blank text, coerced or not.
func (m *rowMapper) coerce(row RawRow) (rec Record, keyCell bool) {
	rec = make(Record)
	chosen := make(map[Field]pick)

	for header, text := range row {
		c := m.column(header)
		if !c.known {
			continue
		}
		if m.keys[c.field] && strings.TrimSpace(text) != "" {
			keyCell = true
		}

		v, ok := Coerce(c.field, text)
		if !ok {
			continue
		}

		// Lower priority number wins; ties fall back to header text so the
		// result does not depend on map iteration order.
		if prev, exists := chosen[c.field]; exists {
			if prev.priority < c.priority || (prev.priority == c.priority && prev.header < header) {
				continue
			}
		}
		chosen[c.field] = pick{priority: c.priority, header: header}
		rec[c.field] = v
	}
	return rec, keyCell
}

// hasData reports whether rec holds a field outside the match key.
func (m *rowMapper) hasData(rec Record) bool {
	for f := range rec {
		if !m.keys[f] {
			return true
		}
	}
	return false
}

// CoerceRow maps and coerces a single row outside of a batch.
func CoerceRow(row RawRow, fm *FieldMap) Record {
	rec, _ := newRowMapper(fm, nil).coerce(row)
	return rec
}

func isBlankRawRow(row RawRow) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
