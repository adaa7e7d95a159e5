// Package sqlite stores the catalog in a single SQLite file using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/store/sqlbuild"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Store implements catalog.ReadStore on SQLite.
type Store struct {
	db      *sql.DB
	dialect sqlbuild.Dialect

	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

var _ catalog.ReadStore = (*Store)(nil)

// New wraps an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db, dialect: sqlbuild.SQLite}
}

// Open opens the database file at path, sets the busy timeout and verifies
// the connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	pragma := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if strings.Contains(dsn, "?") {
		dsn += "&" + pragma
	} else {
		dsn += "?" + pragma
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

// EnsureSchema creates the products table if needed and records the schema version.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.DDL() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	_, _ = s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = s.db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

	q, args := s.dialect.SetMeta("schema_version", catalog.SchemaVersion)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// SchemaVersion returns the recorded schema version.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	q, args := s.dialect.GetMeta("schema_version")
	var v string
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&v); err != nil {
		return "", fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) FindByKey(ctx context.Context, field catalog.Field, value catalog.Value, limit int) ([]catalog.Product, error) {
	q, args := s.dialect.FindByKey(field, value, limit)
	return s.queryProducts(ctx, q, args, nil)
}

func (s *Store) Insert(ctx context.Context, rec catalog.Record) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	q, args := s.dialect.Insert(rec, s.now())
	var id int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateFields(ctx context.Context, id int64, rec catalog.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if len(rec) == 0 {
		q, args := s.dialect.Exists(id)
		var one int
		err := s.db.QueryRowContext(ctx, q, args...).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
		}
		return err
	}

	q, args := s.dialect.Update(id, rec)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return nil
}

func (s *Store) ListDistinct(ctx context.Context, field catalog.Field) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownField, field)
	}
	rows, err := s.db.QueryContext(ctx, sqlbuild.Distinct(field))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", field, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, ok, err := s.dialect.Decode(field, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v.String())
		}
	}
	return out, rows.Err()
}

func (s *Store) ListByValues(ctx context.Context, field catalog.Field, values []string) ([]catalog.Product, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownField, field)
	}
	q, args, filtered := s.dialect.ByValues(field, values)
	if q == "" {
		return nil, nil
	}
	var keep func(catalog.Product) bool
	if !filtered {
		keep = func(p catalog.Product) bool {
			v, ok := p.Get(field)
			return ok && slices.Contains(values, v.String())
		}
	}
	return s.queryProducts(ctx, q, args, keep)
}

func (s *Store) NumericRange(ctx context.Context, field catalog.Field) (catalog.Range, error) {
	q, err := sqlbuild.Range(field)
	if err != nil {
		return catalog.Range{}, err
	}
	var lo, hi any
	if err := s.db.QueryRowContext(ctx, q).Scan(&lo, &hi); err != nil {
		return catalog.Range{}, fmt.Errorf("range of %s: %w", field, err)
	}
	return sqlbuild.ScanRange(lo, hi)
}

func (s *Store) queryProducts(ctx context.Context, q string, args []any, keep func(catalog.Product) bool) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	n := len(sqlbuild.Columns())
	var out []catalog.Product
	for rows.Next() {
		vals := make([]any, n)
		dest := make([]any, n)
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		p, err := s.dialect.Product(vals)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	return out, rows.Err()
}
