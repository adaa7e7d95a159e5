// Package postgres stores the catalog in a PostgreSQL products table via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/store/sqlbuild"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store implements catalog.ReadStore on PostgreSQL.
type Store struct {
	db      DBTX
	dialect sqlbuild.Dialect

	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

var _ catalog.ReadStore = (*Store)(nil)

// New wraps an open connection or pool.
func New(db DBTX) *Store {
	return &Store{db: db, dialect: sqlbuild.Postgres}
}

// PoolConfig tunes the connection pool. Zero values keep pgx defaults.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the products table if needed and records the schema version.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.DDL() {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	q, args := s.dialect.SetMeta("schema_version", catalog.SchemaVersion)
	if _, err := s.db.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// SchemaVersion returns the recorded schema version.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	q, args := s.dialect.GetMeta("schema_version")
	var v string
	if err := s.db.QueryRow(ctx, q, args...).Scan(&v); err != nil {
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
	if err := s.db.QueryRow(ctx, q, args...).Scan(&id); err != nil {
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
		err := s.db.QueryRow(ctx, q, args...).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
		}
		return err
	}

	q, args := s.dialect.Update(id, rec)
	tag, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return nil
}

func (s *Store) ListDistinct(ctx context.Context, field catalog.Field) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownField, field)
	}
	rows, err := s.db.Query(ctx, sqlbuild.Distinct(field))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", field, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		v, ok, err := s.dialect.Decode(field, vals[0])
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
	if err := s.db.QueryRow(ctx, q).Scan(&lo, &hi); err != nil {
		return catalog.Range{}, fmt.Errorf("range of %s: %w", field, err)
	}
	return sqlbuild.ScanRange(lo, hi)
}

func (s *Store) queryProducts(ctx context.Context, q string, args []any, keep func(catalog.Product) bool) ([]catalog.Product, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
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
