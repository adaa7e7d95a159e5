// Package store opens the catalog store selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/config"
	"github.com/JoeyNPP/Furniture-Site/internal/store/postgres"
	"github.com/JoeyNPP/Furniture-Site/internal/store/sqlite"
)

// Opened is a ready catalog store and the function that releases it.
type Opened struct {
	Store catalog.ReadStore
	Close func()
}

// Open connects to the configured driver and makes sure the products table
// exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Opened, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			URL:             cfg.URL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		st := postgres.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("connected to database", "driver", config.DriverPostgres, "database", pool.Config().ConnConfig.Database)
		return &Opened{Store: st, Close: pool.Close}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		st := sqlite.New(db)
		if err := st.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("opened database", "driver", config.DriverSQLite, "path", cfg.SQLitePath)
		return &Opened{Store: st, Close: func() { db.Close() }}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
