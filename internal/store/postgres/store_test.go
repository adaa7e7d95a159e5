package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/store/storetest"
)

// TestStoreContract runs against CATALOG_TEST_DATABASE_URL. Each subtest
// truncates the products table, so point it at a scratch database.
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("CATALOG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CATALOG_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, PoolConfig{URL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	storetest.Run(t, func(t *testing.T) catalog.ReadStore {
		_, err := pool.Exec(ctx, "TRUNCATE products RESTART IDENTITY")
		require.NoError(t, err)
		return s
	})
}
