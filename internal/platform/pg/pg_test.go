package pg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizflow/internal/shared"
)

func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	return dsn
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want shared.Kind
	}{
		{"no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), shared.KindNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, shared.KindConflict},
		{"other pg", &pgconn.PgError{Code: "42P01"}, shared.KindDependencyFailure},
		{"plain", errors.New("conn refused"), shared.KindDependencyFailure},
		{"canceled", context.Canceled, shared.KindCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shared.KindOf(Classify(tt.err)))
			assert.ErrorIs(t, Classify(tt.err), tt.err)
		})
	}
	assert.NoError(t, Classify(nil))
}

func TestDefaultPoolOptions(t *testing.T) {
	opts := DefaultPoolOptions()
	assert.Equal(t, int32(20), opts.MaxConns)
	assert.Equal(t, int32(2), opts.MinConns)
}

func TestPing_NilPool(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestNewPool_BadDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "://bad", DefaultPoolOptions())
	assert.Error(t, err)
}

func TestIntegration_MigrateAndTx(t *testing.T) {
	dsn := testDSN(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"1_pg_probe.up.sql":   {Data: []byte("CREATE TABLE IF NOT EXISTS pg_probe (id BIGSERIAL PRIMARY KEY, v TEXT UNIQUE);")},
		"1_pg_probe.down.sql": {Data: []byte("DROP TABLE IF EXISTS pg_probe;")},
	}
	_, err := ApplyMigrations(dsn, fsys, ".")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn, DefaultPoolOptions())
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Ping(ctx, pool))

	runner := NewTxRunner(pool)
	boom := errors.New("boom")
	err = runner.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := runner.Querier(ctx).Exec(ctx, "INSERT INTO pg_probe (v) VALUES ('rolled-back')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM pg_probe WHERE v = 'rolled-back'").Scan(&n))
	assert.Zero(t, n)
}
