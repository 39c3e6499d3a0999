package database

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type nopLogger struct{}

func (*nopLogger) Printf(_ string, _ ...any) {}

var _ tclog.Logger = (*nopLogger)(nil)

var (
	dbName = "feedrelay"
	dbUser = "feedrelay"
	dbPass = "feedrelay"
)

// TestTables are the table names used by SetupTestDB.
var TestTables = Tables{
	Items:         "posts",
	Checkpoint:    "max_post_number",
	Subscriptions: "channels",
}

// SetupTestDB starts a Postgres container, applies the schema and returns a
// pool. The container is removed when the test finishes.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, Tables) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPass),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(&nopLogger{}),
	)
	tc.CleanupContainer(t, container)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool, TestTables))
	// Applying twice must be harmless.
	require.NoError(t, EnsureSchema(ctx, pool, TestTables))

	return pool, TestTables
}
