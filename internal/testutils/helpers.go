package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/ngena/internal/logging"
	sqlstore "github.com/aretw0/ngena/pkg/adapters/sql"
	"github.com/stretchr/testify/require"
)

// SQLiteDSN returns the DSN of a fresh SQLite database file in a temporary directory.
func SQLiteDSN(t *testing.T) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "ngena.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// SetupTestRecords migrates a fresh SQLite database and opens a record store on it.
// The store is closed when the test ends. It fails the test immediately on error.
func SetupTestRecords(t *testing.T, opts ...sqlstore.Option) *sqlstore.Store {
	t.Helper()

	dsn := SQLiteDSN(t)
	require.NoError(t, sqlstore.Migrate(sqlstore.DriverSQLite, dsn, logging.NewNop()), "Failed to migrate records")

	records, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, dsn, opts...)
	require.NoError(t, err, "Failed to open records")
	t.Cleanup(func() { _ = records.Close() })

	return records
}
