package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sessiondeck/folderdeck/internal/database"
)

var dbCounter atomic.Int64

// MustOpenTestDB opens an isolated in-memory SQLite database for tests. The
// connection is closed via t.Cleanup.
func MustOpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database keeps all pooled connections on the
	// same store while staying isolated from other tests.
	dsn := fmt.Sprintf("file:testdb-%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := database.Open(database.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, database.Close(db))
	})

	return db
}
