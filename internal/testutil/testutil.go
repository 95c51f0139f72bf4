package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmoreira/flashdeck/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations
// applied, through the same Open path production uses.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, d.Close())
	})
	return d
}
