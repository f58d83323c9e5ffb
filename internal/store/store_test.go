package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/auditmagic/internal/model"
)

// tickClock makes every call to now one second later than the last.
func tickClock(t *testing.T) {
	t.Helper()
	orig := now
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	t.Cleanup(func() { now = orig })
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

// requireItemInvariant checks the bulk/serialized shape of every item row.
func requireItemInvariant(t *testing.T, database *sql.DB) {
	t.Helper()
	var bad int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM items
		 WHERE NOT ((serial_number IS NULL AND quantity > 0) OR (serial_number IS NOT NULL AND quantity = 1))`,
	).Scan(&bad))
	require.Zero(t, bad)
}

func mustType(t *testing.T, database *sql.DB, name, subType string, serialized bool) *model.ItemType {
	t.Helper()
	it, err := GetOrCreateItemType(context.Background(), database, name, subType, serialized, "")
	require.NoError(t, err)
	return it
}

func typeTransactions(t *testing.T, database *sql.DB, typeID int64) []model.Transaction {
	t.Helper()
	txs, err := ListTransactionsForType(context.Background(), database, typeID, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	return txs
}
