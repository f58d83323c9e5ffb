package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auditmagic/internal/db"
)

func TestListTransactionsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	tickClock(t)

	desk := mustType(t, database, "Desk", "", false)
	chair := mustType(t, database, "Chair", "", false)

	deskItem, err := CreateItem(ctx, database, NewItem{ItemTypeID: desk.ID, Quantity: 5})
	require.NoError(t, err)
	mid := now()
	_, err = CreateItem(ctx, database, NewItem{ItemTypeID: chair.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = AddQuantity(ctx, database, deskItem.ID, 1, "", nil)
	require.NoError(t, err)

	all, err := ListTransactions(ctx, database, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, !all[0].CreatedAt.Before(all[1].CreatedAt), "newest first")

	deskOnly, err := ListTransactions(ctx, database, TransactionFilter{TypeIDs: []int64{desk.ID}})
	require.NoError(t, err)
	assert.Len(t, deskOnly, 2)

	after, err := ListTransactions(ctx, database, TransactionFilter{From: mid})
	require.NoError(t, err)
	assert.Len(t, after, 2)

	before, err := ListTransactions(ctx, database, TransactionFilter{To: mid})
	require.NoError(t, err)
	assert.Len(t, before, 1)

	recent, err := ListRecentTransactions(ctx, database, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Desk", recent[0].TypeName)

	window, err := ListTransactionsForType(ctx, database, desk.ID, mid, time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestTransactionRecordsUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "clerk", "hash", "manager")
	require.NoError(t, err)

	desk := mustType(t, database, "Desk", "", false)
	_, err = CreateItem(ctx, database, NewItem{ItemTypeID: desk.ID, Quantity: 1, CreatedBy: &user.ID})
	require.NoError(t, err)

	txs := typeTransactions(t, database, desk.ID)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].CreatedBy)
	assert.Equal(t, user.ID, *txs[0].CreatedBy)
}
