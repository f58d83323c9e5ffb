package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auditmagic/internal/db"
	"github.com/erazemk/auditmagic/internal/metrics"
	"github.com/erazemk/auditmagic/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(db.NewTestDB(t), metrics.New(), true)
}

func TestCreateItemCreatesType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Desk", Quantity: 5, Location: "Office"})
	require.NoError(t, err)
	assert.Equal(t, "Desk", item.TypeName)
	assert.Equal(t, 5, item.Quantity)
	assert.False(t, item.IsSerialized)

	types, err := store.ListItemTypes(ctx, svc.DB)
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestCreateSerializedThroughService(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, sn := range []string{"SN-001", "SN-002"} {
		_, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true, SerialNumber: sn})
		require.NoError(t, err)
	}

	txs, err := store.ListRecentTransactions(ctx, svc.DB, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	var afters []int
	for _, tx := range txs {
		afters = append(afters, tx.QuantityAfter)
	}
	assert.ElementsMatch(t, []int{1, 2}, afters)

	_, err = svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true, SerialNumber: "SN-003", Quantity: 3})
	assert.True(t, store.IsValidation(err))
}

func TestCreateItemConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true, SerialNumber: "SN-1"})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", Quantity: 2})
	require.Error(t, err)
	assert.True(t, store.IsConflict(err))

	expected := `
# HELP auditmagic_inventory_mutations_total Inventory mutations by operation and result.
# TYPE auditmagic_inventory_mutations_total counter
auditmagic_inventory_mutations_total{op="create_item",result="conflict"} 1
auditmagic_inventory_mutations_total{op="create_item",result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(svc.Metrics.Registry(), strings.NewReader(expected),
		"auditmagic_inventory_mutations_total"))
}

func TestRejectedCreateLeavesNoType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true})
	require.EqualError(t, err, "Serial number required for serialized items")

	types, err := store.ListItemTypes(ctx, svc.DB)
	require.NoError(t, err)
	assert.Empty(t, types)

	item, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", Quantity: 3})
	require.NoError(t, err)
	assert.False(t, item.IsSerialized)
	assert.Equal(t, 3, item.Quantity)
}

func TestRejectedMergeAndEditLeaveNoType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CreateOrMergeItem(ctx, CreateRequest{TypeName: "Chair"})
	require.True(t, store.IsValidation(err))

	desk, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Desk", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.EditItem(ctx, EditRequest{
		ItemID:       desk.ID,
		TypeName:     "Monitor",
		IsSerialized: true,
		Quantity:     2,
		Reason:       "relabel",
	})
	require.True(t, store.IsValidation(err))

	types, err := store.ListItemTypes(ctx, svc.DB)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "Desk", types[0].Name)
}

func TestCreateOrMergeItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, merged, err := svc.CreateOrMergeItem(ctx, CreateRequest{TypeName: "Chair", Quantity: 4})
	require.NoError(t, err)
	assert.False(t, merged)

	second, merged, err := svc.CreateOrMergeItem(ctx, CreateRequest{TypeName: "Chair", Quantity: 6})
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 10, second.Quantity)

	txs, err := store.ListRecentTransactions(ctx, svc.DB, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, MergedNote, txs[0].Notes)
	assert.Equal(t, 4, txs[0].QuantityBefore)
	assert.Equal(t, 10, txs[0].QuantityAfter)
}

func TestCreateOrMergeSerializedNeverMerges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, merged, err := svc.CreateOrMergeItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true, SerialNumber: "A"})
	require.NoError(t, err)
	assert.False(t, merged)
	_, merged, err = svc.CreateOrMergeItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true, SerialNumber: "B"})
	require.NoError(t, err)
	assert.False(t, merged)

	items, err := store.ListItems(ctx, svc.DB)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestEditItemResolvesType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Desk", Quantity: 5})
	require.NoError(t, err)

	edited, err := svc.EditItem(ctx, EditRequest{
		ItemID:   item.ID,
		TypeName: "Desk",
		SubType:  "Standing",
		Quantity: 7,
		Reason:   "recount",
	})
	require.NoError(t, err)
	assert.Equal(t, "Standing", edited.SubType)
	assert.Equal(t, 7, edited.Quantity)

	_, err = svc.EditItem(ctx, EditRequest{ItemID: item.ID, TypeName: "Desk", Quantity: 1})
	assert.EqualError(t, err, "Edit reason is required")

	missing, err := svc.EditItem(ctx, EditRequest{ItemID: 999, TypeName: "Desk", Quantity: 1, Reason: "x"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRemoveQuantityJoinsType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Cable", Quantity: 3})
	require.NoError(t, err)

	got, err := svc.RemoveQuantity(ctx, item.ID, 3, "used", nil)
	require.NoError(t, err)
	assert.Equal(t, "Cable", got.TypeName)
	assert.Equal(t, 0, got.Quantity)
}

func TestDeleteItemTypeReportsItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, sn := range []string{"A", "B"} {
		_, err := svc.CreateItem(ctx, CreateRequest{TypeName: "Laptop", IsSerialized: true, SerialNumber: sn})
		require.NoError(t, err)
	}
	unit, err := svc.GetItemBySerial(ctx, "B")
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.Equal(t, "Laptop", unit.TypeName)

	n, found, err := svc.DeleteItemType(ctx, unit.ItemTypeID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, n)

	n, found, err = svc.DeleteItemType(ctx, unit.ItemTypeID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, n)

	missing, err := svc.GetItemBySerial(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateItemTypeDuplicateCountsAsConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItemType(ctx, store.TypeSpec{Name: "Desk"})
	require.NoError(t, err)
	_, err = svc.CreateItemType(ctx, store.TypeSpec{Name: "Desk"})
	require.True(t, store.IsDuplicate(err))

	again, err := svc.EnsureItemType(ctx, store.TypeSpec{Name: "Desk"})
	require.NoError(t, err)
	assert.Equal(t, "Desk", again.Name)

	expected := `
# HELP auditmagic_inventory_mutations_total Inventory mutations by operation and result.
# TYPE auditmagic_inventory_mutations_total counter
auditmagic_inventory_mutations_total{op="create_type",result="conflict"} 1
auditmagic_inventory_mutations_total{op="create_type",result="ok"} 1
auditmagic_inventory_mutations_total{op="ensure_type",result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(svc.Metrics.Registry(), strings.NewReader(expected),
		"auditmagic_inventory_mutations_total"))
}
