package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/auditmagic/internal/db"
)

func TestGetOrCreateItemTypeRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetOrCreateItemType(ctx, database, "Laptop", "", true, "x")
	require.NoError(t, err)
	second, err := GetOrCreateItemType(ctx, database, "Laptop", "", true, "x")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countRows(t, database, "item_types"))
}

func TestGetOrCreateItemTypeKeepsDetails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := GetOrCreateItemType(ctx, database, "Desk", "Oak", false, "original")
	require.NoError(t, err)
	again, err := GetOrCreateItemType(ctx, database, "  Desk ", "Oak", false, "changed")
	require.NoError(t, err)

	assert.Equal(t, "original", again.Details)
}

func TestGetOrCreateItemTypeConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := GetOrCreateItemType(ctx, database, "Laptop", "", true, "")
	require.NoError(t, err)

	_, err = GetOrCreateItemType(ctx, database, "Laptop", "", false, "")
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.True(t, conflict.Existing)
	assert.False(t, conflict.Requested)
	assert.Contains(t, err.Error(), "already exists as serialized")
	assert.Contains(t, err.Error(), "Cannot use it as non-serialized")

	// A conflict is also a validation error.
	assert.True(t, IsValidation(err))
	assert.True(t, IsConflict(err))
	assert.Equal(t, 1, countRows(t, database, "item_types"))
}

func TestGetOrCreateItemTypeSubTypesAreDistinct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, err := GetOrCreateItemType(ctx, database, "Laptop", "ThinkPad", true, "")
	require.NoError(t, err)
	b, err := GetOrCreateItemType(ctx, database, "Laptop", "MacBook", false, "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestGetOrCreateItemTypeRequiresName(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetOrCreateItemType(context.Background(), database, "   ", "", false, "")
	assert.True(t, IsValidation(err))
}

func TestCreateItemTypeDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateItemType(ctx, database, "Chair", "", false, "")
	require.NoError(t, err)
	_, err = CreateItemType(ctx, database, "Chair", "", false, "")
	assert.True(t, IsValidation(err))
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsConflict(err))

	_, err = CreateItemType(ctx, database, "  ", "", false, "")
	assert.True(t, IsValidation(err))
	assert.False(t, IsDuplicate(err))
}

func TestUpdateItemTypeSerializationLockedByItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	desk := mustType(t, database, "Desk", "", false)
	_, err := CreateItem(ctx, database, NewItem{ItemTypeID: desk.ID, Quantity: 2})
	require.NoError(t, err)

	serialized := true
	_, err = UpdateItemType(ctx, database, desk.ID, ItemTypeUpdate{IsSerialized: &serialized})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Cannot change is_serialized for 'Desk': 1 item(s) already exist. Delete all items first.", err.Error())

	got, err := GetItemType(ctx, database, desk.ID)
	require.NoError(t, err)
	assert.False(t, got.IsSerialized)
}

func TestUpdateItemTypeWithoutItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	desk := mustType(t, database, "Desk", "", false)

	name, details, serialized := "Table", "wooden", true
	got, err := UpdateItemType(ctx, database, desk.ID, ItemTypeUpdate{Name: &name, Details: &details, IsSerialized: &serialized})
	require.NoError(t, err)
	assert.Equal(t, "Table", got.Name)
	assert.Equal(t, "wooden", got.Details)
	assert.True(t, got.IsSerialized)
}

func TestUpdateItemTypeRejectsDuplicatePair(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustType(t, database, "Desk", "", false)
	chair := mustType(t, database, "Chair", "", false)

	name := "Desk"
	_, err := UpdateItemType(ctx, database, chair.ID, ItemTypeUpdate{Name: &name})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 2, countRows(t, database, "item_types"))
}

func TestUpdateItemTypeMissing(t *testing.T) {
	database := db.NewTestDB(t)

	name := "Nothing"
	got, err := UpdateItemType(context.Background(), database, 999, ItemTypeUpdate{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteItemTypeCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptop := mustType(t, database, "Laptop", "", true)
	for _, sn := range []string{"SN-1", "SN-2"} {
		_, err := CreateSerializedItem(ctx, database, NewSerializedItem{ItemTypeID: laptop.ID, SerialNumber: sn})
		require.NoError(t, err)
	}

	found, err := DeleteItemType(ctx, database, laptop.ID)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Zero(t, countRows(t, database, "items"))
	assert.Zero(t, countRows(t, database, "transactions"))
	assert.Zero(t, countRows(t, database, "item_types"))

	found, err = DeleteItemType(ctx, database, laptop.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchItemTypesIgnoresCase(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustType(t, database, "Ноутбук", "Lenovo", true)
	mustType(t, database, "Monitor", "", false)

	got, err := SearchItemTypes(ctx, database, "НОУТ", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ноутбук", got[0].Name)

	got, err = SearchItemTypes(ctx, database, "lenovo", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchItemTypesMatchesDetails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := GetOrCreateItemType(ctx, database, "Desk", "Standing", false, "Electric height adjustment")
	require.NoError(t, err)
	mustType(t, database, "Chair", "", false)

	got, err := SearchItemTypes(ctx, database, "ELECTRIC", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Desk", got[0].Name)

	got, err = SearchItemTypes(ctx, database, "100%", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAutocompleteTypeNamesAndSubTypes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustType(t, database, "Laptop", "ThinkPad", true)
	mustType(t, database, "Laptop", "Tablet mode", true)
	mustType(t, database, "Laptop", "", true)
	mustType(t, database, "Lamp", "", false)
	mustType(t, database, "Desk", "", false)

	names, err := AutocompleteTypeNames(ctx, database, "la", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lamp", "Laptop"}, names)

	subs, err := AutocompleteSubTypes(ctx, database, "Laptop", "t", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tablet mode", "ThinkPad"}, subs)

	subs, err = AutocompleteSubTypes(ctx, database, "Lamp", "", 0)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestAutocompleteEscapesWildcards(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustType(t, database, "100% cotton", "", false)
	mustType(t, database, "1000 sheets", "", false)

	names, err := AutocompleteTypeNames(ctx, database, "100%", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% cotton"}, names)
}

func TestItemTypeImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	desk := mustType(t, database, "Desk", "", false)

	data, mime, err := GetItemTypeImage(ctx, database, desk.ID)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, mime)

	require.NoError(t, SetItemTypeImage(ctx, database, desk.ID, []byte{0xff, 0xd8}, "image/jpeg"))
	data, mime, err = GetItemTypeImage(ctx, database, desk.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
	assert.Equal(t, "image/jpeg", mime)

	assert.ErrorIs(t, SetItemTypeImage(ctx, database, 999, []byte{1}, "image/jpeg"), ErrNotFound)
}

func TestGetItemTypesByIDs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustType(t, database, "A", "", false)
	b := mustType(t, database, "B", "", true)

	got, err := GetItemTypesByIDs(ctx, database, []int64{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "B", got[b.ID].Name)
}
