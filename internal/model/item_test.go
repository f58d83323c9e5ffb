package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestDisplayInfo(t *testing.T) {
	laptop := ItemType{ID: 1, Name: "Laptop", SubType: "ThinkPad X1", IsSerialized: true}
	desk := ItemType{ID: 2, Name: "Desk"}

	tests := []struct {
		item InventoryItem
		want string
	}{
		{
			NewInventoryItem(Item{ItemTypeID: 1, Quantity: 1, SerialNumber: strPtr("SN-1"), Location: "Office"}, laptop),
			"Laptop - ThinkPad X1 | SN: SN-1 | @ Office",
		},
		{
			NewInventoryItem(Item{ItemTypeID: 2, Quantity: 5}, desk),
			"Desk | Qty: 5",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.item.DisplayInfo())
	}
}

func TestNewGroupedItem(t *testing.T) {
	laptop := ItemType{ID: 1, Name: "Laptop", IsSerialized: true}
	items := []Item{
		{ID: 10, ItemTypeID: 1, Quantity: 1, SerialNumber: strPtr("SN-1"), Location: "Office"},
		{ID: 11, ItemTypeID: 1, Quantity: 1, SerialNumber: strPtr("SN-2"), Location: "Office"},
		{ID: 12, ItemTypeID: 1, Quantity: 1, SerialNumber: strPtr("SN-3"), Location: "Storage"},
	}

	g := NewGroupedItem(laptop, items)
	assert.Equal(t, 3, g.TotalQuantity)
	assert.Equal(t, []int64{10, 11, 12}, g.ItemIDs)
	assert.Equal(t, []string{"SN-1", "SN-2", "SN-3"}, g.SerialNumbers)
	assert.Equal(t, []string{"Office", "Storage"}, g.Locations)
}

func TestEntryDiscriminant(t *testing.T) {
	desk := ItemType{ID: 2, Name: "Desk"}
	single := IndividualEntry(NewInventoryItem(Item{ID: 3, ItemTypeID: 2, Quantity: 4}, desk))
	group := GroupedEntry(NewGroupedItem(desk, []Item{{ID: 3, ItemTypeID: 2, Quantity: 4}, {ID: 4, ItemTypeID: 2, Quantity: 6}}))

	assert.Equal(t, EntryIndividual, single.Kind)
	assert.Nil(t, single.Grouped)
	assert.Equal(t, 4, single.Quantity())
	assert.Equal(t, int64(2), single.TypeID())

	assert.Equal(t, EntryGrouped, group.Kind)
	assert.Nil(t, group.Item)
	assert.Equal(t, 10, group.Quantity())
	assert.Equal(t, int64(2), group.TypeID())
}

func TestValidSearchField(t *testing.T) {
	for _, f := range []string{"", FieldItemType, FieldSubType, FieldDetails, FieldSerialNumber} {
		assert.True(t, ValidSearchField(f), f)
	}
	assert.False(t, ValidSearchField("location"))
}
