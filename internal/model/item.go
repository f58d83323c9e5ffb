package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is one concrete inventory row. A bulk row has no serial number and a
// positive quantity; a serialized row has a serial number and quantity 1.
type Item struct {
	ID           int64     `json:"id"`
	ItemTypeID   int64     `json:"item_type_id"`
	Quantity     int       `json:"quantity"`
	SerialNumber *string   `json:"serial_number"`
	Location     string    `json:"location"`
	Condition    string    `json:"condition"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Serial returns the serial number or "".
func (i Item) Serial() string {
	if i.SerialNumber == nil {
		return ""
	}
	return *i.SerialNumber
}

// InventoryItem is an Item joined with the fields of its ItemType.
type InventoryItem struct {
	Item
	TypeName     string `json:"item_type_name"`
	SubType      string `json:"item_sub_type"`
	IsSerialized bool   `json:"is_serialized"`
	Details      string `json:"details"`
}

// NewInventoryItem joins an item with its type.
func NewInventoryItem(item Item, t ItemType) InventoryItem {
	return InventoryItem{
		Item:         item,
		TypeName:     t.Name,
		SubType:      t.SubType,
		IsSerialized: t.IsSerialized,
		Details:      t.Details,
	}
}

// DisplayInfo returns the one-line summary shown in lists.
func (i InventoryItem) DisplayInfo() string {
	name := i.TypeName
	if i.SubType != "" {
		name += " - " + i.SubType
	}
	parts := []string{name}
	if s := i.Serial(); s != "" {
		parts = append(parts, "SN: "+s)
	} else {
		parts = append(parts, fmt.Sprintf("Qty: %d", i.Quantity))
	}
	if i.Location != "" {
		parts = append(parts, "@ "+i.Location)
	}
	return strings.Join(parts, " | ")
}

// GroupedItem aggregates every item of one type.
type GroupedItem struct {
	ItemType      ItemType `json:"item_type"`
	TotalQuantity int      `json:"total_quantity"`
	ItemIDs       []int64  `json:"item_ids"`
	SerialNumbers []string `json:"serial_numbers"`
	Locations     []string `json:"locations"`
}

// NewGroupedItem aggregates items belonging to t. Locations are distinct and
// keep first-seen order.
func NewGroupedItem(t ItemType, items []Item) GroupedItem {
	g := GroupedItem{
		ItemType:      t,
		ItemIDs:       []int64{},
		SerialNumbers: []string{},
		Locations:     []string{},
	}
	seen := map[string]bool{}
	for _, it := range items {
		g.TotalQuantity += it.Quantity
		g.ItemIDs = append(g.ItemIDs, it.ID)
		if s := it.Serial(); s != "" {
			g.SerialNumbers = append(g.SerialNumbers, s)
		}
		if it.Location != "" && !seen[it.Location] {
			seen[it.Location] = true
			g.Locations = append(g.Locations, it.Location)
		}
	}
	return g
}

// Entry kinds.
const (
	EntryIndividual = "individual"
	EntryGrouped    = "grouped"
)

// Entry is one row of an inventory listing: either a single item or a group
// of items of the same type. Kind says which field is set.
type Entry struct {
	Kind    string         `json:"kind"`
	Item    *InventoryItem `json:"item,omitempty"`
	Grouped *GroupedItem   `json:"grouped,omitempty"`
}

// IndividualEntry wraps a single item.
func IndividualEntry(item InventoryItem) Entry {
	return Entry{Kind: EntryIndividual, Item: &item}
}

// GroupedEntry wraps a group.
func GroupedEntry(g GroupedItem) Entry {
	return Entry{Kind: EntryGrouped, Grouped: &g}
}

// TypeID returns the item type the entry belongs to.
func (e Entry) TypeID() int64 {
	switch e.Kind {
	case EntryGrouped:
		return e.Grouped.ItemType.ID
	default:
		return e.Item.ItemTypeID
	}
}

// Quantity returns the row quantity, or the group total.
func (e Entry) Quantity() int {
	switch e.Kind {
	case EntryGrouped:
		return e.Grouped.TotalQuantity
	default:
		return e.Item.Quantity
	}
}
