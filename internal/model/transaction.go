package model

import "time"

// Transaction types.
const (
	TransactionAdd    = "add"
	TransactionRemove = "remove"
	TransactionEdit   = "edit"
)

// Transaction is an append-only audit record of a change to a type's stock.
// QuantityBefore and QuantityAfter describe the quantity at that instant.
type Transaction struct {
	ID             int64     `json:"id"`
	ItemTypeID     int64     `json:"item_type_id"`
	Type           string    `json:"transaction_type"`
	QuantityChange int       `json:"quantity_change"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	SerialNumber   *string   `json:"serial_number,omitempty"`
	Notes          string    `json:"notes"`
	CreatedBy      *int64    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Joined fields (not always populated).
	TypeName string `json:"item_type_name,omitempty"`
	SubType  string `json:"item_sub_type,omitempty"`
}

// SearchHistory is one remembered search.
type SearchHistory struct {
	ID         int64     `json:"id"`
	Query      string    `json:"query"`
	Field      *string   `json:"field"`
	SearchedAt time.Time `json:"searched_at"`
}

// Search fields.
const (
	FieldItemType     = "item_type"
	FieldSubType      = "sub_type"
	FieldDetails      = "details"
	FieldSerialNumber = "serial_number"
)

// ValidSearchField reports whether f is a known search field or "" (all fields).
func ValidSearchField(f string) bool {
	switch f {
	case "", FieldItemType, FieldSubType, FieldDetails, FieldSerialNumber:
		return true
	}
	return false
}
