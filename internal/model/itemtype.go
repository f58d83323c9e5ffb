package model

import "time"

// ItemType is a named, optionally sub-typed category of inventory.
// IsSerialized cannot change while any Item of the type exists.
type ItemType struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SubType      string    `json:"sub_type"`
	IsSerialized bool      `json:"is_serialized"`
	Details      string    `json:"details"`
	ImageMime    string    `json:"image_mime,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName returns "Name - SubType", or just Name when there is no sub-type.
func (t ItemType) DisplayName() string {
	if t.SubType == "" {
		return t.Name
	}
	return t.Name + " - " + t.SubType
}

// SerializationMode returns "serialized" or "non-serialized".
func SerializationMode(serialized bool) string {
	if serialized {
		return "serialized"
	}
	return "non-serialized"
}

// TypeWithItems pairs a type with its current items.
type TypeWithItems struct {
	Type  ItemType `json:"type"`
	Items []Item   `json:"items"`
}
