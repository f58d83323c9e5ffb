package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/erazemk/auditmagic/internal/model"
)

// The functions in this file resolve an item type by name and write an item
// of it in one transaction. A rejected item leaves no newly created type.

// CreateItemOfType resolves spec, creating the type if it is missing, and
// creates the item. Serialized types take the per-unit path, so n.Quantity
// must be 0 or 1 for them. n.ItemTypeID is ignored.
func CreateItemOfType(ctx context.Context, database *sql.DB, spec TypeSpec, n NewItem) (*model.Item, *model.ItemType, error) {
	var item *model.Item
	var t *model.ItemType
	err := withTx(ctx, database, "create item of type", func(tx *sql.Tx) error {
		var err error
		t, err = getOrCreateItemType(ctx, tx, spec)
		if err != nil {
			return err
		}
		item, err = createItemOfType(ctx, tx, t, n)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("item created", "id", item.ID, "type", t.DisplayName())
	return item, t, nil
}

func createItemOfType(ctx context.Context, q querier, t *model.ItemType, n NewItem) (*model.Item, error) {
	if !t.IsSerialized {
		return createItem(ctx, q, t, n)
	}
	if n.Quantity != 0 && n.Quantity != 1 {
		return nil, invalid("Quantity must be 1 for serialized items")
	}
	return createSerializedItem(ctx, q, t, NewSerializedItem{
		ItemTypeID:   t.ID,
		SerialNumber: n.SerialNumber,
		Location:     n.Location,
		Condition:    n.Condition,
		Notes:        n.Notes,
		CreatedBy:    n.CreatedBy,
	})
}

// MergeItemOfType is CreateItemOfType, except that bulk stock of a type that
// already has a bulk row is added to the oldest such row with mergeNote.
// Reports whether it merged.
func MergeItemOfType(ctx context.Context, database *sql.DB, spec TypeSpec, n NewItem, mergeNote string) (*model.Item, *model.ItemType, bool, error) {
	var item *model.Item
	var t *model.ItemType
	var merged bool
	err := withTx(ctx, database, "merge item of type", func(tx *sql.Tx) error {
		var err error
		t, err = getOrCreateItemType(ctx, tx, spec)
		if err != nil {
			return err
		}
		if t.IsSerialized || strings.TrimSpace(n.SerialNumber) != "" {
			item, err = createItemOfType(ctx, tx, t, n)
			return err
		}

		existing, err := findItemByTypeAndSerial(ctx, tx, t.ID, "")
		if err != nil {
			return err
		}
		if existing == nil {
			item, err = createItem(ctx, tx, t, n)
			return err
		}

		item, err = addQuantity(ctx, tx, existing.ID, n.Quantity, mergeNote, n.CreatedBy)
		merged = true
		return err
	})
	if err != nil {
		return nil, nil, false, err
	}

	slog.Debug("item stored", "id", item.ID, "type", t.DisplayName(), "merged", merged)
	return item, t, merged, nil
}

// EditItemOfType is EditItem with the target type resolved from spec and
// created if missing. e.ItemTypeID is ignored. Returns nil if the item does
// not exist; no type is created then.
func EditItemOfType(ctx context.Context, database *sql.DB, spec TypeSpec, e ItemEdit) (*model.Item, *model.ItemType, error) {
	if strings.TrimSpace(e.Reason) == "" {
		return nil, nil, invalid("Edit reason is required")
	}

	var updated *model.Item
	var t *model.ItemType
	err := withTx(ctx, database, "edit item of type", func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, e.ItemID)
		if err != nil || item == nil {
			return err
		}
		t, err = getOrCreateItemType(ctx, tx, spec)
		if err != nil {
			return err
		}
		updated, err = editItem(ctx, tx, item, t, e)
		return err
	})
	if err != nil || updated == nil {
		return nil, nil, err
	}
	return updated, t, nil
}
