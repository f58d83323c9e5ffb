package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/auditmagic/internal/model"
)

// inventoryColumns selects an item joined with its type.
const inventoryColumns = itemColumns + `, t.name, t.sub_type, t.is_serialized, t.details`

func scanInventoryItem(s rowScanner) (*model.InventoryItem, error) {
	inv := &model.InventoryItem{}
	var serial sql.NullString
	if err := s.Scan(
		&inv.ID, &inv.ItemTypeID, &inv.Quantity, &serial, &inv.Location, &inv.Condition, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.TypeName, &inv.SubType, &inv.IsSerialized, &inv.Details,
	); err != nil {
		return nil, err
	}
	inv.SerialNumber = stringPtr(serial)
	return inv, nil
}

func scanInventoryItems(rows *sql.Rows) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	for rows.Next() {
		inv, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

// listInventoryItems lists joined items, optionally narrowed by a WHERE
// clause over the aliases i (items) and t (item_types).
func listInventoryItems(ctx context.Context, q querier, where string, args []any) ([]model.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		 FROM items i
		 JOIN item_types t ON t.id = i.item_type_id`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY t.name, t.sub_type, i.serial_number, i.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	return scanInventoryItems(rows)
}

// ListTypesWithItems returns every type that has at least one item, together
// with its items.
func ListTypesWithItems(ctx context.Context, database *sql.DB) ([]model.TypeWithItems, error) {
	return listTypesWithItems(ctx, database, false)
}

// ListSerializedTypesWithItems is ListTypesWithItems limited to serialized types.
func ListSerializedTypesWithItems(ctx context.Context, database *sql.DB) ([]model.TypeWithItems, error) {
	return listTypesWithItems(ctx, database, true)
}

func listTypesWithItems(ctx context.Context, database *sql.DB, serializedOnly bool) ([]model.TypeWithItems, error) {
	where := ""
	if serializedOnly {
		where = "t.is_serialized = 1"
	}
	rows, err := listInventoryItems(ctx, database, where, nil)
	if err != nil {
		return nil, err
	}

	var out []model.TypeWithItems
	var ids []int64
	index := map[int64]int{}
	for _, inv := range rows {
		pos, ok := index[inv.ItemTypeID]
		if !ok {
			pos = len(out)
			index[inv.ItemTypeID] = pos
			ids = append(ids, inv.ItemTypeID)
			out = append(out, model.TypeWithItems{
				Type: model.ItemType{
					ID:           inv.ItemTypeID,
					Name:         inv.TypeName,
					SubType:      inv.SubType,
					IsSerialized: inv.IsSerialized,
					Details:      inv.Details,
				},
			})
		}
		out[pos].Items = append(out[pos].Items, inv.Item)
	}

	// The join carries no type timestamps or image; load the full rows.
	types, err := GetItemTypesByIDs(ctx, database, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if t, ok := types[out[i].Type.ID]; ok {
			out[i].Type = t
		}
	}
	return out, nil
}
