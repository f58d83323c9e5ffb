package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/auditmagic/internal/model"
)

// InitialNote is recorded on the first transaction of a type's stock.
const InitialNote = "Initial inventory"

const itemColumns = `i.id, i.item_type_id, i.quantity, i.serial_number, i.location, i.condition, i.created_at, i.updated_at`

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var serial sql.NullString
	if err := s.Scan(&item.ID, &item.ItemTypeID, &item.Quantity, &serial, &item.Location, &item.Condition, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.SerialNumber = stringPtr(serial)
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// NewItem describes an item to create.
type NewItem struct {
	ItemTypeID   int64
	Quantity     int
	SerialNumber string
	Location     string
	Condition    string
	Notes        string
	CreatedBy    *int64
}

// CreateItem creates an item of an existing type and records an ADD
// transaction from 0 to the created quantity.
func CreateItem(ctx context.Context, database *sql.DB, n NewItem) (*model.Item, error) {
	var created *model.Item
	err := withTx(ctx, database, "create item", func(tx *sql.Tx) error {
		t, err := requireItemType(ctx, tx, n.ItemTypeID)
		if err != nil {
			return err
		}
		created, err = createItem(ctx, tx, t, n)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("item created", "id", created.ID, "type_id", created.ItemTypeID, "quantity", created.Quantity)
	return created, nil
}

func createItem(ctx context.Context, q querier, t *model.ItemType, n NewItem) (*model.Item, error) {
	serial := strings.TrimSpace(n.SerialNumber)
	notes := n.Notes
	if notes == "" {
		notes = InitialNote
	}

	if err := checkItemShape(t, serial, n.Quantity); err != nil {
		return nil, err
	}
	if serial != "" {
		if err := checkSerialFree(ctx, q, serial, 0); err != nil {
			return nil, err
		}
	}

	created, err := insertItem(ctx, q, t.ID, n.Quantity, serial, n.Location, n.Condition)
	if err != nil {
		return nil, err
	}

	err = insertTransaction(ctx, q, model.Transaction{
		ItemTypeID:     t.ID,
		Type:           model.TransactionAdd,
		QuantityChange: n.Quantity,
		QuantityBefore: 0,
		QuantityAfter:  n.Quantity,
		SerialNumber:   created.SerialNumber,
		Notes:          notes,
		CreatedBy:      n.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// NewSerializedItem describes one serialized unit to add to a type.
type NewSerializedItem struct {
	ItemTypeID   int64
	SerialNumber string
	Location     string
	Condition    string
	Notes        string
	CreatedBy    *int64
}

// CreateSerializedItem adds one unit to a serialized type. The transaction
// records the group size going from N to N+1. The first unit of a type is
// always noted as the initial inventory.
func CreateSerializedItem(ctx context.Context, database *sql.DB, n NewSerializedItem) (*model.Item, error) {
	var created *model.Item
	err := withTx(ctx, database, "create serialized item", func(tx *sql.Tx) error {
		t, err := requireItemType(ctx, tx, n.ItemTypeID)
		if err != nil {
			return err
		}
		created, err = createSerializedItem(ctx, tx, t, n)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("serialized item created", "id", created.ID, "type_id", created.ItemTypeID, "serial", *created.SerialNumber)
	return created, nil
}

func createSerializedItem(ctx context.Context, q querier, t *model.ItemType, n NewSerializedItem) (*model.Item, error) {
	serial := strings.TrimSpace(n.SerialNumber)
	if !t.IsSerialized {
		return nil, invalid("ItemType '%s' is not serialized; create a bulk item instead", t.Name)
	}
	if serial == "" {
		return nil, invalid("Serial number required for serialized items")
	}
	if err := checkSerialFree(ctx, q, serial, 0); err != nil {
		return nil, err
	}

	before, err := countItemsForType(ctx, q, t.ID)
	if err != nil {
		return nil, err
	}
	notes := n.Notes
	if before == 0 {
		notes = InitialNote
	}

	created, err := insertItem(ctx, q, t.ID, 1, serial, n.Location, n.Condition)
	if err != nil {
		return nil, err
	}

	err = insertTransaction(ctx, q, model.Transaction{
		ItemTypeID:     t.ID,
		Type:           model.TransactionAdd,
		QuantityChange: 1,
		QuantityBefore: before,
		QuantityAfter:  before + 1,
		SerialNumber:   created.SerialNumber,
		Notes:          notes,
		CreatedBy:      n.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// requireItemType is getItemType for callers that were handed a type ID.
func requireItemType(ctx context.Context, q querier, id int64) (*model.ItemType, error) {
	t, err := getItemType(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, invalid("ItemType with id %d not found", id)
	}
	return t, nil
}

func checkItemShape(t *model.ItemType, serial string, quantity int) error {
	if t.IsSerialized {
		if serial == "" {
			return invalid("Serial number required for serialized items")
		}
		if quantity != 1 {
			return invalid("Quantity must be 1 for serialized items")
		}
		return nil
	}
	if serial != "" {
		return invalid("Serial number not allowed for non-serialized items")
	}
	if quantity < 1 {
		return invalid("Quantity must be at least 1")
	}
	return nil
}

// checkSerialFree fails when serial is already used by an item other than exceptID.
func checkSerialFree(ctx context.Context, q querier, serial string, exceptID int64) error {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM items WHERE serial_number = ? AND id != ?`, serial, exceptID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking serial number: %w", err)
	}
	return invalid("Serial number '%s' already exists", serial)
}

func insertItem(ctx context.Context, q querier, typeID int64, quantity int, serial, location, condition string) (*model.Item, error) {
	ts := timestamp(now())
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (item_type_id, quantity, serial_number, location, condition, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		typeID, quantity, nullString(serial), strings.TrimSpace(location), strings.TrimSpace(condition), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}
	return getItem(ctx, q, id)
}

// AddQuantity increases a bulk item's quantity. Returns nil if the item does
// not exist.
func AddQuantity(ctx context.Context, database *sql.DB, itemID int64, quantity int, notes string, by *int64) (*model.Item, error) {
	if quantity <= 0 {
		return nil, invalid("Quantity to add must be positive")
	}

	var updated *model.Item
	err := withTx(ctx, database, "add quantity", func(tx *sql.Tx) error {
		var err error
		updated, err = addQuantity(ctx, tx, itemID, quantity, notes, by)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func addQuantity(ctx context.Context, q querier, itemID int64, quantity int, notes string, by *int64) (*model.Item, error) {
	if quantity <= 0 {
		return nil, invalid("Quantity to add must be positive")
	}

	item, err := getItem(ctx, q, itemID)
	if err != nil || item == nil {
		return nil, err
	}
	if item.SerialNumber != nil {
		return nil, invalid("Cannot change quantity of serialized item '%s'", *item.SerialNumber)
	}

	after := item.Quantity + quantity
	if _, err := q.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?`,
		after, timestamp(now()), itemID,
	); err != nil {
		return nil, fmt.Errorf("adding quantity: %w", err)
	}

	if err := insertTransaction(ctx, q, model.Transaction{
		ItemTypeID:     item.ItemTypeID,
		Type:           model.TransactionAdd,
		QuantityChange: quantity,
		QuantityBefore: item.Quantity,
		QuantityAfter:  after,
		Notes:          notes,
		CreatedBy:      by,
	}); err != nil {
		return nil, err
	}

	return getItem(ctx, q, itemID)
}

// RemoveQuantity decreases a bulk item's quantity. Removing the full quantity
// deletes the row; the returned item then has Quantity 0. Returns nil if the
// item does not exist.
func RemoveQuantity(ctx context.Context, database *sql.DB, itemID int64, quantity int, notes string, by *int64) (*model.Item, error) {
	if quantity <= 0 {
		return nil, invalid("Quantity to remove must be positive")
	}

	var updated *model.Item
	err := withTx(ctx, database, "remove quantity", func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, itemID)
		if err != nil || item == nil {
			return err
		}
		if item.SerialNumber != nil {
			return invalid("Cannot change quantity of serialized item '%s'", *item.SerialNumber)
		}
		if quantity > item.Quantity {
			return invalid("Cannot remove %d items. Only %d available.", quantity, item.Quantity)
		}

		after := item.Quantity - quantity
		if after == 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, itemID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?`,
				after, timestamp(now()), itemID,
			)
		}
		if err != nil {
			return fmt.Errorf("removing quantity: %w", err)
		}

		if err := insertTransaction(ctx, tx, model.Transaction{
			ItemTypeID:     item.ItemTypeID,
			Type:           model.TransactionRemove,
			QuantityChange: quantity,
			QuantityBefore: item.Quantity,
			QuantityAfter:  after,
			Notes:          notes,
			CreatedBy:      by,
		}); err != nil {
			return err
		}

		if after == 0 {
			item.Quantity = 0
			updated = item
			return nil
		}
		updated, err = getItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ItemEdit is a full replacement of an item's editable state.
type ItemEdit struct {
	ItemID       int64
	ItemTypeID   int64
	Quantity     int
	SerialNumber string
	Location     string
	Condition    string
	Reason       string
	CreatedBy    *int64
}

// EditItem replaces an item's type, quantity, serial number, location and
// condition, and records one EDIT transaction under the new type. The
// transaction's change is the absolute quantity difference. Returns nil if
// the item does not exist.
func EditItem(ctx context.Context, database *sql.DB, e ItemEdit) (*model.Item, error) {
	if strings.TrimSpace(e.Reason) == "" {
		return nil, invalid("Edit reason is required")
	}

	var updated *model.Item
	err := withTx(ctx, database, "edit item", func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, e.ItemID)
		if err != nil || item == nil {
			return err
		}
		t, err := requireItemType(ctx, tx, e.ItemTypeID)
		if err != nil {
			return err
		}
		updated, err = editItem(ctx, tx, item, t, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// editItem moves item to type t with the state in e. e.ItemTypeID is ignored.
func editItem(ctx context.Context, q querier, item *model.Item, t *model.ItemType, e ItemEdit) (*model.Item, error) {
	serial := strings.TrimSpace(e.SerialNumber)
	if err := checkItemShape(t, serial, e.Quantity); err != nil {
		return nil, err
	}
	if serial != "" {
		if err := checkSerialFree(ctx, q, serial, item.ID); err != nil {
			return nil, err
		}
	}

	if _, err := q.ExecContext(ctx,
		`UPDATE items SET item_type_id = ?, quantity = ?, serial_number = ?, location = ?, condition = ?, updated_at = ?
		 WHERE id = ?`,
		t.ID, e.Quantity, nullString(serial), strings.TrimSpace(e.Location), strings.TrimSpace(e.Condition),
		timestamp(now()), item.ID,
	); err != nil {
		return nil, fmt.Errorf("editing item: %w", err)
	}

	change := e.Quantity - item.Quantity
	if change < 0 {
		change = -change
	}
	if err := insertTransaction(ctx, q, model.Transaction{
		ItemTypeID:     t.ID,
		Type:           model.TransactionEdit,
		QuantityChange: change,
		QuantityBefore: item.Quantity,
		QuantityAfter:  e.Quantity,
		SerialNumber:   stringPtr(nullString(serial)),
		Notes:          strings.TrimSpace(e.Reason),
		CreatedBy:      e.CreatedBy,
	}); err != nil {
		return nil, err
	}

	return getItem(ctx, q, item.ID)
}

// ItemUpdate holds optional property changes. Nil fields are left alone.
// An empty SerialNumber clears it.
type ItemUpdate struct {
	SerialNumber *string
	Location     *string
	Condition    *string
}

// UpdateItem changes an item's properties without recording a transaction.
// The result must still fit the type's serialization mode.
func UpdateItem(ctx context.Context, database *sql.DB, id int64, upd ItemUpdate) (*model.Item, error) {
	var updated *model.Item
	err := withTx(ctx, database, "update item", func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, id)
		if err != nil || item == nil {
			return err
		}
		t, err := getItemType(ctx, tx, item.ItemTypeID)
		if err != nil {
			return err
		}

		serial := item.Serial()
		if upd.SerialNumber != nil {
			serial = strings.TrimSpace(*upd.SerialNumber)
		}
		if err := checkItemShape(t, serial, item.Quantity); err != nil {
			return err
		}
		if serial != "" && serial != item.Serial() {
			if err := checkSerialFree(ctx, tx, serial, id); err != nil {
				return err
			}
		}
		if upd.Location != nil {
			item.Location = strings.TrimSpace(*upd.Location)
		}
		if upd.Condition != nil {
			item.Condition = strings.TrimSpace(*upd.Condition)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET serial_number = ?, location = ?, condition = ?, updated_at = ? WHERE id = ?`,
			nullString(serial), item.Location, item.Condition, timestamp(now()), id,
		); err != nil {
			return fmt.Errorf("updating item: %w", err)
		}

		updated, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem deletes one item. No transaction is recorded. Reports whether
// the item existed.
func DeleteItem(ctx context.Context, database *sql.DB, id int64) (bool, error) {
	result, err := database.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		slog.Warn("item not found for deletion", "id", id)
		return false, nil
	}
	slog.Debug("item deleted", "id", id)
	return true, nil
}

// DeleteItemsBySerialNumbers deletes every item whose serial number is in
// serials, recording one REMOVE transaction per item. Unknown serials are
// ignored. Returns the number of items deleted.
func DeleteItemsBySerialNumbers(ctx context.Context, database *sql.DB, serials []string, notes string, by *int64) (int, error) {
	if len(serials) == 0 {
		return 0, nil
	}
	args := make([]any, len(serials))
	for i, s := range serials {
		args[i] = strings.TrimSpace(s)
	}

	deleted := 0
	err := withTx(ctx, database, "delete items by serial", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items i
			 WHERE i.serial_number IN (`+placeholders(len(args))+`)
			 ORDER BY i.id`, args...,
		)
		if err != nil {
			return fmt.Errorf("finding items by serial: %w", err)
		}
		items, err := scanItems(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		for _, item := range items {
			if err := insertTransaction(ctx, tx, model.Transaction{
				ItemTypeID:     item.ItemTypeID,
				Type:           model.TransactionRemove,
				QuantityChange: 1,
				QuantityBefore: 1,
				QuantityAfter:  0,
				SerialNumber:   item.SerialNumber,
				Notes:          notes,
				CreatedBy:      by,
			}); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM items WHERE serial_number IN (`+placeholders(len(args))+`)`, args...,
		)
		if err != nil {
			return fmt.Errorf("deleting items by serial: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting items by serial: %w", err)
		}
		deleted = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Debug("items deleted by serial", "requested", len(serials), "deleted", deleted)
	return deleted, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, database *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, database, id)
}

func getItem(ctx context.Context, q querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemBySerial returns the item with the given serial number, or nil.
func GetItemBySerial(ctx context.Context, database *sql.DB, serial string) (*model.Item, error) {
	item, err := scanItem(database.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.serial_number = ?`, strings.TrimSpace(serial),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item by serial: %w", err)
	}
	return item, nil
}

// findItemByTypeAndSerial returns the item of typeID with the given serial
// number, or nil. An empty serial finds the oldest bulk row of the type.
func findItemByTypeAndSerial(ctx context.Context, q querier, typeID int64, serial string) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i
		 WHERE i.item_type_id = ? AND i.serial_number IS ?
		 ORDER BY i.id LIMIT 1`,
		typeID, nullString(strings.TrimSpace(serial)),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding item by type and serial: %w", err)
	}
	return item, nil
}

// ListItems returns all items joined with their type, ordered by type name,
// sub-type and serial number.
func ListItems(ctx context.Context, database *sql.DB) ([]model.InventoryItem, error) {
	return listInventoryItems(ctx, database, "", nil)
}

// ListItemsByType returns the items of one type.
func ListItemsByType(ctx context.Context, database *sql.DB, typeID int64) ([]model.InventoryItem, error) {
	return listInventoryItems(ctx, database, "i.item_type_id = ?", []any{typeID})
}

// ListItemsAtLocation returns the items stored at location.
func ListItemsAtLocation(ctx context.Context, database *sql.DB, location string) ([]model.InventoryItem, error) {
	return listInventoryItems(ctx, database, "i.location = ?", []any{strings.TrimSpace(location)})
}

// ListSerialNumbersForType returns the serial numbers of a type's items in
// ascending order.
func ListSerialNumbersForType(ctx context.Context, database *sql.DB, typeID int64) ([]string, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT serial_number FROM items
		 WHERE item_type_id = ? AND serial_number IS NOT NULL
		 ORDER BY serial_number`, typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing serial numbers: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// CountItemsForType returns how many item rows a type has.
func CountItemsForType(ctx context.Context, database *sql.DB, typeID int64) (int, error) {
	return countItemsForType(ctx, database, typeID)
}

func countItemsForType(ctx context.Context, q querier, typeID int64) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE item_type_id = ?`, typeID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}
