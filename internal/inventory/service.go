// Package inventory combines the store operations into the workflows exposed
// to clients: creating items by type name, merging bulk stock, editing, and
// the grouped and searched views of the inventory.
package inventory

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/erazemk/auditmagic/internal/metrics"
	"github.com/erazemk/auditmagic/internal/model"
	"github.com/erazemk/auditmagic/internal/store"
)

// MergedNote is recorded when new bulk stock is merged into an existing row.
const MergedNote = "Merged with existing item"

// Service runs inventory workflows against one database.
type Service struct {
	DB      *sql.DB
	Metrics *metrics.Metrics

	// SaveHistory is used when the search.save_history setting is unset.
	SaveHistory bool
}

// New returns a Service. m may be nil.
func New(db *sql.DB, m *metrics.Metrics, saveHistory bool) *Service {
	return &Service{DB: db, Metrics: m, SaveHistory: saveHistory}
}

// CreateRequest describes an item to create, naming its type instead of
// referencing it by ID. The type is created if it does not exist yet.
type CreateRequest struct {
	TypeName     string
	SubType      string
	IsSerialized bool
	Details      string
	Quantity     int
	SerialNumber string
	Location     string
	Condition    string
	Notes        string
	CreatedBy    *int64
}

// CreateItem resolves the type and creates the item. Serialized types go
// through the per-unit path so the group size is audited.
func (s *Service) CreateItem(ctx context.Context, req CreateRequest) (*model.InventoryItem, error) {
	item, err := s.createItem(ctx, req)
	s.record("create_item", err)
	return item, err
}

func (s *Service) createItem(ctx context.Context, req CreateRequest) (*model.InventoryItem, error) {
	item, t, err := store.CreateItemOfType(ctx, s.DB, req.typeSpec(), req.newItem())
	if err != nil {
		return nil, err
	}

	slog.Debug("inventory item created", "id", item.ID, "type", t.DisplayName())
	inv := model.NewInventoryItem(*item, *t)
	return &inv, nil
}

func (r CreateRequest) typeSpec() store.TypeSpec {
	return store.TypeSpec{
		Name:         r.TypeName,
		SubType:      r.SubType,
		IsSerialized: r.IsSerialized,
		Details:      r.Details,
	}
}

func (r CreateRequest) newItem() store.NewItem {
	return store.NewItem{
		Quantity:     r.Quantity,
		SerialNumber: r.SerialNumber,
		Location:     r.Location,
		Condition:    r.Condition,
		Notes:        r.Notes,
		CreatedBy:    r.CreatedBy,
	}
}

// CreateOrMergeItem creates the item, except that bulk stock of a type that
// already has a bulk row is added to that row. Reports whether it merged.
func (s *Service) CreateOrMergeItem(ctx context.Context, req CreateRequest) (*model.InventoryItem, bool, error) {
	item, merged, err := s.createOrMergeItem(ctx, req)
	op := "create_item"
	if merged {
		op = "merge_item"
	}
	s.record(op, err)
	return item, merged, err
}

func (s *Service) createOrMergeItem(ctx context.Context, req CreateRequest) (*model.InventoryItem, bool, error) {
	item, t, merged, err := store.MergeItemOfType(ctx, s.DB, req.typeSpec(), req.newItem(), MergedNote)
	if err != nil {
		return nil, false, err
	}

	inv := model.NewInventoryItem(*item, *t)
	return &inv, merged, nil
}

// EditRequest replaces an item's state. The target type is resolved by name
// and created if missing.
type EditRequest struct {
	ItemID       int64
	TypeName     string
	SubType      string
	IsSerialized bool
	Details      string
	Quantity     int
	SerialNumber string
	Location     string
	Condition    string
	Reason       string
	CreatedBy    *int64
}

// EditItem applies req. Returns nil if the item does not exist.
func (s *Service) EditItem(ctx context.Context, req EditRequest) (*model.InventoryItem, error) {
	item, err := s.editItem(ctx, req)
	s.record("edit_item", err)
	return item, err
}

func (s *Service) editItem(ctx context.Context, req EditRequest) (*model.InventoryItem, error) {
	spec := store.TypeSpec{
		Name:         req.TypeName,
		SubType:      req.SubType,
		IsSerialized: req.IsSerialized,
		Details:      req.Details,
	}
	item, t, err := store.EditItemOfType(ctx, s.DB, spec, store.ItemEdit{
		ItemID:       req.ItemID,
		Quantity:     req.Quantity,
		SerialNumber: req.SerialNumber,
		Location:     req.Location,
		Condition:    req.Condition,
		Reason:       req.Reason,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		slog.Warn("item not found for edit", "id", req.ItemID)
		return nil, nil
	}

	inv := model.NewInventoryItem(*item, *t)
	return &inv, nil
}

// AddQuantity adds stock to a bulk item. Returns nil if it does not exist.
func (s *Service) AddQuantity(ctx context.Context, itemID int64, quantity int, notes string, by *int64) (*model.InventoryItem, error) {
	item, err := store.AddQuantity(ctx, s.DB, itemID, quantity, notes, by)
	s.record("add_quantity", err)
	return s.join(ctx, item, err)
}

// RemoveQuantity removes stock from a bulk item. Returns nil if it does not exist.
func (s *Service) RemoveQuantity(ctx context.Context, itemID int64, quantity int, notes string, by *int64) (*model.InventoryItem, error) {
	item, err := store.RemoveQuantity(ctx, s.DB, itemID, quantity, notes, by)
	s.record("remove_quantity", err)
	return s.join(ctx, item, err)
}

// DeleteItem deletes one item. Reports whether it existed.
func (s *Service) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	found, err := store.DeleteItem(ctx, s.DB, itemID)
	s.record("delete_item", err)
	return found, err
}

// DeleteItemsBySerialNumbers deletes serialized units and returns how many
// were removed.
func (s *Service) DeleteItemsBySerialNumbers(ctx context.Context, serials []string, notes string, by *int64) (int, error) {
	n, err := store.DeleteItemsBySerialNumbers(ctx, s.DB, serials, notes, by)
	s.record("delete_by_serial", err)
	return n, err
}

// CreateSerializedItem adds one unit to an existing serialized type.
func (s *Service) CreateSerializedItem(ctx context.Context, n store.NewSerializedItem) (*model.InventoryItem, error) {
	item, err := store.CreateSerializedItem(ctx, s.DB, n)
	s.record("create_item", err)
	return s.join(ctx, item, err)
}

// CreateItemType creates a type. An existing name and sub-type is a
// *store.DuplicateError.
func (s *Service) CreateItemType(ctx context.Context, spec store.TypeSpec) (*model.ItemType, error) {
	t, err := store.CreateItemType(ctx, s.DB, spec.Name, spec.SubType, spec.IsSerialized, spec.Details)
	s.record("create_type", err)
	return t, err
}

// EnsureItemType returns the type named by spec, creating it when missing.
func (s *Service) EnsureItemType(ctx context.Context, spec store.TypeSpec) (*model.ItemType, error) {
	t, err := store.GetOrCreateItemType(ctx, s.DB, spec.Name, spec.SubType, spec.IsSerialized, spec.Details)
	s.record("ensure_type", err)
	return t, err
}

// UpdateItemType changes a type. Returns nil if it does not exist.
func (s *Service) UpdateItemType(ctx context.Context, id int64, upd store.ItemTypeUpdate) (*model.ItemType, error) {
	t, err := store.UpdateItemType(ctx, s.DB, id, upd)
	s.record("update_type", err)
	return t, err
}

// DeleteItemType deletes a type with its items and transactions. Returns
// how many items went with it and whether the type existed.
func (s *Service) DeleteItemType(ctx context.Context, id int64) (int, bool, error) {
	n, err := store.CountItemsForType(ctx, s.DB, id)
	if err != nil {
		return 0, false, err
	}
	found, err := store.DeleteItemType(ctx, s.DB, id)
	s.record("delete_type", err)
	if err != nil || !found {
		return 0, found, err
	}
	slog.Debug("item type deleted", "id", id, "items", n)
	return n, true, nil
}

// UpdateItem changes an item's properties without an audit record.
func (s *Service) UpdateItem(ctx context.Context, id int64, upd store.ItemUpdate) (*model.InventoryItem, error) {
	item, err := store.UpdateItem(ctx, s.DB, id, upd)
	s.record("update_item", err)
	return s.join(ctx, item, err)
}

// GetItem returns one item joined with its type, or nil.
func (s *Service) GetItem(ctx context.Context, itemID int64) (*model.InventoryItem, error) {
	item, err := store.GetItem(ctx, s.DB, itemID)
	return s.join(ctx, item, err)
}

// GetItemBySerial returns the unit with the given serial number joined with
// its type, or nil.
func (s *Service) GetItemBySerial(ctx context.Context, serial string) (*model.InventoryItem, error) {
	item, err := store.GetItemBySerial(ctx, s.DB, serial)
	return s.join(ctx, item, err)
}

// join attaches the item's type. A removed-to-zero item still joins.
func (s *Service) join(ctx context.Context, item *model.Item, err error) (*model.InventoryItem, error) {
	if err != nil || item == nil {
		return nil, err
	}
	t, err := store.GetItemType(ctx, s.DB, item.ItemTypeID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	inv := model.NewInventoryItem(*item, *t)
	return &inv, nil
}

// record counts a mutation outcome.
func (s *Service) record(op string, err error) {
	s.Metrics.Mutation(op, Result(err))
}

// Result classifies err into a metrics result label.
func Result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case store.IsConflict(err), store.IsDuplicate(err):
		return metrics.ResultConflict
	case store.IsValidation(err):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
