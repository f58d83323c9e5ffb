package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/auditmagic/internal/db"
	"github.com/erazemk/auditmagic/internal/model"
)

const itemTypeColumns = `t.id, t.name, t.sub_type, t.is_serialized, t.details, t.image_mime, t.created_at, t.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItemType(s rowScanner) (*model.ItemType, error) {
	t := &model.ItemType{}
	var imageMime sql.NullString
	if err := s.Scan(&t.ID, &t.Name, &t.SubType, &t.IsSerialized, &t.Details, &imageMime, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ImageMime = imageMime.String
	return t, nil
}

func scanItemTypes(rows *sql.Rows) ([]model.ItemType, error) {
	var types []model.ItemType
	for rows.Next() {
		t, err := scanItemType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item type: %w", err)
		}
		types = append(types, *t)
	}
	return types, rows.Err()
}

// CreateItemType creates a new item type.
func CreateItemType(ctx context.Context, database *sql.DB, name, subType string, isSerialized bool, details string) (*model.ItemType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Type name is required")
	}
	subType = strings.TrimSpace(subType)

	var created *model.ItemType
	err := withTx(ctx, database, "create item type", func(tx *sql.Tx) error {
		existing, err := getItemTypeByName(ctx, tx, name, subType)
		if err != nil {
			return err
		}
		if existing != nil {
			return &DuplicateError{Message: fmt.Sprintf("ItemType '%s' (sub_type='%s') already exists", name, subType)}
		}
		created, err = insertItemType(ctx, tx, name, subType, isSerialized, details)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// TypeSpec names an item type by name and sub-type. IsSerialized must match
// an existing type; Details is only used when the type is created.
type TypeSpec struct {
	Name         string
	SubType      string
	IsSerialized bool
	Details      string
}

// GetOrCreateItemType returns the type with the given name and sub-type,
// creating it when missing. An existing type keeps its details. If it exists
// with a different serialization mode, a *ConflictError is returned.
func GetOrCreateItemType(ctx context.Context, database *sql.DB, name, subType string, isSerialized bool, details string) (*model.ItemType, error) {
	var result *model.ItemType
	err := withTx(ctx, database, "get or create item type", func(tx *sql.Tx) error {
		var err error
		result, err = getOrCreateItemType(ctx, tx, TypeSpec{
			Name:         name,
			SubType:      subType,
			IsSerialized: isSerialized,
			Details:      details,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func getOrCreateItemType(ctx context.Context, q querier, spec TypeSpec) (*model.ItemType, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, invalid("Type name is required")
	}
	subType := strings.TrimSpace(spec.SubType)

	existing, err := getItemTypeByName(ctx, q, name, subType)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return insertItemType(ctx, q, name, subType, spec.IsSerialized, spec.Details)
	}
	if existing.IsSerialized != spec.IsSerialized {
		return nil, &ConflictError{
			Name:      name,
			SubType:   subType,
			Existing:  existing.IsSerialized,
			Requested: spec.IsSerialized,
		}
	}
	return existing, nil
}

func insertItemType(ctx context.Context, q querier, name, subType string, isSerialized bool, details string) (*model.ItemType, error) {
	ts := timestamp(now())
	result, err := q.ExecContext(ctx,
		`INSERT INTO item_types (name, sub_type, is_serialized, details, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		name, subType, isSerialized, details, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item type id: %w", err)
	}

	slog.Debug("item type created", "id", id, "name", name, "sub_type", subType, "serialized", isSerialized)
	return getItemType(ctx, q, id)
}

// GetItemType returns an item type by ID, or nil if it does not exist.
func GetItemType(ctx context.Context, database *sql.DB, id int64) (*model.ItemType, error) {
	return getItemType(ctx, database, id)
}

func getItemType(ctx context.Context, q querier, id int64) (*model.ItemType, error) {
	t, err := scanItemType(q.QueryRowContext(ctx,
		`SELECT `+itemTypeColumns+` FROM item_types t WHERE t.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item type: %w", err)
	}
	return t, nil
}

// GetItemTypeByName returns the type with the exact name and sub-type, or nil.
// Used by clients to pre-fill and lock the serialization flag while typing.
func GetItemTypeByName(ctx context.Context, database *sql.DB, name, subType string) (*model.ItemType, error) {
	return getItemTypeByName(ctx, database, strings.TrimSpace(name), strings.TrimSpace(subType))
}

func getItemTypeByName(ctx context.Context, q querier, name, subType string) (*model.ItemType, error) {
	t, err := scanItemType(q.QueryRowContext(ctx,
		`SELECT `+itemTypeColumns+` FROM item_types t WHERE t.name = ? AND t.sub_type = ?`,
		name, subType,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item type by name: %w", err)
	}
	return t, nil
}

// GetItemTypesByIDs fetches several types in one query, keyed by ID.
func GetItemTypesByIDs(ctx context.Context, database *sql.DB, ids []int64) (map[int64]model.ItemType, error) {
	out := make(map[int64]model.ItemType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := database.QueryContext(ctx,
		`SELECT `+itemTypeColumns+` FROM item_types t WHERE t.id IN (`+placeholders(len(ids))+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item types: %w", err)
	}
	defer rows.Close()

	types, err := scanItemTypes(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		out[t.ID] = t
	}
	return out, nil
}

// ListItemTypes returns all item types ordered by name and sub-type.
func ListItemTypes(ctx context.Context, database *sql.DB) ([]model.ItemType, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT `+itemTypeColumns+` FROM item_types t ORDER BY t.name, t.sub_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item types: %w", err)
	}
	defer rows.Close()

	return scanItemTypes(rows)
}

// ItemTypeUpdate holds optional changes to an item type. Nil fields are left alone.
type ItemTypeUpdate struct {
	Name         *string
	SubType      *string
	IsSerialized *bool
	Details      *string
}

// UpdateItemType applies upd to the type. Changing IsSerialized fails while
// the type has items. Renaming onto an existing (name, sub_type) pair fails.
// Returns nil if the type does not exist.
func UpdateItemType(ctx context.Context, database *sql.DB, id int64, upd ItemTypeUpdate) (*model.ItemType, error) {
	var updated *model.ItemType
	err := withTx(ctx, database, "update item type", func(tx *sql.Tx) error {
		t, err := getItemType(ctx, tx, id)
		if err != nil || t == nil {
			return err
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return invalid("Type name is required")
			}
			t.Name = name
		}
		if upd.SubType != nil {
			t.SubType = strings.TrimSpace(*upd.SubType)
		}
		if upd.Details != nil {
			t.Details = *upd.Details
		}

		if upd.Name != nil || upd.SubType != nil {
			other, err := getItemTypeByName(ctx, tx, t.Name, t.SubType)
			if err != nil {
				return err
			}
			if other != nil && other.ID != id {
				return invalid("ItemType '%s' (sub_type='%s') already exists", t.Name, t.SubType)
			}
		}

		if upd.IsSerialized != nil && *upd.IsSerialized != t.IsSerialized {
			count, err := countItemsForType(ctx, tx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return invalid("Cannot change is_serialized for '%s': %d item(s) already exist. Delete all items first.", t.Name, count)
			}
			t.IsSerialized = *upd.IsSerialized
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE item_types SET name = ?, sub_type = ?, is_serialized = ?, details = ?, updated_at = ?
			 WHERE id = ?`,
			t.Name, t.SubType, t.IsSerialized, t.Details, timestamp(now()), id,
		)
		if err != nil {
			return fmt.Errorf("updating item type: %w", err)
		}

		updated, err = getItemType(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItemType deletes a type together with its transactions and items.
// Transactions go first because they reference the type without a cascade;
// items cascade from the type. Reports whether the type existed.
func DeleteItemType(ctx context.Context, database *sql.DB, id int64) (bool, error) {
	found := false
	err := withTx(ctx, database, "delete item type", func(tx *sql.Tx) error {
		t, err := getItemType(ctx, tx, id)
		if err != nil || t == nil {
			return err
		}
		found = true

		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE item_type_id = ?`, id); err != nil {
			return fmt.Errorf("deleting type transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_types WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting item type: %w", err)
		}

		slog.Debug("item type deleted", "id", id, "name", t.Name)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		slog.Warn("item type not found for deletion", "id", id)
	}
	return found, nil
}

// SearchItemTypes returns types whose name, sub-type or details contain
// query, ignoring case.
func SearchItemTypes(ctx context.Context, database *sql.DB, query string, limit int) ([]model.ItemType, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + db.EscapeLike(db.Fold(query)) + "%"
	rows, err := database.QueryContext(ctx,
		`SELECT `+itemTypeColumns+` FROM item_types t
		 WHERE casefold(t.name) LIKE ? ESCAPE '\'
		    OR casefold(t.sub_type) LIKE ? ESCAPE '\'
		    OR casefold(t.details) LIKE ? ESCAPE '\'
		 ORDER BY t.name, t.sub_type
		 LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching item types: %w", err)
	}
	defer rows.Close()

	return scanItemTypes(rows)
}

// AutocompleteTypeNames returns distinct type names starting with prefix.
func AutocompleteTypeNames(ctx context.Context, database *sql.DB, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := database.QueryContext(ctx,
		`SELECT DISTINCT name FROM item_types
		 WHERE casefold(name) LIKE ? ESCAPE '\'
		 ORDER BY name LIMIT ?`,
		db.EscapeLike(db.Fold(prefix))+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("autocompleting type names: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// AutocompleteSubTypes returns distinct non-empty sub-types of typeName
// starting with prefix.
func AutocompleteSubTypes(ctx context.Context, database *sql.DB, typeName, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := database.QueryContext(ctx,
		`SELECT DISTINCT sub_type FROM item_types
		 WHERE name = ? AND sub_type != '' AND casefold(sub_type) LIKE ? ESCAPE '\'
		 ORDER BY sub_type LIMIT ?`,
		typeName, db.EscapeLike(db.Fold(prefix))+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("autocompleting sub-types: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetItemTypeImage stores a photo for the type.
func SetItemTypeImage(ctx context.Context, database *sql.DB, id int64, image []byte, mime string) error {
	result, err := database.ExecContext(ctx,
		`UPDATE item_types SET image = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, mime, timestamp(now()), id,
	)
	if err != nil {
		return fmt.Errorf("setting item type image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemTypeImage returns a type's photo and MIME type. Data is nil when
// there is no photo.
func GetItemTypeImage(ctx context.Context, database *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := database.QueryRowContext(ctx,
		`SELECT image, image_mime FROM item_types WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item type image: %w", err)
	}
	return image, mime.String, nil
}
