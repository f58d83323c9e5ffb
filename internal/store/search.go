package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/erazemk/auditmagic/internal/db"
	"github.com/erazemk/auditmagic/internal/model"
)

// Default result caps.
const (
	DefaultSearchLimit     = 200
	DefaultSuggestionLimit = 10
)

// searchColumns maps a search field to the columns it matches.
var searchColumns = map[string][]string{
	model.FieldItemType:     {"t.name"},
	model.FieldSubType:      {"t.sub_type"},
	model.FieldDetails:      {"t.details"},
	model.FieldSerialNumber: {"i.serial_number"},
	"":                      {"t.name", "t.sub_type", "t.details", "i.serial_number"},
}

// SearchItems returns items whose field contains query, ignoring case. An
// empty field searches the type name, sub-type, details and serial number.
func SearchItems(ctx context.Context, database *sql.DB, query, field string, limit int) ([]model.InventoryItem, error) {
	cols, ok := searchColumns[field]
	if !ok {
		return nil, invalid("Unknown search field '%s'", field)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	pattern := "%" + db.EscapeLike(db.Fold(query)) + "%"
	conds := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		conds[i] = "casefold(" + col + `) LIKE ? ESCAPE '\'`
		args = append(args, pattern)
	}
	args = append(args, limit)

	rows, err := database.QueryContext(ctx,
		`SELECT `+inventoryColumns+`
		 FROM items i
		 JOIN item_types t ON t.id = i.item_type_id
		 WHERE `+strings.Join(conds, " OR ")+`
		 ORDER BY t.name, t.sub_type, i.serial_number, i.id
		 LIMIT ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	return scanInventoryItems(rows)
}

// AutocompleteSuggestions returns distinct values of field starting with
// prefix, sorted and capped at limit. For details, individual words starting
// with prefix are suggested. An empty field draws from all fields.
func AutocompleteSuggestions(ctx context.Context, database *sql.DB, prefix, field string, limit int) ([]string, error) {
	if !model.ValidSearchField(field) {
		return nil, invalid("Unknown search field '%s'", field)
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	folded := db.Fold(prefix)
	starts := db.EscapeLike(folded) + "%"
	seen := map[string]bool{}

	collect := func(query string, args ...any) error {
		rows, err := database.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("autocompleting: %w", err)
		}
		defer rows.Close()
		values, err := scanStrings(rows)
		if err != nil {
			return err
		}
		for _, v := range values {
			if v != "" {
				seen[v] = true
			}
		}
		return nil
	}

	if field == "" || field == model.FieldItemType {
		if err := collect(
			`SELECT DISTINCT name FROM item_types
			 WHERE casefold(name) LIKE ? ESCAPE '\' LIMIT ?`, starts, limit,
		); err != nil {
			return nil, err
		}
	}
	if field == "" || field == model.FieldSubType {
		if err := collect(
			`SELECT DISTINCT sub_type FROM item_types
			 WHERE sub_type != '' AND casefold(sub_type) LIKE ? ESCAPE '\' LIMIT ?`, starts, limit,
		); err != nil {
			return nil, err
		}
	}
	if field == "" || field == model.FieldDetails {
		rows, err := database.QueryContext(ctx,
			`SELECT details FROM item_types
			 WHERE casefold(details) LIKE ? ESCAPE '\' LIMIT ?`,
			"%"+db.EscapeLike(folded)+"%", limit,
		)
		if err != nil {
			return nil, fmt.Errorf("autocompleting details: %w", err)
		}
		details, err := scanStrings(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		for _, d := range details {
			for _, word := range strings.Fields(d) {
				if strings.HasPrefix(db.Fold(word), folded) {
					seen[word] = true
				}
			}
		}
	}
	if field == "" || field == model.FieldSerialNumber {
		if err := collect(
			`SELECT DISTINCT serial_number FROM items
			 WHERE serial_number IS NOT NULL AND casefold(serial_number) LIKE ? ESCAPE '\' LIMIT ?`, starts, limit,
		); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
