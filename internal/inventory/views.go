package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/erazemk/auditmagic/internal/model"
	"github.com/erazemk/auditmagic/internal/store"
)

// ListEntries returns every item as an individual entry.
func (s *Service) ListEntries(ctx context.Context) ([]model.Entry, error) {
	items, err := store.ListItems(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, model.IndividualEntry(it))
	}
	return entries, nil
}

// ListGroupedEntries returns one entry per type that has items. A type with
// a single item is shown as that item; larger groups are aggregated.
func (s *Service) ListGroupedEntries(ctx context.Context) ([]model.Entry, error) {
	groups, err := store.ListTypesWithItems(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return toEntries(groups), nil
}

// ListSerializedGroupedEntries is ListGroupedEntries for serialized types only.
func (s *Service) ListSerializedGroupedEntries(ctx context.Context) ([]model.Entry, error) {
	groups, err := store.ListSerializedTypesWithItems(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return toEntries(groups), nil
}

func toEntries(groups []model.TypeWithItems) []model.Entry {
	entries := make([]model.Entry, 0, len(groups))
	for _, g := range groups {
		if len(g.Items) == 1 {
			entries = append(entries, model.IndividualEntry(model.NewInventoryItem(g.Items[0], g.Type)))
			continue
		}
		entries = append(entries, model.GroupedEntry(model.NewGroupedItem(g.Type, g.Items)))
	}
	return entries
}

// Search finds items and remembers non-blank queries in the search history
// when history saving is enabled. A failure to record history is logged and
// does not fail the search.
func (s *Service) Search(ctx context.Context, query, field string) ([]model.InventoryItem, error) {
	if !model.ValidSearchField(field) {
		return nil, &store.ValidationError{Message: "Unknown search field '" + field + "'"}
	}

	if strings.TrimSpace(query) != "" {
		save, err := s.HistoryEnabled(ctx)
		if err != nil {
			return nil, err
		}
		if save {
			if _, err := store.AddSearchHistory(ctx, s.DB, query, field); err != nil {
				slog.Error("failed to save search history", "error", err)
			}
		}
	}

	return store.SearchItems(ctx, s.DB, query, field, 0)
}

// HistoryEnabled reports whether searches are remembered. The stored setting
// wins over the configured default.
func (s *Service) HistoryEnabled(ctx context.Context) (bool, error) {
	return store.GetBoolSetting(ctx, s.DB, store.SettingSaveHistory, s.SaveHistory)
}

// SetHistoryEnabled persists the history switch. Turning it off also clears
// the remembered searches.
func (s *Service) SetHistoryEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	if err := store.SetSetting(ctx, s.DB, store.SettingSaveHistory, value); err != nil {
		return err
	}
	if !enabled {
		return store.ClearSearchHistory(ctx, s.DB)
	}
	return nil
}
