package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/auditmagic/internal/inventory"
	"github.com/erazemk/auditmagic/internal/model"
	"github.com/erazemk/auditmagic/internal/store"
)

// SearchHandler handles search, autocomplete and search history endpoints.
type SearchHandler struct {
	Svc *inventory.Service
}

type historySettingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Search handles GET /api/search?q=&field=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Svc.Search(r.Context(), q.Get("q"), q.Get("field"))
	if err != nil {
		storeError(w, err, "search")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Autocomplete handles GET /api/search/autocomplete?prefix=&field=&limit=.
func (h *SearchHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	suggestions, err := store.AutocompleteSuggestions(r.Context(), h.Svc.DB, q.Get("prefix"), q.Get("field"), limit)
	if err != nil {
		storeError(w, err, "autocomplete")
		return
	}
	writeStrings(w, suggestions)
}

// TypeNames handles GET /api/autocomplete/types?prefix=&limit=.
func (h *SearchHandler) TypeNames(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	names, err := store.AutocompleteTypeNames(r.Context(), h.Svc.DB, r.URL.Query().Get("prefix"), limit)
	if err != nil {
		storeError(w, err, "autocomplete type names")
		return
	}
	writeStrings(w, names)
}

// SubTypes handles GET /api/autocomplete/subtypes?type=&prefix=&limit=.
func (h *SearchHandler) SubTypes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	subTypes, err := store.AutocompleteSubTypes(r.Context(), h.Svc.DB, q.Get("type"), q.Get("prefix"), limit)
	if err != nil {
		storeError(w, err, "autocomplete sub-types")
		return
	}
	writeStrings(w, subTypes)
}

// History handles GET /api/search/history.
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := store.ListSearchHistory(r.Context(), h.Svc.DB, 0)
	if err != nil {
		storeError(w, err, "list search history")
		return
	}
	if entries == nil {
		entries = []model.SearchHistory{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// ClearHistory handles DELETE /api/search/history.
func (h *SearchHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := store.ClearSearchHistory(r.Context(), h.Svc.DB); err != nil {
		storeError(w, err, "clear search history")
		return
	}
	slog.Info("search history cleared", "user", actorName(r))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "search history cleared"})
}

// HistorySetting handles GET /api/search/history/setting.
func (h *SearchHandler) HistorySetting(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.Svc.HistoryEnabled(r.Context())
	if err != nil {
		storeError(w, err, "read setting")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// SetHistorySetting handles PUT /api/search/history/setting. Disabling
// history also clears it.
func (h *SearchHandler) SetHistorySetting(w http.ResponseWriter, r *http.Request) {
	var req historySettingRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := h.Svc.SetHistoryEnabled(r.Context(), *req.Enabled); err != nil {
		storeError(w, err, "save setting")
		return
	}
	slog.Info("search history setting changed", "user", actorName(r), "enabled", *req.Enabled)
	jsonResponse(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}

func writeStrings(w http.ResponseWriter, values []string) {
	if values == nil {
		values = []string{}
	}
	jsonResponse(w, http.StatusOK, values)
}
