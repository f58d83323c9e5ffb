package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/auditmagic/internal/inventory"
	"github.com/erazemk/auditmagic/internal/model"
	"github.com/erazemk/auditmagic/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Svc *inventory.Service
}

type createItemRequest struct {
	TypeName     string `json:"item_type_name" validate:"required,max=200"`
	SubType      string `json:"item_sub_type" validate:"max=200"`
	IsSerialized bool   `json:"is_serialized"`
	Details      string `json:"details"`
	Quantity     int    `json:"quantity" validate:"min=0"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
	Condition    string `json:"condition"`
	Notes        string `json:"notes"`
}

type editItemRequest struct {
	TypeName     string `json:"item_type_name" validate:"required,max=200"`
	SubType      string `json:"item_sub_type" validate:"max=200"`
	IsSerialized bool   `json:"is_serialized"`
	Details      string `json:"details"`
	Quantity     int    `json:"quantity"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
	Condition    string `json:"condition"`
	Reason       string `json:"reason" validate:"required"`
}

type patchItemRequest struct {
	SerialNumber *string `json:"serial_number"`
	Location     *string `json:"location"`
	Condition    *string `json:"condition"`
}

type quantityRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type removeSerialsRequest struct {
	SerialNumbers []string `json:"serial_numbers" validate:"required,min=1,dive,required"`
	Notes         string   `json:"notes"`
}

type createItemResponse struct {
	Item   *model.InventoryItem `json:"item"`
	Merged bool                 `json:"merged"`
}

// List handles GET /api/items. ?location= narrows to one location and
// ?type_id= to one type.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var items []model.InventoryItem
	var err error
	switch {
	case q.Get("type_id") != "":
		typeID, perr := queryInt(r, "type_id")
		if perr != nil {
			jsonError(w, http.StatusBadRequest, perr.Error())
			return
		}
		items, err = store.ListItemsByType(r.Context(), h.Svc.DB, int64(typeID))
	case q.Has("location"):
		items, err = store.ListItemsAtLocation(r.Context(), h.Svc.DB, q.Get("location"))
	default:
		items, err = store.ListItems(r.Context(), h.Svc.DB)
	}
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Grouped handles GET /api/items/grouped. ?serialized=1 restricts it to
// serialized types.
func (h *ItemsHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	var entries []model.Entry
	var err error
	switch r.URL.Query().Get("serialized") {
	case "1", "true":
		entries, err = h.Svc.ListSerializedGroupedEntries(r.Context())
	default:
		entries, err = h.Svc.ListGroupedEntries(r.Context())
	}
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Create handles POST /api/items. Bulk stock of a type that already has a
// bulk row is merged into it.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, merged, err := h.Svc.CreateOrMergeItem(r.Context(), inventory.CreateRequest{
		TypeName:     req.TypeName,
		SubType:      req.SubType,
		IsSerialized: req.IsSerialized,
		Details:      req.Details,
		Quantity:     req.Quantity,
		SerialNumber: req.SerialNumber,
		Location:     req.Location,
		Condition:    req.Condition,
		Notes:        req.Notes,
		CreatedBy:    actor(r),
	})
	if err != nil {
		storeError(w, err, "create item")
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	slog.Info("item created", "user", actorName(r), "item", item.DisplayInfo(), "merged", merged)
	jsonResponse(w, status, createItemResponse{Item: item, Merged: merged})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	item, err := h.Svc.GetItem(r.Context(), id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// BySerial handles GET /api/items/by-serial/{serial}.
func (h *ItemsHandler) BySerial(w http.ResponseWriter, r *http.Request) {
	serial := strings.TrimSpace(r.PathValue("serial"))
	if serial == "" {
		jsonError(w, http.StatusBadRequest, "serial number is required")
		return
	}

	item, err := h.Svc.GetItemBySerial(r.Context(), serial)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Edit handles PUT /api/items/{id}. The change is audited with the reason.
func (h *ItemsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	var req editItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := h.Svc.EditItem(r.Context(), inventory.EditRequest{
		ItemID:       id,
		TypeName:     req.TypeName,
		SubType:      req.SubType,
		IsSerialized: req.IsSerialized,
		Details:      req.Details,
		Quantity:     req.Quantity,
		SerialNumber: req.SerialNumber,
		Location:     req.Location,
		Condition:    req.Condition,
		Reason:       req.Reason,
		CreatedBy:    actor(r),
	})
	if err != nil {
		storeError(w, err, "edit item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item edited", "user", actorName(r), "item", item.DisplayInfo(), "reason", req.Reason)
	jsonResponse(w, http.StatusOK, item)
}

// Patch handles PATCH /api/items/{id}. Only the given fields change and no
// transaction is recorded.
func (h *ItemsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	var req patchItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := h.Svc.UpdateItem(r.Context(), id, store.ItemUpdate{
		SerialNumber: req.SerialNumber,
		Location:     req.Location,
		Condition:    req.Condition,
	})
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	found, err := h.Svc.DeleteItem(r.Context(), id)
	if err != nil {
		storeError(w, err, "delete item")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item deleted", "user", actorName(r), "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// AddQuantity handles POST /api/items/{id}/add.
func (h *ItemsHandler) AddQuantity(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, h.Svc.AddQuantity, "add quantity")
}

// RemoveQuantity handles POST /api/items/{id}/remove. Removing the whole
// stock deletes the row; the response then carries quantity 0.
func (h *ItemsHandler) RemoveQuantity(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, h.Svc.RemoveQuantity, "remove quantity")
}

type quantityFunc func(ctx context.Context, itemID int64, quantity int, notes string, by *int64) (*model.InventoryItem, error)

func (h *ItemsHandler) changeQuantity(w http.ResponseWriter, r *http.Request, fn quantityFunc, action string) {
	id, ok := pathID(w, r, "item")
	if !ok {
		return
	}

	var req quantityRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := fn(r.Context(), id, req.Quantity, req.Notes, actor(r))
	if err != nil {
		storeError(w, err, action)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item quantity changed", "user", actorName(r), "action", action, "item", item.DisplayInfo(), "by", req.Quantity)
	jsonResponse(w, http.StatusOK, item)
}

// RemoveSerials handles POST /api/items/remove-serials.
func (h *ItemsHandler) RemoveSerials(w http.ResponseWriter, r *http.Request) {
	var req removeSerialsRequest
	if !decodeValid(w, r, &req) {
		return
	}

	n, err := h.Svc.DeleteItemsBySerialNumbers(r.Context(), req.SerialNumbers, req.Notes, actor(r))
	if err != nil {
		storeError(w, err, "remove items")
		return
	}

	slog.Info("serialized items removed", "user", actorName(r), "requested", len(req.SerialNumbers), "removed", n)
	jsonResponse(w, http.StatusOK, map[string]int{"removed": n})
}
