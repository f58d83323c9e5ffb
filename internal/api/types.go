package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/auditmagic/internal/imaging"
	"github.com/erazemk/auditmagic/internal/inventory"
	"github.com/erazemk/auditmagic/internal/model"
	"github.com/erazemk/auditmagic/internal/store"
)

// TypesHandler handles item type endpoints.
type TypesHandler struct {
	Svc *inventory.Service
}

type createTypeRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	SubType      string `json:"sub_type" validate:"max=200"`
	IsSerialized bool   `json:"is_serialized"`
	Details      string `json:"details"`
}

func (req createTypeRequest) spec() store.TypeSpec {
	return store.TypeSpec{
		Name:         req.Name,
		SubType:      req.SubType,
		IsSerialized: req.IsSerialized,
		Details:      req.Details,
	}
}

type updateTypeRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	SubType      *string `json:"sub_type" validate:"omitempty,max=200"`
	IsSerialized *bool   `json:"is_serialized"`
	Details      *string `json:"details"`
}

type createSerialRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	Location     string `json:"location"`
	Condition    string `json:"condition"`
	Notes        string `json:"notes"`
}

type typeResponse struct {
	Type  model.ItemType        `json:"type"`
	Items []model.InventoryItem `json:"items"`
}

// List handles GET /api/types. With ?q= it searches names, sub-types and
// details.
func (h *TypesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	var types []model.ItemType
	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		types, err = store.SearchItemTypes(r.Context(), h.Svc.DB, q, limit)
	} else {
		types, err = store.ListItemTypes(r.Context(), h.Svc.DB)
	}
	if err != nil {
		storeError(w, err, "list item types")
		return
	}
	if types == nil {
		types = []model.ItemType{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// Create handles POST /api/types. An existing name and sub-type is a 409.
func (h *TypesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTypeRequest
	if !decodeValid(w, r, &req) {
		return
	}

	t, err := h.Svc.CreateItemType(r.Context(), req.spec())
	if err != nil {
		storeError(w, err, "create item type")
		return
	}

	slog.Info("item type created", "user", actorName(r), "type", t.DisplayName(), "serialized", t.IsSerialized)
	jsonResponse(w, http.StatusCreated, t)
}

// Ensure handles PUT /api/types. It returns the named type, creating it when
// missing. An existing type with the other serialization mode is a 409.
func (h *TypesHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	var req createTypeRequest
	if !decodeValid(w, r, &req) {
		return
	}

	t, err := h.Svc.EnsureItemType(r.Context(), req.spec())
	if err != nil {
		storeError(w, err, "ensure item type")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Lookup handles GET /api/types/lookup?name=&sub_type=.
func (h *TypesHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		jsonError(w, http.StatusBadRequest, "name is required")
		return
	}

	t, err := store.GetItemTypeByName(r.Context(), h.Svc.DB, name, r.URL.Query().Get("sub_type"))
	if err != nil {
		storeError(w, err, "look up item type")
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "item type not found")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Get handles GET /api/types/{id}.
func (h *TypesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	t, err := store.GetItemType(r.Context(), h.Svc.DB, id)
	if err != nil {
		storeError(w, err, "get item type")
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "item type not found")
		return
	}

	items, err := store.ListItemsByType(r.Context(), h.Svc.DB, id)
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, typeResponse{Type: *t, Items: items})
}

// Update handles PUT /api/types/{id}.
func (h *TypesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	var req updateTypeRequest
	if !decodeValid(w, r, &req) {
		return
	}

	t, err := h.Svc.UpdateItemType(r.Context(), id, store.ItemTypeUpdate{
		Name:         req.Name,
		SubType:      req.SubType,
		IsSerialized: req.IsSerialized,
		Details:      req.Details,
	})
	if err != nil {
		storeError(w, err, "update item type")
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "item type not found")
		return
	}

	slog.Info("item type updated", "user", actorName(r), "type", t.DisplayName())
	jsonResponse(w, http.StatusOK, t)
}

// Delete handles DELETE /api/types/{id}. Items and transactions of the type
// go with it.
func (h *TypesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	n, found, err := h.Svc.DeleteItemType(r.Context(), id)
	if err != nil {
		storeError(w, err, "delete item type")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "item type not found")
		return
	}

	slog.Info("item type deleted", "user", actorName(r), "id", id, "items", n)
	jsonResponse(w, http.StatusOK, map[string]any{"message": "item type deleted", "items_deleted": n})
}

// UploadImage handles PUT /api/types/{id}/image.
func (h *TypesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	// Leave room for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
		return
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetItemTypeImage(r.Context(), h.Svc.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "save image")
		return
	}

	slog.Info("item type image uploaded", "user", actorName(r), "id", id, "width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/types/{id}/image.
func (h *TypesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	data, mime, err := store.GetItemTypeImage(r.Context(), h.Svc.DB, id)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// Serials handles GET /api/types/{id}/serials.
func (h *TypesHandler) Serials(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	serials, err := store.ListSerialNumbersForType(r.Context(), h.Svc.DB, id)
	if err != nil {
		storeError(w, err, "list serial numbers")
		return
	}
	if serials == nil {
		serials = []string{}
	}
	jsonResponse(w, http.StatusOK, serials)
}

// CreateSerial handles POST /api/types/{id}/serials.
func (h *TypesHandler) CreateSerial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	var req createSerialRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := h.Svc.CreateSerializedItem(r.Context(), store.NewSerializedItem{
		ItemTypeID:   id,
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

	slog.Info("serialized item created", "user", actorName(r), "type", item.TypeName, "serial", item.Serial())
	jsonResponse(w, http.StatusCreated, item)
}

// Transactions handles GET /api/types/{id}/transactions?from=&to=&limit=.
func (h *TypesHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "item type")
	if !ok {
		return
	}

	f, err := parseTransactionFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := store.ListTransactionsForType(r.Context(), h.Svc.DB, id, f.From, f.To, f.Limit)
	if err != nil {
		storeError(w, err, "list transactions")
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}
