package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/service"
	"github.com/erazemk/trznica/internal/store"
)

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	DB        *sql.DB
	Inventory *service.Inventory
}

type adjustStockRequest struct {
	SKU              string `json:"sku"`
	Delta            int    `json:"delta"`
	ReorderThreshold *int   `json:"reorder_threshold,omitempty"`
}

// List handles GET /api/inventory. Admins see everything, other roles their
// own items.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	ownerID := a.ID
	if a.Admin {
		ownerID = 0
	}

	items, err := store.ListItems(r.Context(), h.DB, ownerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/inventory/{sku}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")

	item, err := store.GetItemBySKU(r.Context(), h.DB, sku)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || !actor(r).CanManageItem(item) {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Adjust handles POST /api/inventory/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SKU == "" || req.Delta == 0 {
		jsonError(w, http.StatusBadRequest, "sku and non-zero delta required")
		return
	}

	state, err := h.Inventory.AdjustStock(r.Context(), actor(r), req.SKU, req.Delta, req.ReorderThreshold)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, state)
}

// Reorder handles GET /api/inventory/reorder: items at or below their
// reorder threshold.
func (h *InventoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	ownerID := a.ID
	if a.Admin {
		ownerID = 0
	}

	items, err := store.ListBelowReorder(r.Context(), h.DB, ownerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list reorder candidates")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Transactions handles GET /api/inventory/{sku}/transactions.
func (h *InventoryHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")

	item, err := store.GetItemBySKU(r.Context(), h.DB, sku)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || !actor(r).CanManageItem(item) {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	txs, err := store.ListTransactions(r.Context(), h.DB, sku, limit, offset)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []model.InventoryTransaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}
