package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/trznica/internal/imaging"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/service"
	"github.com/erazemk/trznica/internal/store"
)

// ListingsHandler handles listing endpoints, including the checkout
// collaborators (reserve/release/capture) and Square sync queueing.
type ListingsHandler struct {
	DB        *sql.DB
	Listings  *service.Listings
	Inventory *service.Inventory
	Square    *service.Square
}

type statusRequest struct {
	Status string `json:"status"`
}

type reserveRequest struct {
	Quantity int    `json:"quantity"`
	OrderRef string `json:"order_ref,omitempty"`
}

// Create handles POST /api/listings. Admin-created listings skip moderation.
func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateListingInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a := actor(r)
	listing, err := h.Listings.Create(r.Context(), a, req, a.Admin)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, listing)
}

// List handles GET /api/listings.
func (h *ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ownerID, _ := strconv.ParseInt(q.Get("owner_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	listings, err := h.Listings.List(r.Context(), store.ListingFilter{
		OwnerID: ownerID,
		Status:  q.Get("status"),
		SKU:     q.Get("sku"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list listings")
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	jsonResponse(w, http.StatusOK, listings)
}

// Get handles GET /api/listings/{id}.
func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := h.Listings.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, listing)
}

// UpdateStatus handles PUT /api/listings/{id}/status.
func (h *ListingsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Listings.UpdateStatus(r.Context(), actor(r), id, req.Status)
	if err != nil {
		serviceError(w, err)
		return
	}

	status := http.StatusOK
	if result.RequiresReview {
		status = http.StatusAccepted
	}
	jsonResponse(w, status, result)
}

// Delete handles DELETE /api/listings/{id}.
func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	if err := h.Listings.Delete(r.Context(), actor(r), id); err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

// Reserve handles POST /api/listings/{id}/reserve.
func (h *ListingsHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.reservation(w, r, func(id int64, req reserveRequest) (*service.ReservationState, error) {
		return h.Inventory.Reserve(r.Context(), actor(r), id, req.Quantity)
	})
}

// Release handles POST /api/listings/{id}/release.
func (h *ListingsHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.reservation(w, r, func(id int64, req reserveRequest) (*service.ReservationState, error) {
		return h.Inventory.Release(r.Context(), actor(r), id, req.Quantity)
	})
}

// Capture handles POST /api/listings/{id}/capture.
func (h *ListingsHandler) Capture(w http.ResponseWriter, r *http.Request) {
	h.reservation(w, r, func(id int64, req reserveRequest) (*service.ReservationState, error) {
		return h.Inventory.Capture(r.Context(), actor(r), id, req.Quantity, req.OrderRef)
	})
}

func (h *ListingsHandler) reservation(w http.ResponseWriter, r *http.Request,
	op func(int64, reserveRequest) (*service.ReservationState, error)) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "positive quantity required")
		return
	}

	state, err := op(id, req)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, state)
}

// UploadImage handles PUT /api/listings/{id}/image.
func (h *ListingsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := h.Listings.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if !actor(r).CanManageListing(listing) {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetListingImage(r.Context(), h.DB, id, processed.Data, processed.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/listings/{id}/image.
func (h *ListingsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	data, mime, err := store.GetListingImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Sync handles POST /api/listings/{id}/sync.
func (h *ListingsHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	mapping, err := h.Square.QueueListingSync(r.Context(), actor(r), id)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusAccepted, mapping)
}

// SyncState handles GET /api/listings/sync-state?ids=1,2,3.
func (h *ListingsHandler) SyncState(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	for _, part := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid listing id list")
			return
		}
		ids = append(ids, id)
	}

	mappings, err := h.Square.SyncState(r.Context(), ids)
	if err != nil {
		serviceError(w, err)
		return
	}
	if mappings == nil {
		mappings = []model.SyncMapping{}
	}
	jsonResponse(w, http.StatusOK, mappings)
}
