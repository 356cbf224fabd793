package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/service"
	"github.com/erazemk/trznica/internal/store"
)

// RequestsHandler handles the listing moderation queue.
type RequestsHandler struct {
	Requests *service.Requests
}

type submitRequestBody struct {
	RequestedStatus string `json:"requested_status"`
	Summary         string `json:"summary"`
}

type resolveRequestBody struct {
	RequestedStatus string `json:"requested_status,omitempty"`
	Note            string `json:"note,omitempty"`
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listingID, _ := strconv.ParseInt(q.Get("listing_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	f := store.RequestFilter{
		ListingID: listingID,
		Status:    q.Get("status"),
		Limit:     limit,
		Offset:    offset,
	}

	// Non-admins only see their own requests.
	a := actor(r)
	if !a.Admin {
		f.RequesterID = a.ID
	}

	requests, err := h.Requests.List(r.Context(), f)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list change requests")
		return
	}
	if requests == nil {
		requests = []model.ChangeRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Submit handles POST /api/requests/{listing}.
func (h *RequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	listingID, err := strconv.ParseInt(r.PathValue("listing"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var body submitRequestBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Requests.Submit(r.Context(), actor(r), listingID, body.RequestedStatus, body.Summary)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, req)
}

// Approve handles POST /api/requests/{listing}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, func(listingID int64, body resolveRequestBody) (int64, error) {
		return h.Requests.Approve(r.Context(), actor(r), listingID, body.RequestedStatus)
	})
}

// Reject handles POST /api/requests/{listing}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, func(listingID int64, body resolveRequestBody) (int64, error) {
		return h.Requests.Reject(r.Context(), actor(r), listingID, body.Note)
	})
}

// Cancel handles POST /api/requests/{listing}/cancel.
func (h *RequestsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, func(listingID int64, _ resolveRequestBody) (int64, error) {
		return h.Requests.Cancel(r.Context(), actor(r), listingID)
	})
}

func (h *RequestsHandler) resolve(w http.ResponseWriter, r *http.Request,
	op func(int64, resolveRequestBody) (int64, error)) {
	listingID, err := strconv.ParseInt(r.PathValue("listing"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var body resolveRequestBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	resolved, err := op(listingID, body)
	if err != nil {
		serviceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int64{"resolved": resolved})
}
