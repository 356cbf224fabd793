package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/audit"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// Requests is the durable moderation queue. A pending request gates only the
// status transition path, never inventory operations, so request rows need
// no locking beyond normal row update semantics.
type Requests struct {
	DB    *sql.DB
	Audit *audit.Log
}

// Submit records a proposed status change for a listing as a pending
// request. Concurrent requests for the same listing and status are allowed;
// each resolves independently.
func (s *Requests) Submit(ctx context.Context, actor model.Actor, listingID int64, requestedStatus, summary string) (*model.ChangeRequest, error) {
	if !model.ValidListingStatus(requestedStatus) {
		return nil, &ValidationError{Field: "requested_status", Reason: fmt.Sprintf("unknown status %q", requestedStatus)}
	}

	l, err := store.GetListing(ctx, s.DB, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
	}
	if !actor.CanManageListing(l) {
		return nil, fmt.Errorf("requesting change for listing %d: %w", listingID, ErrPermissionDenied)
	}

	req, err := store.CreateChangeRequest(ctx, s.DB, listingID, actor.ID, requestedStatus, summary)
	if err != nil {
		return nil, err
	}

	s.Audit.Event("request.submit", map[string]any{
		"request_id": req.ID, "listing_id": listingID,
		"actor_id": actor.ID, "requested_status": requestedStatus,
	})

	return req, nil
}

// Approve marks a listing's pending requests approved, optionally limited to
// one requested status, stamping reviewer and resolution time. Admin only.
func (s *Requests) Approve(ctx context.Context, reviewer model.Actor, listingID int64, requestedStatus string) (int64, error) {
	if !reviewer.Admin {
		return 0, fmt.Errorf("approving requests for listing %d: %w", listingID, ErrPermissionDenied)
	}

	resolved, err := store.ApproveOpenRequests(ctx, s.DB, listingID, reviewer.ID, requestedStatus)
	if err != nil {
		return 0, err
	}

	s.Audit.Event("request.approve", map[string]any{
		"listing_id": listingID, "reviewer_id": reviewer.ID, "resolved": resolved,
	})

	return resolved, nil
}

// Reject marks a listing's pending requests rejected with a review note.
// Admin only.
func (s *Requests) Reject(ctx context.Context, reviewer model.Actor, listingID int64, note string) (int64, error) {
	if !reviewer.Admin {
		return 0, fmt.Errorf("rejecting requests for listing %d: %w", listingID, ErrPermissionDenied)
	}

	resolved, err := store.RejectOpenRequests(ctx, s.DB, listingID, reviewer.ID, note)
	if err != nil {
		return 0, err
	}

	s.Audit.Event("request.reject", map[string]any{
		"listing_id": listingID, "reviewer_id": reviewer.ID, "resolved": resolved,
	})

	return resolved, nil
}

// Cancel withdraws the actor's own pending requests for a listing.
func (s *Requests) Cancel(ctx context.Context, actor model.Actor, listingID int64) (int64, error) {
	cancelled, err := store.CancelOpenRequests(ctx, s.DB, listingID, actor.ID)
	if err != nil {
		return 0, err
	}

	s.Audit.Event("request.cancel", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID, "cancelled": cancelled,
	})

	return cancelled, nil
}

// List returns change requests matching the filter.
func (s *Requests) List(ctx context.Context, f store.RequestFilter) ([]model.ChangeRequest, error) {
	return store.ListChangeRequests(ctx, s.DB, f)
}
