package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/audit"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// Listings implements listing creation and the governed status state
// machine. Moderation-gated transitions by non-admin actors are recorded as
// change requests instead of being applied.
type Listings struct {
	DB    *sql.DB
	Audit *audit.Log
}

// CreateListingInput carries the caller-supplied listing fields.
type CreateListingInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	ProductSKU  *string `json:"product_sku,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
}

// StatusResult reports the outcome of an UpdateStatus call. Exactly one of
// Changed and RequiresReview is true unless the call was a same-status
// no-op.
type StatusResult struct {
	ListingID        int64  `json:"listing_id"`
	Status           string `json:"status"`
	Changed          bool   `json:"changed"`
	RequiresReview   bool   `json:"requires_review"`
	RequestID        int64  `json:"request_id,omitempty"`
	ResolvedRequests int64  `json:"resolved_requests,omitempty"`
}

// Create validates and inserts a listing. Without autoApprove the listing
// starts pending with an "awaiting approval" change request, inserted in the
// same transaction.
func (s *Listings) Create(ctx context.Context, actor model.Actor, in CreateListingInput, autoApprove bool) (*model.Listing, error) {
	if in.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "required"}
	}
	if in.PriceCents < 0 {
		return nil, &ValidationError{Field: "price_cents", Reason: "must not be negative"}
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if in.ProductSKU != nil {
		item, err := store.GetItemBySKU(ctx, tx, *in.ProductSKU)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("inventory item %q: %w", *in.ProductSKU, ErrNotFound)
		}
		if !actor.CanManageItem(item) {
			return nil, fmt.Errorf("listing item %q: %w", *in.ProductSKU, ErrPermissionDenied)
		}
	}

	status := model.ListingPending
	if autoApprove {
		status = model.ListingApproved
	}

	l, err := store.CreateListing(ctx, tx, &model.Listing{
		OwnerID:     actor.ID,
		ProductSKU:  in.ProductSKU,
		Title:       in.Title,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Status:      status,
		Quantity:    in.Quantity,
	})
	if err != nil {
		return nil, err
	}

	if !autoApprove {
		if _, err := store.CreateChangeRequest(ctx, tx, l.ID, actor.ID, model.ListingApproved, "awaiting approval"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing listing: %w", err)
	}

	s.Audit.Event("listing.create", map[string]any{
		"listing_id": l.ID, "actor_id": actor.ID,
		"status": status, "auto_approve": autoApprove,
	})

	return l, nil
}

// UpdateStatus moves a listing along the status state machine. Targets that
// require approval are not applied for non-admin actors; a pending change
// request is enqueued instead and the listing keeps its status. A direct
// application auto-resolves open change requests for the listing as
// approved.
func (s *Listings) UpdateStatus(ctx context.Context, actor model.Actor, listingID int64, target string) (*StatusResult, error) {
	if !model.ValidListingStatus(target) {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	l, err := store.GetListing(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
	}
	if !actor.CanManageListing(l) {
		s.Audit.Fail("listing.status", ErrPermissionDenied, map[string]any{
			"listing_id": listingID, "actor_id": actor.ID, "target": target,
		})
		return nil, fmt.Errorf("updating listing %d: %w", listingID, ErrPermissionDenied)
	}

	// Same-status transitions are a no-op success.
	if l.Status == target {
		return &StatusResult{ListingID: listingID, Status: l.Status}, nil
	}

	if !model.CanTransition(l.Status, target) {
		s.Audit.Fail("listing.status", ErrInvalidTransition, map[string]any{
			"listing_id": listingID, "actor_id": actor.ID,
			"from": l.Status, "target": target,
		})
		return nil, fmt.Errorf("listing %d: %s -> %s: %w", listingID, l.Status, target, ErrInvalidTransition)
	}

	if model.StatusRequiresReview(l.Status, target) && !actor.Admin {
		req, err := store.CreateChangeRequest(ctx, tx, listingID, actor.ID, target, "awaiting approval")
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing change request: %w", err)
		}

		s.Audit.Event("listing.status_requested", map[string]any{
			"listing_id": listingID, "actor_id": actor.ID,
			"target": target, "request_id": req.ID,
		})

		return &StatusResult{
			ListingID:      listingID,
			Status:         l.Status,
			RequiresReview: true,
			RequestID:      req.ID,
		}, nil
	}

	if err := store.SetListingStatus(ctx, tx, listingID, target); err != nil {
		return nil, err
	}

	resolved, err := store.ApproveOpenRequests(ctx, tx, listingID, actor.ID, "")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}

	s.Audit.Event("listing.status_changed", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID,
		"from": l.Status, "status": target, "resolved_requests": resolved,
	})

	return &StatusResult{
		ListingID:        listingID,
		Status:           target,
		Changed:          true,
		ResolvedRequests: resolved,
	}, nil
}

// Delete soft-deletes a listing and cancels its open change requests so no
// orphaned pending rows survive the listing.
func (s *Listings) Delete(ctx context.Context, actor model.Actor, listingID int64) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	l, err := store.GetListing(ctx, tx, listingID)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
	}
	if !actor.CanManageListing(l) {
		return fmt.Errorf("deleting listing %d: %w", listingID, ErrPermissionDenied)
	}

	cancelled, err := store.CancelOpenRequests(ctx, tx, listingID, 0)
	if err != nil {
		return err
	}
	if err := store.SoftDeleteListing(ctx, tx, listingID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing listing deletion: %w", err)
	}

	s.Audit.Event("listing.delete", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID, "cancelled_requests": cancelled,
	})

	return nil
}

// Get returns a listing by id, or ErrNotFound.
func (s *Listings) Get(ctx context.Context, listingID int64) (*model.Listing, error) {
	l, err := store.GetListing(ctx, s.DB, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
	}
	return l, nil
}

// List returns listings matching the filter.
func (s *Listings) List(ctx context.Context, f store.ListingFilter) ([]model.Listing, error) {
	return store.ListListings(ctx, s.DB, f)
}
