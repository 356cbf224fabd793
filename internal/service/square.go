package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/audit"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// Square bridges local records to the Square catalog. It only records sync
// intent; an out-of-process worker performs the network calls, and
// authoritative stock merges always flow through Inventory.ReconcileStock so
// one code path enforces the invariants.
type Square struct {
	DB      *sql.DB
	Audit   *audit.Log
	Enabled bool
}

// IsEnabled reports whether Square sync is configured.
func (s *Square) IsEnabled() bool {
	return s != nil && s.Enabled && s.DB != nil
}

// QueueListingSync upserts the listing's catalog mapping and marks it
// pending for the sync worker. New objects get a client object id (Square's
// "#..." convention) until the worker learns the real catalog id.
func (s *Square) QueueListingSync(ctx context.Context, actor model.Actor, listingID int64) (*model.SyncMapping, error) {
	if !s.IsEnabled() {
		return nil, ErrSyncDisabled
	}

	l, err := store.GetListing(ctx, s.DB, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
	}
	if !actor.CanManageListing(l) {
		return nil, fmt.Errorf("queueing sync for listing %d: %w", listingID, ErrPermissionDenied)
	}

	objectID := "#listing-" + uuid.NewString()
	if existing, err := store.GetSyncMapping(ctx, s.DB, model.SyncTypeListing, listingID); err != nil {
		return nil, err
	} else if existing != nil {
		objectID = existing.SquareObjectID
	}

	mapping, err := store.UpsertSyncMapping(ctx, s.DB, model.SyncTypeListing, listingID, objectID)
	if err != nil {
		return nil, err
	}

	s.Audit.Event("square.queue_sync", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID,
		"square_object_id": mapping.SquareObjectID,
	})

	return mapping, nil
}

// SyncState returns the current sync mappings for the given listings.
// Listings never queued for sync have no entry.
func (s *Square) SyncState(ctx context.Context, listingIDs []int64) ([]model.SyncMapping, error) {
	if !s.IsEnabled() {
		return nil, ErrSyncDisabled
	}
	return store.ListSyncMappings(ctx, s.DB, model.SyncTypeListing, listingIDs)
}

// SKUForCatalogObject resolves a Square catalog object id from a webhook
// payload to a local SKU: first through the mapping table, then by treating
// the object id as a SKU directly. Returns "" for unknown objects.
func (s *Square) SKUForCatalogObject(ctx context.Context, objectID string) (string, error) {
	mapping, err := store.GetSyncMappingByObjectID(ctx, s.DB, objectID)
	if err != nil {
		return "", err
	}
	if mapping != nil && mapping.LocalType == model.SyncTypeItem {
		item, err := store.GetItem(ctx, s.DB, mapping.LocalID)
		if err != nil {
			return "", err
		}
		if item != nil {
			return item.SKU, nil
		}
	}

	item, err := store.GetItemBySKU(ctx, s.DB, objectID)
	if err != nil {
		return "", err
	}
	if item != nil {
		return item.SKU, nil
	}
	return "", nil
}
