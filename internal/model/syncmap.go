package model

import "time"

// SyncMapping links a local record to its Square catalog object and tracks
// the state of the out-of-process sync worker for it.
type SyncMapping struct {
	ID             int64      `json:"id"`
	LocalType      string     `json:"local_type"`
	LocalID        int64      `json:"local_id"`
	SquareObjectID string     `json:"square_object_id"`
	SyncStatus     string     `json:"sync_status"`
	SyncError      string     `json:"sync_error,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Local record types for sync mappings.
const (
	SyncTypeListing = "listing"
	SyncTypeItem    = "inventory_item"
)

// Sync statuses.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)
