package store

import (
	"context"
	"testing"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func TestUpsertSyncMapping(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, err := UpsertSyncMapping(ctx, database, model.SyncTypeListing, 1, "#listing-abc")
	if err != nil {
		t.Fatalf("UpsertSyncMapping: %v", err)
	}
	if m.SyncStatus != model.SyncPending {
		t.Errorf("expected pending, got %q", m.SyncStatus)
	}

	// Upserting the same record updates in place.
	again, err := UpsertSyncMapping(ctx, database, model.SyncTypeListing, 1, "SQID1")
	if err != nil {
		t.Fatalf("second UpsertSyncMapping: %v", err)
	}
	if again.ID != m.ID {
		t.Errorf("expected same row, got %d and %d", m.ID, again.ID)
	}
	if again.SquareObjectID != "SQID1" {
		t.Errorf("expected object id 'SQID1', got %q", again.SquareObjectID)
	}
}

func TestSyncMappingLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, _ := UpsertSyncMapping(ctx, database, model.SyncTypeItem, 7, "#item-xyz")

	if err := MarkSynced(ctx, database, m.ID, "SQID7"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	got, _ := GetSyncMapping(ctx, database, model.SyncTypeItem, 7)
	if got.SyncStatus != model.SyncSynced {
		t.Errorf("expected synced, got %q", got.SyncStatus)
	}
	if got.SquareObjectID != "SQID7" {
		t.Errorf("expected assigned object id, got %q", got.SquareObjectID)
	}
	if got.LastSyncedAt == nil {
		t.Error("expected last_synced_at to be set")
	}

	if err := MarkSyncError(ctx, database, m.ID, "rate limited"); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}
	got, _ = GetSyncMapping(ctx, database, model.SyncTypeItem, 7)
	if got.SyncStatus != model.SyncError || got.SyncError != "rate limited" {
		t.Errorf("expected error state, got %q %q", got.SyncStatus, got.SyncError)
	}
}

func TestGetSyncMappingByObjectID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertSyncMapping(ctx, database, model.SyncTypeItem, 3, "SQOBJ3")

	m, err := GetSyncMappingByObjectID(ctx, database, "SQOBJ3")
	if err != nil {
		t.Fatalf("GetSyncMappingByObjectID: %v", err)
	}
	if m == nil || m.LocalID != 3 {
		t.Errorf("expected mapping for local id 3, got %+v", m)
	}

	missing, _ := GetSyncMappingByObjectID(ctx, database, "NOPE")
	if missing != nil {
		t.Error("expected nil for unknown object id")
	}
}

func TestListSyncMappings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertSyncMapping(ctx, database, model.SyncTypeListing, 1, "#a")
	UpsertSyncMapping(ctx, database, model.SyncTypeListing, 2, "#b")
	UpsertSyncMapping(ctx, database, model.SyncTypeItem, 1, "#c")

	mappings, err := ListSyncMappings(ctx, database, model.SyncTypeListing, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("ListSyncMappings: %v", err)
	}
	if len(mappings) != 2 {
		t.Errorf("expected 2 mappings, got %d", len(mappings))
	}

	none, _ := ListSyncMappings(ctx, database, model.SyncTypeListing, nil)
	if none != nil {
		t.Errorf("expected nil for empty id list, got %+v", none)
	}
}
