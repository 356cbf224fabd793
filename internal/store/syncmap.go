package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/trznica/internal/model"
)

// UpsertSyncMapping records (or refreshes) the local-to-Square mapping for a
// record and marks it pending for the sync worker.
func UpsertSyncMapping(ctx context.Context, db DBTX, localType string, localID int64, squareObjectID string) (*model.SyncMapping, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO square_catalog_map (local_type, local_id, square_object_id, sync_status, sync_error)
		 VALUES (?, ?, ?, ?, NULL)
		 ON CONFLICT (local_type, local_id) DO UPDATE
		 SET square_object_id = excluded.square_object_id, sync_status = excluded.sync_status, sync_error = NULL`,
		localType, localID, squareObjectID, model.SyncPending,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting sync mapping: %w", err)
	}

	return GetSyncMapping(ctx, db, localType, localID)
}

// GetSyncMapping returns the mapping for a local record, or nil if the
// record was never queued for sync.
func GetSyncMapping(ctx context.Context, db DBTX, localType string, localID int64) (*model.SyncMapping, error) {
	m := &model.SyncMapping{}
	var syncErr sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, local_type, local_id, square_object_id, sync_status, sync_error, last_synced_at, created_at
		 FROM square_catalog_map WHERE local_type = ? AND local_id = ?`,
		localType, localID,
	).Scan(&m.ID, &m.LocalType, &m.LocalID, &m.SquareObjectID, &m.SyncStatus, &syncErr, &m.LastSyncedAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sync mapping: %w", err)
	}
	m.SyncError = syncErr.String
	return m, nil
}

// GetSyncMappingByObjectID returns the mapping holding a Square catalog
// object id, or nil.
func GetSyncMappingByObjectID(ctx context.Context, db DBTX, squareObjectID string) (*model.SyncMapping, error) {
	m := &model.SyncMapping{}
	var syncErr sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, local_type, local_id, square_object_id, sync_status, sync_error, last_synced_at, created_at
		 FROM square_catalog_map WHERE square_object_id = ?`,
		squareObjectID,
	).Scan(&m.ID, &m.LocalType, &m.LocalID, &m.SquareObjectID, &m.SyncStatus, &syncErr, &m.LastSyncedAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sync mapping by object id: %w", err)
	}
	m.SyncError = syncErr.String
	return m, nil
}

// ListSyncMappings returns mappings for the given local records.
func ListSyncMappings(ctx context.Context, db DBTX, localType string, localIDs []int64) ([]model.SyncMapping, error) {
	if len(localIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(localIDs)), ",")
	args := []any{localType}
	for _, id := range localIDs {
		args = append(args, id)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, local_type, local_id, square_object_id, sync_status, sync_error, last_synced_at, created_at
		 FROM square_catalog_map WHERE local_type = ? AND local_id IN (`+placeholders+`)
		 ORDER BY local_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sync mappings: %w", err)
	}
	defer rows.Close()

	var mappings []model.SyncMapping
	for rows.Next() {
		var m model.SyncMapping
		var syncErr sql.NullString
		if err := rows.Scan(&m.ID, &m.LocalType, &m.LocalID, &m.SquareObjectID, &m.SyncStatus,
			&syncErr, &m.LastSyncedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning sync mapping: %w", err)
		}
		m.SyncError = syncErr.String
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// MarkSynced records a successful sync for a mapping. The worker passes the
// catalog object id Square assigned, replacing the client "#..." id on the
// first successful sync.
func MarkSynced(ctx context.Context, db DBTX, id int64, squareObjectID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE square_catalog_map
		 SET square_object_id = ?, sync_status = ?, sync_error = NULL, last_synced_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		squareObjectID, model.SyncSynced, id,
	)
	if err != nil {
		return fmt.Errorf("marking mapping synced: %w", err)
	}
	return nil
}

// MarkSyncError records a failed sync attempt for a mapping.
func MarkSyncError(ctx context.Context, db DBTX, id int64, msg string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE square_catalog_map SET sync_status = ?, sync_error = ? WHERE id = ?`,
		model.SyncError, msg, id,
	)
	if err != nil {
		return fmt.Errorf("marking mapping errored: %w", err)
	}
	return nil
}
