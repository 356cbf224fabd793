package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

const requestColumns = `id, listing_id, requester_id, requested_status, status, summary,
	reviewer_id, review_notes, resolved_at, created_at`

// CreateChangeRequest inserts a pending status change request.
func CreateChangeRequest(ctx context.Context, db DBTX, listingID, requesterID int64, requestedStatus, summary string) (*model.ChangeRequest, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO listing_change_requests (listing_id, requester_id, requested_status, summary)
		 VALUES (?, ?, ?, ?)`,
		listingID, requesterID, requestedStatus, nullString(summary),
	)
	if err != nil {
		return nil, fmt.Errorf("creating change request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting change request id: %w", err)
	}

	return GetChangeRequest(ctx, db, id)
}

// GetChangeRequest returns a change request by ID.
func GetChangeRequest(ctx context.Context, db DBTX, id int64) (*model.ChangeRequest, error) {
	r := &model.ChangeRequest{}
	var summary, notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM listing_change_requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.ListingID, &r.RequesterID, &r.RequestedStatus, &r.Status, &summary,
		&r.ReviewerID, &notes, &r.ResolvedAt, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting change request: %w", err)
	}
	r.Summary = summary.String
	r.ReviewNotes = notes.String
	return r, nil
}

// ApproveOpenRequests marks pending requests for a listing approved,
// stamping reviewer and resolution time. If requestedStatus is non-empty
// only requests proposing that status are touched. Returns the number of
// resolved rows.
func ApproveOpenRequests(ctx context.Context, db DBTX, listingID, reviewerID int64, requestedStatus string) (int64, error) {
	query := `UPDATE listing_change_requests
	          SET status = ?, reviewer_id = ?, resolved_at = CURRENT_TIMESTAMP
	          WHERE listing_id = ? AND status = ?`
	args := []any{model.RequestApproved, reviewerID, listingID, model.RequestPending}

	if requestedStatus != "" {
		query += ` AND requested_status = ?`
		args = append(args, requestedStatus)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("approving change requests: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// RejectOpenRequests marks pending requests for a listing rejected with a
// review note. Returns the number of resolved rows.
func RejectOpenRequests(ctx context.Context, db DBTX, listingID, reviewerID int64, note string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE listing_change_requests
		 SET status = ?, reviewer_id = ?, review_notes = ?, resolved_at = CURRENT_TIMESTAMP
		 WHERE listing_id = ? AND status = ?`,
		model.RequestRejected, reviewerID, nullString(note), listingID, model.RequestPending,
	)
	if err != nil {
		return 0, fmt.Errorf("rejecting change requests: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// CancelOpenRequests withdraws pending requests for a listing. A positive
// requesterID limits the cancellation to that requester's own rows; zero
// cancels all (used when the listing itself is deleted).
func CancelOpenRequests(ctx context.Context, db DBTX, listingID, requesterID int64) (int64, error) {
	query := `UPDATE listing_change_requests
	          SET status = ?, resolved_at = CURRENT_TIMESTAMP
	          WHERE listing_id = ? AND status = ?`
	args := []any{model.RequestCancelled, listingID, model.RequestPending}

	if requesterID > 0 {
		query += ` AND requester_id = ?`
		args = append(args, requesterID)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("cancelling change requests: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// RequestFilter narrows ListChangeRequests results. Zero values mean "any".
type RequestFilter struct {
	ListingID   int64
	RequesterID int64
	Status      string
	Limit       int
	Offset      int
}

// ListChangeRequests returns change requests matching the filter, oldest
// pending first so moderators work the queue in arrival order.
func ListChangeRequests(ctx context.Context, db DBTX, f RequestFilter) ([]model.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM listing_change_requests WHERE 1=1`
	var args []any

	if f.ListingID > 0 {
		query += ` AND listing_id = ?`
		args = append(args, f.ListingID)
	}
	if f.RequesterID > 0 {
		query += ` AND requester_id = ?`
		args = append(args, f.RequesterID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}

	query += ` ORDER BY created_at, id`

	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing change requests: %w", err)
	}
	defer rows.Close()

	var requests []model.ChangeRequest
	for rows.Next() {
		var r model.ChangeRequest
		var summary, notes sql.NullString
		if err := rows.Scan(&r.ID, &r.ListingID, &r.RequesterID, &r.RequestedStatus, &r.Status,
			&summary, &r.ReviewerID, &notes, &r.ResolvedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning change request: %w", err)
		}
		r.Summary = summary.String
		r.ReviewNotes = notes.String
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
