package model

import "time"

// ChangeRequest records a proposed listing status change awaiting review.
// Rows are created pending and reach exactly one terminal state.
type ChangeRequest struct {
	ID              int64      `json:"id"`
	ListingID       int64      `json:"listing_id"`
	RequesterID     int64      `json:"requester_id"`
	RequestedStatus string     `json:"requested_status"`
	Status          string     `json:"status"`
	Summary         string     `json:"summary,omitempty"`
	ReviewerID      *int64     `json:"reviewer_id,omitempty"`
	ReviewNotes     string     `json:"review_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Change request statuses.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)
