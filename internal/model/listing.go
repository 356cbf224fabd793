package model

import "time"

// Listing represents a sellable listing. Quantity is NULL for untracked
// listings, which cannot be reserved. Invariant whenever Quantity is
// non-nil: 0 <= ReservedQty <= *Quantity.
type Listing struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	ProductSKU  *string    `json:"product_sku,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	PriceCents  int64      `json:"price_cents"`
	Status      string     `json:"status"`
	Quantity    *int       `json:"quantity,omitempty"`
	ReservedQty int        `json:"reserved_qty"`
	Version     int64      `json:"version"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Listing statuses.
const (
	ListingDraft    = "draft"
	ListingPending  = "pending"
	ListingApproved = "approved"
	ListingLive     = "live"
	ListingClosed   = "closed"
	ListingDelisted = "delisted"
)

// listingTransitions is the governed status state machine. Absent edges are
// rejected; a same-status transition is treated as a no-op by callers.
var listingTransitions = map[string][]string{
	ListingDraft:    {ListingPending, ListingApproved, ListingLive, ListingDelisted},
	ListingPending:  {ListingApproved, ListingDelisted, ListingDraft},
	ListingApproved: {ListingLive, ListingClosed, ListingDelisted},
	ListingLive:     {ListingClosed, ListingDelisted},
	ListingClosed:   {ListingLive, ListingDelisted},
	ListingDelisted: {ListingDraft, ListingPending, ListingLive},
}

// ValidListingStatus reports whether s is a known listing status.
func ValidListingStatus(s string) bool {
	_, ok := listingTransitions[s]
	return ok
}

// CanTransition reports whether the status edge from -> to is allowed.
func CanTransition(from, to string) bool {
	for _, next := range listingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusRequiresReview reports whether the status edge is moderation-gated
// for non-admin actors. Edges into approved/live are gated, except from
// post-approval states (approved, live, closed): a listing that already
// passed review may be relisted by its owner without a second review.
func StatusRequiresReview(from, to string) bool {
	if to != ListingApproved && to != ListingLive {
		return false
	}
	switch from {
	case ListingApproved, ListingLive, ListingClosed:
		return false
	}
	return true
}

// Reservable reports whether the listing status admits reservations.
func (l *Listing) Reservable() bool {
	return l.Status == ListingApproved || l.Status == ListingLive
}

// Available returns the quantity not held by reservations, or 0 for
// untracked listings.
func (l *Listing) Available() int {
	if l.Quantity == nil {
		return 0
	}
	return *l.Quantity - l.ReservedQty
}
