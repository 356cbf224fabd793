package store

import (
	"context"
	"testing"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func seedStoreListing(t *testing.T, database DBTX, ownerID int64, sku *string, status string, quantity *int) *model.Listing {
	t.Helper()
	l, err := CreateListing(context.Background(), database, &model.Listing{
		OwnerID:    ownerID,
		ProductSKU: sku,
		Title:      "Listing",
		PriceCents: 500,
		Status:     status,
		Quantity:   quantity,
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return l
}

func TestCreateAndGetListing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	qty := 3
	l := seedStoreListing(t, database, owner, nil, model.ListingDraft, &qty)
	if l.Version != 1 {
		t.Errorf("expected version 1, got %d", l.Version)
	}
	if l.ReservedQty != 0 {
		t.Errorf("expected no reservations, got %d", l.ReservedQty)
	}

	got, err := GetListing(ctx, database, l.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got == nil || got.Quantity == nil || *got.Quantity != 3 {
		t.Errorf("expected quantity 3, got %+v", got)
	}
}

func TestListListingsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)
	other, _ := CreateUser(ctx, database, "other", "hash", model.RoleSeller)

	sku := "CUP-1"
	CreateItem(ctx, database, sku, owner, "Cup", 5, nil, 0, false)
	seedStoreListing(t, database, owner, &sku, model.ListingLive, nil)
	seedStoreListing(t, database, owner, nil, model.ListingDraft, nil)
	seedStoreListing(t, database, other.ID, nil, model.ListingLive, nil)

	live, _ := ListListings(ctx, database, ListingFilter{Status: model.ListingLive})
	if len(live) != 2 {
		t.Errorf("expected 2 live listings, got %d", len(live))
	}

	mine, _ := ListListings(ctx, database, ListingFilter{OwnerID: owner})
	if len(mine) != 2 {
		t.Errorf("expected 2 owned listings, got %d", len(mine))
	}

	bySKU, _ := ListListings(ctx, database, ListingFilter{SKU: sku})
	if len(bySKU) != 1 {
		t.Errorf("expected 1 listing for %s, got %d", sku, len(bySKU))
	}
}

func TestStatusUpdateBumpsVersion(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	l := seedStoreListing(t, database, owner, nil, model.ListingPending, nil)

	if err := SetListingStatus(ctx, database, l.ID, model.ListingApproved); err != nil {
		t.Fatalf("SetListingStatus: %v", err)
	}

	got, _ := GetListing(ctx, database, l.ID)
	if got.Status != model.ListingApproved {
		t.Errorf("expected approved, got %q", got.Status)
	}
	if got.Version != l.Version+1 {
		t.Errorf("expected version %d, got %d", l.Version+1, got.Version)
	}
}

func TestShiftQuantitiesForSKU(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	sku := "CUP-1"
	CreateItem(ctx, database, sku, owner, "Cup", 10, nil, 0, false)
	qty := 10
	tracked := seedStoreListing(t, database, owner, &sku, model.ListingLive, &qty)
	untracked := seedStoreListing(t, database, owner, &sku, model.ListingLive, nil)
	SetReservedQty(ctx, database, tracked.ID, 8)

	if err := ShiftQuantitiesForSKU(ctx, database, sku, -6); err != nil {
		t.Fatalf("ShiftQuantitiesForSKU: %v", err)
	}

	got, _ := GetListing(ctx, database, tracked.ID)
	if got.Quantity == nil || *got.Quantity != 4 {
		t.Errorf("expected quantity 4, got %v", got.Quantity)
	}
	if got.ReservedQty != 4 {
		t.Errorf("expected reservations clamped to 4, got %d", got.ReservedQty)
	}

	// A big negative delta floors at zero.
	if err := ShiftQuantitiesForSKU(ctx, database, sku, -100); err != nil {
		t.Fatalf("ShiftQuantitiesForSKU floor: %v", err)
	}
	got, _ = GetListing(ctx, database, tracked.ID)
	if got.Quantity == nil || *got.Quantity != 0 {
		t.Errorf("expected quantity floored at 0, got %v", got.Quantity)
	}

	u, _ := GetListing(ctx, database, untracked.ID)
	if u.Quantity != nil {
		t.Errorf("expected untracked listing untouched, got %v", u.Quantity)
	}
}

func TestSetQuantitiesForSKU(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	sku := "CUP-1"
	CreateItem(ctx, database, sku, owner, "Cup", 10, nil, 0, false)
	qty := 10
	l := seedStoreListing(t, database, owner, &sku, model.ListingLive, &qty)
	SetReservedQty(ctx, database, l.ID, 3)

	if err := SetQuantitiesForSKU(ctx, database, sku, 7); err != nil {
		t.Fatalf("SetQuantitiesForSKU: %v", err)
	}

	got, _ := GetListing(ctx, database, l.ID)
	if got.Quantity == nil || *got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %v", got.Quantity)
	}
	if got.ReservedQty != 3 {
		t.Errorf("expected reservations kept at 3, got %d", got.ReservedQty)
	}

	// Reservations only ever clamp down.
	if err := SetQuantitiesForSKU(ctx, database, sku, 1); err != nil {
		t.Fatalf("SetQuantitiesForSKU clamp: %v", err)
	}
	got, _ = GetListing(ctx, database, l.ID)
	if got.ReservedQty != 1 {
		t.Errorf("expected reservations clamped to 1, got %d", got.ReservedQty)
	}
}

func TestSoftDeleteListing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	l := seedStoreListing(t, database, owner, nil, model.ListingLive, nil)

	if err := SoftDeleteListing(ctx, database, l.ID); err != nil {
		t.Fatalf("SoftDeleteListing: %v", err)
	}

	got, _ := GetListing(ctx, database, l.ID)
	if got != nil {
		t.Error("expected soft-deleted listing to be invisible")
	}

	listings, _ := ListListings(ctx, database, ListingFilter{})
	if len(listings) != 0 {
		t.Errorf("expected 0 listings, got %d", len(listings))
	}
}

func TestListingImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	l := seedStoreListing(t, database, owner, nil, model.ListingLive, nil)
	if err := SetListingImage(ctx, database, l.ID, []byte("fake image data"), "image/jpeg"); err != nil {
		t.Fatalf("SetListingImage: %v", err)
	}

	data, mime, err := GetListingImage(ctx, database, l.ID)
	if err != nil {
		t.Fatalf("GetListingImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}
}
