package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

func TestAdjustStockFloorsAtZero(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	seedItem(t, database, "WIDGET", seller, 3, true)

	state, err := inv.AdjustStock(ctx, seller, "WIDGET", -5, nil)
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if state.Stock != 0 {
		t.Errorf("expected stock 0, got %d", state.Stock)
	}

	ledger := listLedger(t, database, "WIDGET")
	if len(ledger) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger))
	}
	row := ledger[0]
	if row.Type != model.TxManualAdjustment {
		t.Errorf("expected manual_adjustment, got %q", row.Type)
	}
	if row.QuantityChange != -3 || row.QuantityBefore != 3 || row.QuantityAfter != 0 {
		t.Errorf("expected change -3 (3 -> 0), got %+d (%d -> %d)",
			row.QuantityChange, row.QuantityBefore, row.QuantityAfter)
	}
}

func TestAdjustStockPropagatesToListings(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	item := seedItem(t, database, "WIDGET", seller, 10, true)
	held := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(10), 3)
	free := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(10), 0)
	untracked := seedListing(t, database, seller, &item.SKU, model.ListingLive, nil, 0)

	if _, err := inv.AdjustStock(ctx, seller, "WIDGET", -6, nil); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}

	for _, id := range []int64{held.ID, free.ID} {
		l := getListing(t, database, id)
		if l.Quantity == nil || *l.Quantity != 4 {
			t.Errorf("listing %d: expected quantity 4, got %v", id, l.Quantity)
		}
	}
	if l := getListing(t, database, held.ID); l.ReservedQty != 3 {
		t.Errorf("expected reservation 3 untouched, got %d", l.ReservedQty)
	}
	if l := getListing(t, database, untracked.ID); l.Quantity != nil {
		t.Errorf("untracked listing gained a quantity: %v", *l.Quantity)
	}
}

func TestAdjustStockClampsReservations(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	item := seedItem(t, database, "WIDGET", seller, 10, true)
	l := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(10), 8)

	if _, err := inv.AdjustStock(ctx, seller, "WIDGET", -7, nil); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}

	got := getListing(t, database, l.ID)
	if got.Quantity == nil || *got.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %v", got.Quantity)
	}
	if got.ReservedQty != 3 {
		t.Errorf("expected reservation clamped to 3, got %d", got.ReservedQty)
	}
}

func TestAdjustStockPermissions(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	stranger := seedUser(t, database, "stranger", model.RoleSeller)
	official := seedUser(t, database, "official", model.RoleOfficial)
	admin := seedUser(t, database, "admin", model.RoleAdmin)

	seedItem(t, database, "WIDGET", seller, 10, true)

	if _, err := inv.AdjustStock(ctx, stranger, "WIDGET", 1, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for stranger, got %v", err)
	}
	if _, err := inv.AdjustStock(ctx, official, "WIDGET", 1, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for official on non-official item, got %v", err)
	}
	if _, err := inv.AdjustStock(ctx, admin, "WIDGET", 1, nil); err != nil {
		t.Errorf("admin adjustment failed: %v", err)
	}

	// Official accounts may manage official items.
	if _, err := store.CreateItem(ctx, database, "OFFICIAL-1", seller.ID, "Official", 5, intPtr(5), 0, true); err != nil {
		t.Fatalf("seeding official item: %v", err)
	}
	if _, err := inv.AdjustStock(ctx, official, "OFFICIAL-1", 1, nil); err != nil {
		t.Errorf("official adjustment failed: %v", err)
	}
}

func TestAdjustStockUnknownSKU(t *testing.T) {
	database, inv, _, _ := testServices(t)

	seller := seedUser(t, database, "seller", model.RoleSeller)
	if _, err := inv.AdjustStock(context.Background(), seller, "MISSING", 1, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)
	l := seedListing(t, database, seller, nil, model.ListingLive, intPtr(5), 0)

	state, err := inv.Reserve(ctx, buyer, l.ID, 2)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if state.ReservedQty != 2 {
		t.Errorf("expected reserved 2, got %d", state.ReservedQty)
	}

	state, err = inv.Release(ctx, buyer, l.ID, 2)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if state.ReservedQty != 0 {
		t.Errorf("expected reserved 0 after release, got %d", state.ReservedQty)
	}

	// Double release floors at zero.
	state, err = inv.Release(ctx, buyer, l.ID, 2)
	if err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if state.ReservedQty != 0 {
		t.Errorf("expected reserved 0 after double release, got %d", state.ReservedQty)
	}
}

func TestReserveInsufficientInventory(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)
	l := seedListing(t, database, seller, nil, model.ListingLive, intPtr(1), 0)

	if _, err := inv.Reserve(ctx, buyer, l.ID, 1); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}
	if _, err := inv.Reserve(ctx, buyer, l.ID, 1); !errors.Is(err, ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory, got %v", err)
	}
}

func TestReserveRequiresReservableStatus(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)

	for _, status := range []string{model.ListingDraft, model.ListingPending, model.ListingClosed, model.ListingDelisted} {
		l := seedListing(t, database, seller, nil, status, intPtr(5), 0)
		if _, err := inv.Reserve(ctx, buyer, l.ID, 1); !IsValidation(err) {
			t.Errorf("status %s: expected validation error, got %v", status, err)
		}
	}

	for _, status := range []string{model.ListingApproved, model.ListingLive} {
		l := seedListing(t, database, seller, nil, status, intPtr(5), 0)
		if _, err := inv.Reserve(ctx, buyer, l.ID, 1); err != nil {
			t.Errorf("status %s: expected reservation to succeed, got %v", status, err)
		}
	}
}

func TestReserveUntrackedQuantity(t *testing.T) {
	database, inv, _, _ := testServices(t)

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)
	l := seedListing(t, database, seller, nil, model.ListingLive, nil, 0)

	if _, err := inv.Reserve(context.Background(), buyer, l.ID, 1); !IsValidation(err) {
		t.Errorf("expected validation error for untracked listing, got %v", err)
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)
	l := seedListing(t, database, seller, nil, model.ListingLive, intPtr(1), 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Reserve(ctx, buyer, l.ID, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, insufficient int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInsufficientInventory):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || insufficient != 1 {
		t.Errorf("expected exactly one winner and one ErrInsufficientInventory, got %d/%d", wins, insufficient)
	}

	if got := getListing(t, database, l.ID); got.ReservedQty != 1 {
		t.Errorf("expected reserved 1, got %d", got.ReservedQty)
	}
}

func TestCaptureConsistency(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)
	item := seedItem(t, database, "WIDGET", seller, 10, true)
	l := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(5), 0)

	if _, err := inv.Reserve(ctx, buyer, l.ID, 2); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	state, err := inv.Capture(ctx, buyer, l.ID, 2, "order-42")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if state.ReservedQty != 0 {
		t.Errorf("expected reserved 0, got %d", state.ReservedQty)
	}
	if state.Quantity == nil || *state.Quantity != 3 {
		t.Errorf("expected quantity 3, got %v", state.Quantity)
	}

	if got := getItem(t, database, "WIDGET"); got.Stock != 8 {
		t.Errorf("expected item stock 8, got %d", got.Stock)
	}

	ledger := listLedger(t, database, "WIDGET")
	if len(ledger) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger))
	}
	row := ledger[0]
	if row.Type != model.TxSaleCapture {
		t.Errorf("expected sale_capture, got %q", row.Type)
	}
	if row.ReferenceType != "order" || row.ReferenceID != "order-42" {
		t.Errorf("expected order reference, got %s/%s", row.ReferenceType, row.ReferenceID)
	}
	if row.QuantityChange != -2 || row.QuantityBefore != 10 || row.QuantityAfter != 8 {
		t.Errorf("expected change -2 (10 -> 8), got %+d (%d -> %d)",
			row.QuantityChange, row.QuantityBefore, row.QuantityAfter)
	}
}

func TestCaptureInsufficientReservation(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	buyer := seedUser(t, database, "buyer", model.RoleSeller)
	l := seedListing(t, database, seller, nil, model.ListingLive, intPtr(5), 1)

	if _, err := inv.Capture(ctx, buyer, l.ID, 2, ""); !errors.Is(err, ErrInsufficientReservation) {
		t.Errorf("expected ErrInsufficientReservation, got %v", err)
	}

	// Nothing was applied.
	got := getListing(t, database, l.ID)
	if got.ReservedQty != 1 || *got.Quantity != 5 {
		t.Errorf("expected untouched listing (1/5), got %d/%d", got.ReservedQty, *got.Quantity)
	}
}

func TestReconcileStockExample(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	item := seedItem(t, database, "X", seller, 10, true)
	held := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(10), 3)
	free := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(10), 0)

	state, err := inv.ReconcileStock(ctx, "X", 4, "square_webhook", "evt-1", map[string]any{"state": "IN_STOCK"})
	if err != nil {
		t.Fatalf("ReconcileStock: %v", err)
	}
	if state.Stock != 4 || state.Delta != -6 {
		t.Errorf("expected stock 4 delta -6, got %d/%d", state.Stock, state.Delta)
	}

	for _, tc := range []struct {
		id       int64
		reserved int
	}{{held.ID, 3}, {free.ID, 0}} {
		l := getListing(t, database, tc.id)
		if l.Quantity == nil || *l.Quantity != 4 {
			t.Errorf("listing %d: expected quantity 4, got %v", tc.id, l.Quantity)
		}
		if l.ReservedQty != tc.reserved {
			t.Errorf("listing %d: expected reserved %d, got %d", tc.id, tc.reserved, l.ReservedQty)
		}
	}

	ledger := listLedger(t, database, "X")
	if len(ledger) != 1 {
		t.Fatalf("expected exactly 1 ledger row, got %d", len(ledger))
	}
	row := ledger[0]
	if row.Type != model.TxSquareSync || row.QuantityChange != -6 {
		t.Errorf("expected square_webhook_sync with change -6, got %s %+d", row.Type, row.QuantityChange)
	}
	if row.ReferenceID != "evt-1" {
		t.Errorf("expected reference evt-1, got %q", row.ReferenceID)
	}
}

func TestReconcileStockZeroDeltaSkipsLedger(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	seedItem(t, database, "X", seller, 4, true)

	state, err := inv.ReconcileStock(ctx, "X", 4, "square_webhook", "evt-2", nil)
	if err != nil {
		t.Fatalf("ReconcileStock: %v", err)
	}
	if state.Delta != 0 {
		t.Errorf("expected delta 0, got %d", state.Delta)
	}
	if ledger := listLedger(t, database, "X"); len(ledger) != 0 {
		t.Errorf("expected no ledger rows for zero delta, got %d", len(ledger))
	}
}

func TestReconcileStockClampsReservations(t *testing.T) {
	database, inv, _, _ := testServices(t)
	ctx := context.Background()

	seller := seedUser(t, database, "seller", model.RoleSeller)
	item := seedItem(t, database, "X", seller, 10, true)
	l := seedListing(t, database, seller, &item.SKU, model.ListingLive, intPtr(10), 8)

	if _, err := inv.ReconcileStock(ctx, "X", 4, "square_webhook", "evt-3", nil); err != nil {
		t.Fatalf("ReconcileStock: %v", err)
	}

	got := getListing(t, database, l.ID)
	if got.ReservedQty != 4 {
		t.Errorf("expected reservation clamped to 4, got %d", got.ReservedQty)
	}
}

func TestReconcileStockNegativeAuthoritative(t *testing.T) {
	database, inv, _, _ := testServices(t)

	seller := seedUser(t, database, "seller", model.RoleSeller)
	seedItem(t, database, "X", seller, 3, true)

	state, err := inv.ReconcileStock(context.Background(), "X", -5, "square_webhook", "evt-4", nil)
	if err != nil {
		t.Fatalf("ReconcileStock: %v", err)
	}
	if state.Stock != 0 {
		t.Errorf("expected stock clamped to 0, got %d", state.Stock)
	}
}

func TestReconcileStockUnknownSKU(t *testing.T) {
	_, inv, _, _ := testServices(t)

	state, err := inv.ReconcileStock(context.Background(), "MISSING", 7, "square_webhook", "evt-5", nil)
	if err != nil {
		t.Fatalf("ReconcileStock: %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state for unknown SKU, got %+v", state)
	}
}
