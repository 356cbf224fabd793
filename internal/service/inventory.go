package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/audit"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// Inventory is the sole authority for stock and reservation mutation. Every
// mutator runs one transaction; with the database opened in immediate-lock
// mode the transaction holds the write lock from its first read, so
// concurrent callers against the same SKU or listing serialize and never see
// stale counts.
type Inventory struct {
	DB    *sql.DB
	Audit *audit.Log
}

// StockState is the post-operation view of an inventory item's counts.
type StockState struct {
	SKU              string `json:"sku"`
	Stock            int    `json:"stock"`
	Quantity         *int   `json:"quantity,omitempty"`
	ReorderThreshold int    `json:"reorder_threshold"`
}

// ReservationState is the post-operation view of a listing's counts.
type ReservationState struct {
	ListingID   int64 `json:"listing_id"`
	ReservedQty int   `json:"reserved_qty"`
	Quantity    *int  `json:"quantity,omitempty"`
	Version     int64 `json:"version"`
}

// ReconcileState reports the outcome of an external stock merge.
type ReconcileState struct {
	SKU      string `json:"sku"`
	Stock    int    `json:"stock"`
	Quantity *int   `json:"quantity,omitempty"`
	Delta    int    `json:"delta"`
}

// AdjustStock applies a manual stock delta to a SKU, floored at zero,
// propagates the effective change to every tracked listing of the SKU
// (clamping reservations), and appends a manual_adjustment ledger row.
func (s *Inventory) AdjustStock(ctx context.Context, actor model.Actor, sku string, delta int, reorderThreshold *int) (*StockState, error) {
	if reorderThreshold != nil && *reorderThreshold < 0 {
		return nil, &ValidationError{Field: "reorder_threshold", Reason: "must not be negative"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItemBySKU(ctx, tx, sku)
	if err != nil {
		return nil, err
	}
	if item == nil {
		s.Audit.Fail("inventory.adjust", ErrNotFound, map[string]any{"sku": sku, "actor_id": actor.ID})
		return nil, fmt.Errorf("inventory item %q: %w", sku, ErrNotFound)
	}
	if !actor.CanManageItem(item) {
		s.Audit.Fail("inventory.adjust", ErrPermissionDenied, map[string]any{"sku": sku, "actor_id": actor.ID})
		return nil, fmt.Errorf("adjusting stock for %q: %w", sku, ErrPermissionDenied)
	}

	before := item.Stock
	newStock := before + delta
	if newStock < 0 {
		newStock = 0
	}

	mirror := item.Quantity != nil
	if err := store.SetItemStock(ctx, tx, item.ID, newStock, mirror, reorderThreshold); err != nil {
		return nil, err
	}
	if err := store.ShiftQuantitiesForSKU(ctx, tx, sku, newStock-before); err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]any{"requested_delta": delta})
	if err := store.InsertTransaction(ctx, tx, &model.InventoryTransaction{
		SKU:            sku,
		OwnerID:        item.OwnerID,
		Type:           model.TxManualAdjustment,
		QuantityChange: newStock - before,
		QuantityBefore: before,
		QuantityAfter:  newStock,
		ReferenceType:  "user",
		ReferenceID:    fmt.Sprintf("%d", actor.ID),
		Metadata:       string(metadata),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stock adjustment: %w", err)
	}

	s.Audit.Event("inventory.adjust", map[string]any{
		"sku": sku, "actor_id": actor.ID, "delta": delta,
		"stock_before": before, "stock_after": newStock,
	})

	state := &StockState{SKU: sku, Stock: newStock, ReorderThreshold: item.ReorderThreshold}
	if reorderThreshold != nil {
		state.ReorderThreshold = *reorderThreshold
	}
	if mirror {
		q := newStock
		state.Quantity = &q
	}
	return state, nil
}

// Reserve places a hold of qty units against a listing. The check and the
// increment share one write-locked transaction, so two concurrent
// reservations against the last unit cannot both succeed.
func (s *Inventory) Reserve(ctx context.Context, actor model.Actor, listingID int64, qty int) (*ReservationState, error) {
	if qty <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
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
	if !l.Reservable() {
		return nil, &ValidationError{Field: "status", Reason: "listing is not open for reservations"}
	}
	if l.Quantity == nil {
		return nil, &ValidationError{Field: "quantity", Reason: "listing does not track quantity"}
	}

	if l.Available() < qty {
		s.Audit.Fail("listing.reserve", ErrInsufficientInventory, map[string]any{
			"listing_id": listingID, "actor_id": actor.ID,
			"requested": qty, "available": l.Available(),
		})
		return nil, fmt.Errorf("reserving %d of listing %d: %w", qty, listingID, ErrInsufficientInventory)
	}

	newReserved := l.ReservedQty + qty
	if err := store.SetReservedQty(ctx, tx, listingID, newReserved); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	s.Audit.Event("listing.reserve", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID,
		"qty": qty, "reserved_qty": newReserved,
	})

	return &ReservationState{
		ListingID:   listingID,
		ReservedQty: newReserved,
		Quantity:    l.Quantity,
		Version:     l.Version + 1,
	}, nil
}

// Release returns held quantity to availability after a failed checkout.
// Idempotent: the reserved count floors at zero, so double-release is safe.
func (s *Inventory) Release(ctx context.Context, actor model.Actor, listingID int64, qty int) (*ReservationState, error) {
	if qty <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
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

	newReserved := l.ReservedQty - qty
	if newReserved < 0 {
		newReserved = 0
	}

	version := l.Version
	if newReserved != l.ReservedQty {
		if err := store.SetReservedQty(ctx, tx, listingID, newReserved); err != nil {
			return nil, err
		}
		version++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing release: %w", err)
	}

	s.Audit.Event("listing.release", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID,
		"qty": qty, "reserved_qty": newReserved,
	})

	return &ReservationState{
		ListingID:   listingID,
		ReservedQty: newReserved,
		Quantity:    l.Quantity,
		Version:     version,
	}, nil
}

// Capture converts a reservation into a permanent sale: the listing's
// reserved count and quantity, and the linked item's stock, all drop by qty
// in one transaction, with a sale_capture ledger row referencing the order.
func (s *Inventory) Capture(ctx context.Context, actor model.Actor, listingID int64, qty int, orderRef string) (*ReservationState, error) {
	if qty <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if orderRef == "" {
		orderRef = uuid.NewString()
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
	if l.Quantity == nil {
		return nil, &ValidationError{Field: "quantity", Reason: "listing does not track quantity"}
	}
	if l.ReservedQty < qty {
		s.Audit.Fail("listing.capture", ErrInsufficientReservation, map[string]any{
			"listing_id": listingID, "actor_id": actor.ID,
			"requested": qty, "reserved_qty": l.ReservedQty,
		})
		return nil, fmt.Errorf("capturing %d of listing %d: %w", qty, listingID, ErrInsufficientReservation)
	}

	newReserved := l.ReservedQty - qty
	newQty := *l.Quantity - qty
	if err := store.SetListingQuantities(ctx, tx, listingID, &newQty, newReserved); err != nil {
		return nil, err
	}

	if l.ProductSKU != nil {
		item, err := store.GetItemBySKU(ctx, tx, *l.ProductSKU)
		if err != nil {
			return nil, err
		}
		if item != nil {
			before := item.Stock
			newStock := before - qty
			if newStock < 0 {
				newStock = 0
			}
			if err := store.SetItemStock(ctx, tx, item.ID, newStock, item.Quantity != nil, nil); err != nil {
				return nil, err
			}

			metadata, _ := json.Marshal(map[string]any{"listing_id": listingID})
			if err := store.InsertTransaction(ctx, tx, &model.InventoryTransaction{
				SKU:            item.SKU,
				OwnerID:        item.OwnerID,
				Type:           model.TxSaleCapture,
				QuantityChange: newStock - before,
				QuantityBefore: before,
				QuantityAfter:  newStock,
				ReferenceType:  "order",
				ReferenceID:    orderRef,
				Metadata:       string(metadata),
			}); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing capture: %w", err)
	}

	s.Audit.Event("listing.capture", map[string]any{
		"listing_id": listingID, "actor_id": actor.ID,
		"qty": qty, "order_ref": orderRef,
		"reserved_qty": newReserved, "quantity": newQty,
	})

	return &ReservationState{
		ListingID:   listingID,
		ReservedQty: newReserved,
		Quantity:    &newQty,
		Version:     l.Version + 1,
	}, nil
}

// ReconcileStock merges an authoritative external stock count into local
// state. The delta is absolute, not relative: the item takes the reported
// value (floored at zero), every tracked listing of the SKU takes it as its
// quantity with reservations clamped down (never up), and a single
// square_webhook_sync ledger row is appended only when the count actually
// changed. An unknown SKU returns (nil, nil).
func (s *Inventory) ReconcileStock(ctx context.Context, sku string, authoritative int, refType, refID string, metadata map[string]any) (*ReconcileState, error) {
	if authoritative < 0 {
		authoritative = 0
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItemBySKU(ctx, tx, sku)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	before := item.Stock
	delta := authoritative - before

	mirror := item.Quantity != nil
	if err := store.SetItemStock(ctx, tx, item.ID, authoritative, mirror, nil); err != nil {
		return nil, err
	}
	if err := store.SetQuantitiesForSKU(ctx, tx, sku, authoritative); err != nil {
		return nil, err
	}

	if delta != 0 {
		var meta []byte
		if len(metadata) > 0 {
			meta, _ = json.Marshal(metadata)
		}
		if err := store.InsertTransaction(ctx, tx, &model.InventoryTransaction{
			SKU:            sku,
			OwnerID:        item.OwnerID,
			Type:           model.TxSquareSync,
			QuantityChange: delta,
			QuantityBefore: before,
			QuantityAfter:  authoritative,
			ReferenceType:  refType,
			ReferenceID:    refID,
			Metadata:       string(meta),
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reconciliation: %w", err)
	}

	s.Audit.Event("inventory.reconcile", map[string]any{
		"sku": sku, "reference_type": refType, "reference_id": refID,
		"stock_before": before, "stock_after": authoritative, "delta": delta,
	})

	state := &ReconcileState{SKU: sku, Stock: authoritative, Delta: delta}
	if mirror {
		q := authoritative
		state.Quantity = &q
	}
	return state, nil
}
