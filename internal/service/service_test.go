package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/trznica/internal/audit"
	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

func testServices(t *testing.T) (*sql.DB, *Inventory, *Listings, *Requests) {
	t.Helper()
	database := db.NewTestDB(t)
	aud := audit.Nop()
	return database,
		&Inventory{DB: database, Audit: aud},
		&Listings{DB: database, Audit: aud},
		&Requests{DB: database, Audit: aud}
}

func seedUser(t *testing.T, database *sql.DB, username, role string) model.Actor {
	t.Helper()
	u, err := store.CreateUser(context.Background(), database, username, "hash", role)
	if err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return model.ActorForRole(u.ID, role)
}

func seedItem(t *testing.T, database *sql.DB, sku string, owner model.Actor, stock int, tracked bool) *model.InventoryItem {
	t.Helper()
	var quantity *int
	if tracked {
		q := stock
		quantity = &q
	}
	item, err := store.CreateItem(context.Background(), database, sku, owner.ID, "Item "+sku, stock, quantity, 0, false)
	if err != nil {
		t.Fatalf("seeding item %s: %v", sku, err)
	}
	return item
}

func seedListing(t *testing.T, database *sql.DB, owner model.Actor, sku *string, status string, quantity *int, reserved int) *model.Listing {
	t.Helper()
	ctx := context.Background()
	l, err := store.CreateListing(ctx, database, &model.Listing{
		OwnerID:    owner.ID,
		ProductSKU: sku,
		Title:      "Test listing",
		PriceCents: 1000,
		Status:     status,
		Quantity:   quantity,
	})
	if err != nil {
		t.Fatalf("seeding listing: %v", err)
	}
	if reserved > 0 {
		if err := store.SetReservedQty(ctx, database, l.ID, reserved); err != nil {
			t.Fatalf("seeding reservation: %v", err)
		}
		l.ReservedQty = reserved
	}
	return l
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func getListing(t *testing.T, database *sql.DB, id int64) *model.Listing {
	t.Helper()
	l, err := store.GetListing(context.Background(), database, id)
	if err != nil {
		t.Fatalf("getting listing %d: %v", id, err)
	}
	return l
}

func getItem(t *testing.T, database *sql.DB, sku string) *model.InventoryItem {
	t.Helper()
	item, err := store.GetItemBySKU(context.Background(), database, sku)
	if err != nil {
		t.Fatalf("getting item %s: %v", sku, err)
	}
	return item
}

func listLedger(t *testing.T, database *sql.DB, sku string) []model.InventoryTransaction {
	t.Helper()
	txs, err := store.ListTransactions(context.Background(), database, sku, 0, 0)
	if err != nil {
		t.Fatalf("listing ledger for %s: %v", sku, err)
	}
	return txs
}
