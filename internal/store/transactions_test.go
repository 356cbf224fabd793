package store

import (
	"context"
	"testing"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func TestInsertAndListTransactions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := testOwner(t, database)

	err := InsertTransaction(ctx, database, &model.InventoryTransaction{
		SKU:            "MUG-1",
		OwnerID:        owner,
		Type:           model.TxManualAdjustment,
		QuantityChange: -3,
		QuantityBefore: 10,
		QuantityAfter:  7,
		ReferenceType:  "user",
		ReferenceID:    "1",
	})
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	InsertTransaction(ctx, database, &model.InventoryTransaction{
		SKU: "MUG-1", OwnerID: owner, Type: model.TxSaleCapture,
		QuantityChange: -1, QuantityBefore: 7, QuantityAfter: 6,
	})
	InsertTransaction(ctx, database, &model.InventoryTransaction{
		SKU: "OTHER-1", OwnerID: owner, Type: model.TxSquareSync,
		QuantityChange: 2, QuantityBefore: 0, QuantityAfter: 2,
	})

	txs, err := ListTransactions(ctx, database, "MUG-1", 0, 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(txs))
	}
	// Newest first.
	if txs[0].Type != model.TxSaleCapture {
		t.Errorf("expected sale_capture first, got %q", txs[0].Type)
	}
	if txs[1].QuantityChange != -3 {
		t.Errorf("expected delta -3, got %d", txs[1].QuantityChange)
	}
	if txs[1].ReferenceType != "user" {
		t.Errorf("expected reference type 'user', got %q", txs[1].ReferenceType)
	}

	page, _ := ListTransactions(ctx, database, "MUG-1", 1, 1)
	if len(page) != 1 || page[0].Type != model.TxManualAdjustment {
		t.Errorf("expected the older row on page 2, got %+v", page)
	}
}
