package model

import "time"

// InventoryTransaction is one row of the append-only stock ledger. Rows are
// immutable once written.
type InventoryTransaction struct {
	ID             int64     `json:"id"`
	SKU            string    `json:"sku"`
	OwnerID        int64     `json:"owner_id"`
	Type           string    `json:"type"`
	QuantityChange int       `json:"quantity_change"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	Metadata       string    `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ledger entry types.
const (
	TxManualAdjustment = "manual_adjustment"
	TxSaleCapture      = "sale_capture"
	TxSquareSync       = "square_webhook_sync"
)
