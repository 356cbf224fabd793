package model

import "time"

// InventoryItem represents sellable stock for a SKU. Stock is the
// authoritative on-hand count; Quantity mirrors it when the catalog tracks
// quantity explicitly (NULL means the mirror is not maintained).
type InventoryItem struct {
	ID               int64     `json:"id"`
	SKU              string    `json:"sku"`
	OwnerID          int64     `json:"owner_id"`
	Name             string    `json:"name"`
	Stock            int       `json:"stock"`
	Quantity         *int      `json:"quantity,omitempty"`
	ReorderThreshold int       `json:"reorder_threshold"`
	IsOfficial       bool      `json:"is_official"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BelowReorder reports whether on-hand stock has reached the reorder
// threshold. Items with a zero threshold never trigger.
func (i *InventoryItem) BelowReorder() bool {
	return i.ReorderThreshold > 0 && i.Stock <= i.ReorderThreshold
}
