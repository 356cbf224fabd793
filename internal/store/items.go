package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

// CreateItem creates a new inventory item. Items normally arrive through
// catalog onboarding; this also backs the admin endpoint and tests.
func CreateItem(ctx context.Context, db DBTX, sku string, ownerID int64, name string, stock int, quantity *int, reorderThreshold int, isOfficial bool) (*model.InventoryItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO inventory_items (sku, owner_id, name, stock, quantity, reorder_threshold, is_official)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sku, ownerID, name, stock, quantity, reorderThreshold, isOfficial,
	)
	if err != nil {
		return nil, fmt.Errorf("creating inventory item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inventory item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an inventory item by ID.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.InventoryItem, error) {
	return scanItem(db.QueryRowContext(ctx,
		`SELECT id, sku, owner_id, name, stock, quantity, reorder_threshold, is_official, created_at, updated_at
		 FROM inventory_items WHERE id = ?`, id,
	))
}

// GetItemBySKU returns an inventory item by SKU.
func GetItemBySKU(ctx context.Context, db DBTX, sku string) (*model.InventoryItem, error) {
	return scanItem(db.QueryRowContext(ctx,
		`SELECT id, sku, owner_id, name, stock, quantity, reorder_threshold, is_official, created_at, updated_at
		 FROM inventory_items WHERE sku = ?`, sku,
	))
}

func scanItem(row *sql.Row) (*model.InventoryItem, error) {
	item := &model.InventoryItem{}
	var quantity sql.NullInt64
	err := row.Scan(&item.ID, &item.SKU, &item.OwnerID, &item.Name, &item.Stock,
		&quantity, &item.ReorderThreshold, &item.IsOfficial, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory item: %w", err)
	}
	if quantity.Valid {
		q := int(quantity.Int64)
		item.Quantity = &q
	}
	return item, nil
}

// ListItems returns inventory items, optionally filtered by owner.
func ListItems(ctx context.Context, db DBTX, ownerID int64) ([]model.InventoryItem, error) {
	query := `SELECT id, sku, owner_id, name, stock, quantity, reorder_threshold, is_official, created_at, updated_at
	          FROM inventory_items`
	var args []any
	if ownerID > 0 {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY sku`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListBelowReorder returns items whose stock is at or below their reorder
// threshold (items with no threshold are skipped).
func ListBelowReorder(ctx context.Context, db DBTX, ownerID int64) ([]model.InventoryItem, error) {
	query := `SELECT id, sku, owner_id, name, stock, quantity, reorder_threshold, is_official, created_at, updated_at
	          FROM inventory_items
	          WHERE reorder_threshold > 0 AND stock <= reorder_threshold`
	var args []any
	if ownerID > 0 {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY stock, sku`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items below reorder threshold: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		var quantity sql.NullInt64
		if err := rows.Scan(&item.ID, &item.SKU, &item.OwnerID, &item.Name, &item.Stock,
			&quantity, &item.ReorderThreshold, &item.IsOfficial, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning inventory item: %w", err)
		}
		if quantity.Valid {
			q := int(quantity.Int64)
			item.Quantity = &q
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetItemStock writes the item's stock, mirrors quantity when tracked, and
// optionally updates the reorder threshold. Meant to run inside the caller's
// transaction.
func SetItemStock(ctx context.Context, db DBTX, id int64, stock int, mirrorQuantity bool, reorderThreshold *int) error {
	var err error
	switch {
	case mirrorQuantity && reorderThreshold != nil:
		_, err = db.ExecContext(ctx,
			`UPDATE inventory_items SET stock = ?, quantity = ?, reorder_threshold = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			stock, stock, *reorderThreshold, id)
	case mirrorQuantity:
		_, err = db.ExecContext(ctx,
			`UPDATE inventory_items SET stock = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			stock, stock, id)
	case reorderThreshold != nil:
		_, err = db.ExecContext(ctx,
			`UPDATE inventory_items SET stock = ?, reorder_threshold = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			stock, *reorderThreshold, id)
	default:
		_, err = db.ExecContext(ctx,
			`UPDATE inventory_items SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			stock, id)
	}
	if err != nil {
		return fmt.Errorf("setting item stock: %w", err)
	}
	return nil
}
