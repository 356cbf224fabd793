package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

// InsertTransaction appends a row to the stock ledger. Ledger rows are
// immutable; there is no update or delete counterpart.
func InsertTransaction(ctx context.Context, db DBTX, t *model.InventoryTransaction) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_transactions
		 (sku, owner_id, type, quantity_change, quantity_before, quantity_after, reference_type, reference_id, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SKU, t.OwnerID, t.Type, t.QuantityChange, t.QuantityBefore, t.QuantityAfter,
		nullString(t.ReferenceType), nullString(t.ReferenceID), nullString(t.Metadata),
	)
	if err != nil {
		return fmt.Errorf("recording inventory transaction: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ListTransactions returns ledger rows for a SKU, newest first, paginated.
func ListTransactions(ctx context.Context, db DBTX, sku string, limit, offset int) ([]model.InventoryTransaction, error) {
	query := `SELECT id, sku, owner_id, type, quantity_change, quantity_before, quantity_after,
	                 reference_type, reference_id, metadata, created_at
	          FROM inventory_transactions WHERE sku = ?
	          ORDER BY created_at DESC, id DESC`
	args := []any{sku}

	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.InventoryTransaction
	for rows.Next() {
		var t model.InventoryTransaction
		var refType, refID, metadata sql.NullString
		if err := rows.Scan(&t.ID, &t.SKU, &t.OwnerID, &t.Type, &t.QuantityChange,
			&t.QuantityBefore, &t.QuantityAfter, &refType, &refID, &metadata, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning inventory transaction: %w", err)
		}
		t.ReferenceType = refType.String
		t.ReferenceID = refID.String
		t.Metadata = metadata.String
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
