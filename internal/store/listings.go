package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

const listingColumns = `id, owner_id, product_sku, title, description, price_cents, status,
	quantity, reserved_qty, version, image_mime, created_at, updated_at, deleted_at`

// CreateListing inserts a new listing and returns it.
func CreateListing(ctx context.Context, db DBTX, l *model.Listing) (*model.Listing, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO listings (owner_id, product_sku, title, description, price_cents, status, quantity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.OwnerID, l.ProductSKU, l.Title, l.Description, l.PriceCents, l.Status, l.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting listing id: %w", err)
	}

	return GetListing(ctx, db, id)
}

// GetListing returns a non-deleted listing by ID.
func GetListing(ctx context.Context, db DBTX, id int64) (*model.Listing, error) {
	return scanListing(db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ? AND deleted_at IS NULL`, id,
	))
}

func scanListing(row *sql.Row) (*model.Listing, error) {
	l := &model.Listing{}
	var sku, description, imageMime sql.NullString
	var quantity sql.NullInt64
	err := row.Scan(&l.ID, &l.OwnerID, &sku, &l.Title, &description, &l.PriceCents, &l.Status,
		&quantity, &l.ReservedQty, &l.Version, &imageMime, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	if sku.Valid {
		s := sku.String
		l.ProductSKU = &s
	}
	if quantity.Valid {
		q := int(quantity.Int64)
		l.Quantity = &q
	}
	l.Description = description.String
	l.ImageMime = imageMime.String
	return l, nil
}

// ListingFilter narrows ListListings results. Zero values mean "any".
type ListingFilter struct {
	OwnerID int64
	Status  string
	SKU     string
	Limit   int
	Offset  int
}

// ListListings returns non-deleted listings matching the filter, newest
// first, paginated.
func ListListings(ctx context.Context, db DBTX, f ListingFilter) ([]model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE deleted_at IS NULL`
	var args []any

	if f.OwnerID > 0 {
		query += ` AND owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.SKU != "" {
		query += ` AND product_sku = ?`
		args = append(args, f.SKU)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var sku, description, imageMime sql.NullString
		var quantity sql.NullInt64
		if err := rows.Scan(&l.ID, &l.OwnerID, &sku, &l.Title, &description, &l.PriceCents, &l.Status,
			&quantity, &l.ReservedQty, &l.Version, &imageMime, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		if sku.Valid {
			s := sku.String
			l.ProductSKU = &s
		}
		if quantity.Valid {
			q := int(quantity.Int64)
			l.Quantity = &q
		}
		l.Description = description.String
		l.ImageMime = imageMime.String
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SetListingStatus writes a listing's status and bumps its version. Meant to
// run inside the caller's transaction.
func SetListingStatus(ctx context.Context, db DBTX, id int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("setting listing status: %w", err)
	}
	return nil
}

// SetListingQuantities writes a listing's quantity and reserved count
// together and bumps its version. Meant to run inside the caller's
// transaction.
func SetListingQuantities(ctx context.Context, db DBTX, id int64, quantity *int, reserved int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET quantity = ?, reserved_qty = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		quantity, reserved, id,
	)
	if err != nil {
		return fmt.Errorf("setting listing quantities: %w", err)
	}
	return nil
}

// SetReservedQty writes a listing's reserved count and bumps its version.
func SetReservedQty(ctx context.Context, db DBTX, id int64, reserved int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET reserved_qty = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		reserved, id,
	)
	if err != nil {
		return fmt.Errorf("setting reserved quantity: %w", err)
	}
	return nil
}

// ShiftQuantitiesForSKU applies a stock delta to every tracked listing of a
// SKU, flooring quantity at zero and clamping reservations to the new
// quantity. Untracked (NULL quantity) listings are untouched. Meant to run
// inside the caller's transaction.
func ShiftQuantitiesForSKU(ctx context.Context, db DBTX, sku string, delta int) error {
	// Quantity and the reservation clamp move in one statement so the
	// reserved_qty <= quantity constraint holds at every point.
	_, err := db.ExecContext(ctx,
		`UPDATE listings
		 SET quantity = MAX(0, quantity + ?),
		     reserved_qty = MIN(reserved_qty, MAX(0, quantity + ?)),
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE product_sku = ? AND quantity IS NOT NULL AND deleted_at IS NULL`,
		delta, delta, sku,
	)
	if err != nil {
		return fmt.Errorf("shifting listing quantities: %w", err)
	}
	return nil
}

// SetQuantitiesForSKU overwrites the quantity of every tracked listing of a
// SKU with an absolute value, clamping reservations down to it. Reservations
// are never increased. Meant to run inside the caller's transaction.
func SetQuantitiesForSKU(ctx context.Context, db DBTX, sku string, quantity int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings
		 SET quantity = ?, reserved_qty = MIN(reserved_qty, ?),
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE product_sku = ? AND quantity IS NOT NULL AND deleted_at IS NULL`,
		quantity, quantity, sku,
	)
	if err != nil {
		return fmt.Errorf("overwriting listing quantities: %w", err)
	}
	return nil
}

// SoftDeleteListing soft-deletes a listing.
func SoftDeleteListing(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	return nil
}

// SetListingImage sets a listing's photo data.
func SetListingImage(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE listings SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting listing image: %w", err)
	}
	return nil
}

// GetListingImage returns a listing's photo data and MIME type.
func GetListingImage(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM listings WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting listing image: %w", err)
	}
	return image, mime.String, nil
}
