package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'seller' CHECK (role IN ('admin', 'official', 'seller')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_items (
    id                INTEGER PRIMARY KEY,
    sku               TEXT NOT NULL UNIQUE,
    owner_id          INTEGER NOT NULL REFERENCES users(id),
    name              TEXT NOT NULL,
    stock             INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    quantity          INTEGER,
    reorder_threshold INTEGER NOT NULL DEFAULT 0 CHECK (reorder_threshold >= 0),
    is_official       INTEGER NOT NULL DEFAULT 0,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS listings (
    id           INTEGER PRIMARY KEY,
    owner_id     INTEGER NOT NULL REFERENCES users(id),
    product_sku  TEXT REFERENCES inventory_items(sku),
    title        TEXT NOT NULL,
    description  TEXT,
    price_cents  INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT 'pending'
                 CHECK (status IN ('draft', 'pending', 'approved', 'live', 'closed', 'delisted')),
    quantity     INTEGER,
    reserved_qty INTEGER NOT NULL DEFAULT 0 CHECK (reserved_qty >= 0),
    version      INTEGER NOT NULL DEFAULT 1,
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME,
    CHECK (quantity IS NULL OR reserved_qty <= quantity)
);

CREATE INDEX IF NOT EXISTS idx_listings_sku ON listings(product_sku) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS inventory_transactions (
    id              INTEGER PRIMARY KEY,
    sku             TEXT NOT NULL,
    owner_id        INTEGER NOT NULL REFERENCES users(id),
    type            TEXT NOT NULL CHECK (type IN ('manual_adjustment', 'sale_capture', 'square_webhook_sync')),
    quantity_change INTEGER NOT NULL,
    quantity_before INTEGER NOT NULL,
    quantity_after  INTEGER NOT NULL,
    reference_type  TEXT,
    reference_id    TEXT,
    metadata        TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_sku_created
    ON inventory_transactions(sku, created_at);

CREATE TABLE IF NOT EXISTS listing_change_requests (
    id               INTEGER PRIMARY KEY,
    listing_id       INTEGER NOT NULL REFERENCES listings(id),
    requester_id     INTEGER NOT NULL REFERENCES users(id),
    requested_status TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending'
                     CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
    summary          TEXT,
    reviewer_id      INTEGER REFERENCES users(id),
    review_notes     TEXT,
    resolved_at      DATETIME,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_change_requests_listing_status
    ON listing_change_requests(listing_id, status);

CREATE TABLE IF NOT EXISTS square_catalog_map (
    id               INTEGER PRIMARY KEY,
    local_type       TEXT NOT NULL,
    local_id         INTEGER NOT NULL,
    square_object_id TEXT NOT NULL,
    sync_status      TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('pending', 'synced', 'error')),
    sync_error       TEXT,
    last_synced_at   DATETIME,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (local_type, local_id)
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
