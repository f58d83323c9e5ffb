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
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS item_types (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    sub_type      TEXT NOT NULL DEFAULT '',
    is_serialized INTEGER NOT NULL DEFAULT 0 CHECK (is_serialized IN (0, 1)),
    details       TEXT NOT NULL DEFAULT '',
    image         BLOB,
    image_mime    TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (name, sub_type)
);

CREATE TABLE IF NOT EXISTS items (
    id            INTEGER PRIMARY KEY,
    item_type_id  INTEGER NOT NULL REFERENCES item_types(id) ON DELETE CASCADE,
    quantity      INTEGER NOT NULL,
    serial_number TEXT UNIQUE,
    location      TEXT NOT NULL DEFAULT '',
    condition     TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((serial_number IS NULL AND quantity > 0) OR (serial_number IS NOT NULL AND quantity = 1))
);

CREATE INDEX IF NOT EXISTS idx_items_item_type_id ON items(item_type_id);
CREATE INDEX IF NOT EXISTS idx_items_location ON items(location);

CREATE TABLE IF NOT EXISTS transactions (
    id               INTEGER PRIMARY KEY,
    item_type_id     INTEGER NOT NULL REFERENCES item_types(id),
    transaction_type TEXT NOT NULL CHECK (transaction_type IN ('add', 'remove', 'edit')),
    quantity_change  INTEGER NOT NULL,
    quantity_before  INTEGER NOT NULL,
    quantity_after   INTEGER NOT NULL,
    serial_number    TEXT,
    notes            TEXT NOT NULL DEFAULT '',
    created_by       INTEGER REFERENCES users(id),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_item_type_id ON transactions(item_type_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);

CREATE TABLE IF NOT EXISTS search_history (
    id           INTEGER PRIMARY KEY,
    search_query TEXT NOT NULL,
    search_field TEXT,
    searched_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_search_history_query_field
    ON search_history(search_query, COALESCE(search_field, ''));
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
