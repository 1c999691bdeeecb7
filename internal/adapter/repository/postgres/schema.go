package postgres

import (
	"context"
	"database/sql"
)

// Schema creates the directory tables if they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id              UUID PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	data_endpoint   TEXT NOT NULL,
	data_access_key TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS admin_api_keys (
	key_hash   TEXT PRIMARY KEY,
	label      TEXT NOT NULL DEFAULT '',
	is_active  BOOLEAN NOT NULL DEFAULT true,
	expires_at TIMESTAMPTZ
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
