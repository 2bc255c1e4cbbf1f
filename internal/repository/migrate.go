package repository

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	stock          INT  NOT NULL DEFAULT 0,
	reserved_stock INT  NOT NULL DEFAULT 0,
	active         BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS inventory_variants (
	id             UUID PRIMARY KEY,
	item_id        UUID NOT NULL REFERENCES inventory_items(id),
	label          TEXT NOT NULL,
	stock          INT  NOT NULL DEFAULT 0,
	reserved_stock INT  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS claims (
	id             UUID PRIMARY KEY,
	session_id     UUID NOT NULL,
	item_id        UUID NOT NULL,
	variant_id     UUID,
	customer_label TEXT NOT NULL,
	quantity       INT  NOT NULL,
	status         TEXT NOT NULL,
	joy_reserve    BOOLEAN NOT NULL DEFAULT FALSE,
	reason         TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_session_created ON claims(session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);
CREATE INDEX IF NOT EXISTS idx_variants_item ON inventory_variants(item_id);
`

// Migrate creates the service's tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
