package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Harvest store (SQLite).
var Migrations = migrate.NewGroup("harvest")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_harvest_accounts",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS harvest_accounts (
    id               TEXT PRIMARY KEY,
    identity         TEXT NOT NULL DEFAULT '',
    tier             TEXT NOT NULL DEFAULT '',
    balance_amount   INTEGER NOT NULL DEFAULT 0,
    balance_currency TEXT NOT NULL DEFAULT 'usd',
    credential_hash  TEXT NOT NULL DEFAULT '',
    metadata         TEXT NOT NULL DEFAULT '{}',
    created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_harvest_accounts_identity ON harvest_accounts (identity);
CREATE INDEX IF NOT EXISTS idx_harvest_accounts_tier ON harvest_accounts (tier);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS harvest_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_harvest_holdings",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS harvest_holdings (
    id                  TEXT PRIMARY KEY,
    name                TEXT NOT NULL DEFAULT '',
    owner               TEXT NOT NULL DEFAULT '',
    previous_owner      TEXT NOT NULL DEFAULT '',
    quantity            INTEGER NOT NULL DEFAULT 0,
    unit_price_amount   INTEGER NOT NULL DEFAULT 0,
    unit_price_currency TEXT NOT NULL DEFAULT 'usd',
    storage_period      INTEGER NOT NULL DEFAULT 0,
    season              TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_harvest_holdings_key ON harvest_holdings (name, owner, previous_owner);
CREATE INDEX IF NOT EXISTS idx_harvest_holdings_owner_name ON harvest_holdings (owner, name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS harvest_holdings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_harvest_transactions",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS harvest_transactions (
    id              TEXT PRIMARY KEY,
    seller_identity TEXT NOT NULL DEFAULT '',
    buyer_identity  TEXT NOT NULL DEFAULT '',
    seller          TEXT NOT NULL DEFAULT '{}',
    buyer           TEXT NOT NULL DEFAULT '{}',
    asset           TEXT NOT NULL DEFAULT '{}',
    quantity        INTEGER NOT NULL DEFAULT 0,
    total_amount    INTEGER NOT NULL DEFAULT 0,
    total_currency  TEXT NOT NULL DEFAULT 'usd',
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_harvest_txns_seller ON harvest_transactions (seller_identity);
CREATE INDEX IF NOT EXISTS idx_harvest_txns_buyer ON harvest_transactions (buyer_identity);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS harvest_transactions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_harvest_blocks",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS harvest_blocks (
    id            TEXT PRIMARY KEY,
    previous_hash TEXT NOT NULL DEFAULT '',
    hash          TEXT NOT NULL DEFAULT '',
    payload_hash  TEXT NOT NULL DEFAULT '',
    block_type    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_harvest_blocks_hash ON harvest_blocks (hash);
CREATE INDEX IF NOT EXISTS idx_harvest_blocks_type ON harvest_blocks (block_type);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS harvest_blocks`)
				return err
			},
		},
	)
}
