// Package plugin provides an extensible plugin system for Harvest.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated is called when a new account is registered.
type OnAccountCreated interface {
	Plugin
	OnAccountCreated(ctx context.Context, acct interface{}) error
}

// ──────────────────────────────────────────────────
// Holding lifecycle hooks
// ──────────────────────────────────────────────────

// OnHoldingCreated is called when a new holding row is created.
type OnHoldingCreated interface {
	Plugin
	OnHoldingCreated(ctx context.Context, h interface{}) error
}

// OnHoldingUpdated is called when an existing holding row is merged into.
type OnHoldingUpdated interface {
	Plugin
	OnHoldingUpdated(ctx context.Context, h interface{}) error
}

// ──────────────────────────────────────────────────
// Exchange hooks
// ──────────────────────────────────────────────────

// OnExchangeCompleted is called after an exchange settles and its blocks
// are on the chain.
type OnExchangeCompleted interface {
	Plugin
	OnExchangeCompleted(ctx context.Context, txn interface{}) error
}

// OnExchangeRejected is called when an exchange fails validation. Nothing
// was written.
type OnExchangeRejected interface {
	Plugin
	OnExchangeRejected(ctx context.Context, seller, buyer, asset string, quantity int64, reason error) error
}

// ──────────────────────────────────────────────────
// Chain hooks
// ──────────────────────────────────────────────────

// OnBlockAppended is called for every block appended to the chain.
type OnBlockAppended interface {
	Plugin
	OnBlockAppended(ctx context.Context, block interface{}) error
}

// OnChainVerified is called after a successful chain verification pass.
type OnChainVerified interface {
	Plugin
	OnChainVerified(ctx context.Context, length int, elapsed time.Duration) error
}

// OnIntegrityViolation is called when verification finds a broken link.
// The engine halts appends until resumed.
type OnIntegrityViolation interface {
	Plugin
	OnIntegrityViolation(ctx context.Context, err error) error
}
