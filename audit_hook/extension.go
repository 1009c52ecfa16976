// Package audithook bridges Harvest lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit backend. Callers inject a RecorderFunc adapter that
// bridges to their trail at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnAccountCreated     = (*Extension)(nil)
	_ plugin.OnHoldingCreated     = (*Extension)(nil)
	_ plugin.OnHoldingUpdated     = (*Extension)(nil)
	_ plugin.OnExchangeCompleted  = (*Extension)(nil)
	_ plugin.OnExchangeRejected   = (*Extension)(nil)
	_ plugin.OnBlockAppended      = (*Extension)(nil)
	_ plugin.OnChainVerified      = (*Extension)(nil)
	_ plugin.OnIntegrityViolation = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import a
// concrete trail — callers inject their backend at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Harvest lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (e *Extension) OnAccountCreated(ctx context.Context, v interface{}) error {
	acct, ok := v.(*account.Account)
	if !ok {
		return nil
	}

	return e.record(ctx, ActionAccountCreated, SeverityInfo, OutcomeSuccess,
		ResourceAccount, acct.ID.String(), CategoryProvenance, nil,
		"identity", acct.Identity,
		"tier", string(acct.Tier),
	)
}

// ──────────────────────────────────────────────────
// Holding lifecycle hooks
// ──────────────────────────────────────────────────

// OnHoldingCreated implements plugin.OnHoldingCreated.
func (e *Extension) OnHoldingCreated(ctx context.Context, v interface{}) error {
	h, ok := v.(*holding.Holding)
	if !ok {
		return nil
	}

	return e.record(ctx, ActionHoldingCreated, SeverityInfo, OutcomeSuccess,
		ResourceHolding, h.ID.String(), CategoryProvenance, nil,
		"name", h.Name,
		"owner", h.Owner,
		"quantity", h.Quantity,
	)
}

// OnHoldingUpdated implements plugin.OnHoldingUpdated.
func (e *Extension) OnHoldingUpdated(ctx context.Context, v interface{}) error {
	h, ok := v.(*holding.Holding)
	if !ok {
		return nil
	}

	return e.record(ctx, ActionHoldingUpdated, SeverityInfo, OutcomeSuccess,
		ResourceHolding, h.ID.String(), CategoryProvenance, nil,
		"name", h.Name,
		"owner", h.Owner,
		"quantity", h.Quantity,
	)
}

// ──────────────────────────────────────────────────
// Exchange hooks
// ──────────────────────────────────────────────────

// OnExchangeCompleted implements plugin.OnExchangeCompleted.
func (e *Extension) OnExchangeCompleted(ctx context.Context, v interface{}) error {
	txn, ok := v.(*exchange.Transaction)
	if !ok {
		return nil
	}

	return e.record(ctx, ActionExchangeCompleted, SeverityInfo, OutcomeSuccess,
		ResourceExchange, txn.ID.String(), CategoryTrade, nil,
		"seller", txn.SellerIdentity,
		"buyer", txn.BuyerIdentity,
		"asset", txn.Asset.Name,
		"quantity", txn.Quantity,
		"total", txn.Total.String(),
	)
}

// OnExchangeRejected implements plugin.OnExchangeRejected.
func (e *Extension) OnExchangeRejected(ctx context.Context, seller, buyer, asset string, quantity int64, reason error) error {
	return e.record(ctx, ActionExchangeRejected, SeverityWarning, OutcomeFailure,
		ResourceExchange, "", CategoryTrade, reason,
		"seller", seller,
		"buyer", buyer,
		"asset", asset,
		"quantity", quantity,
	)
}

// ──────────────────────────────────────────────────
// Chain hooks
// ──────────────────────────────────────────────────

// OnBlockAppended implements plugin.OnBlockAppended.
func (e *Extension) OnBlockAppended(ctx context.Context, v interface{}) error {
	b, ok := v.(*chain.Block)
	if !ok {
		return nil
	}

	return e.record(ctx, ActionBlockAppended, SeverityInfo, OutcomeSuccess,
		ResourceBlock, b.ID.String(), CategoryIntegrity, nil,
		"block_type", string(b.Type),
		"hash", b.Hash,
	)
}

// OnChainVerified implements plugin.OnChainVerified.
func (e *Extension) OnChainVerified(ctx context.Context, length int, elapsed time.Duration) error {
	return e.record(ctx, ActionChainVerified, SeverityInfo, OutcomeSuccess,
		ResourceChain, "", CategoryIntegrity, nil,
		"blocks", length,
		"elapsed", elapsed.String(),
	)
}

// OnIntegrityViolation implements plugin.OnIntegrityViolation.
func (e *Extension) OnIntegrityViolation(ctx context.Context, violation error) error {
	return e.record(ctx, ActionIntegrityViolation, SeverityCritical, OutcomeFailure,
		ResourceChain, "", CategoryIntegrity, violation,
		"event", "integrity_violation",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
