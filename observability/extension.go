// Package observability provides a metrics extension for Harvest that
// records lifecycle event counts via an injected MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnAccountCreated     = (*MetricsExtension)(nil)
	_ plugin.OnHoldingCreated     = (*MetricsExtension)(nil)
	_ plugin.OnHoldingUpdated     = (*MetricsExtension)(nil)
	_ plugin.OnExchangeCompleted  = (*MetricsExtension)(nil)
	_ plugin.OnExchangeRejected   = (*MetricsExtension)(nil)
	_ plugin.OnBlockAppended      = (*MetricsExtension)(nil)
	_ plugin.OnChainVerified      = (*MetricsExtension)(nil)
	_ plugin.OnIntegrityViolation = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Harvest plugin to automatically track exchange metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Account metrics
	AccountsCreated Counter

	// Holding metrics
	HoldingsCreated Counter
	HoldingsUpdated Counter

	// Exchange metrics
	ExchangesCompleted Counter
	ExchangesRejected  Counter
	ExchangeQuantity   Histogram
	ExchangeTotal      Histogram

	// Chain metrics
	BlocksAppended      Counter
	ChainLength         Histogram
	VerifyLatency       Histogram
	IntegrityViolations Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Account metrics
		AccountsCreated: factory.Counter("harvest.account.created"),

		// Holding metrics
		HoldingsCreated: factory.Counter("harvest.holding.created"),
		HoldingsUpdated: factory.Counter("harvest.holding.updated"),

		// Exchange metrics
		ExchangesCompleted: factory.Counter("harvest.exchange.completed"),
		ExchangesRejected:  factory.Counter("harvest.exchange.rejected"),
		ExchangeQuantity:   factory.Histogram("harvest.exchange.quantity"),
		ExchangeTotal:      factory.Histogram("harvest.exchange.total_amount"),

		// Chain metrics
		BlocksAppended:      factory.Counter("harvest.chain.blocks.appended"),
		ChainLength:         factory.Histogram("harvest.chain.length"),
		VerifyLatency:       factory.Histogram("harvest.chain.verify.latency_ms"),
		IntegrityViolations: factory.Counter("harvest.chain.integrity_violations"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (m *MetricsExtension) OnAccountCreated(_ context.Context, _ interface{}) error {
	m.AccountsCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Holding lifecycle hooks
// ──────────────────────────────────────────────────

// OnHoldingCreated implements plugin.OnHoldingCreated.
func (m *MetricsExtension) OnHoldingCreated(_ context.Context, _ interface{}) error {
	m.HoldingsCreated.Inc()
	return nil
}

// OnHoldingUpdated implements plugin.OnHoldingUpdated.
func (m *MetricsExtension) OnHoldingUpdated(_ context.Context, _ interface{}) error {
	m.HoldingsUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Exchange hooks
// ──────────────────────────────────────────────────

// OnExchangeCompleted implements plugin.OnExchangeCompleted.
func (m *MetricsExtension) OnExchangeCompleted(_ context.Context, v interface{}) error {
	m.ExchangesCompleted.Inc()

	if txn, ok := v.(*exchange.Transaction); ok {
		m.ExchangeQuantity.Observe(float64(txn.Quantity))
		m.ExchangeTotal.Observe(float64(txn.Total.Amount))
	}
	return nil
}

// OnExchangeRejected implements plugin.OnExchangeRejected.
func (m *MetricsExtension) OnExchangeRejected(_ context.Context, _, _, _ string, _ int64, _ error) error {
	m.ExchangesRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Chain hooks
// ──────────────────────────────────────────────────

// OnBlockAppended implements plugin.OnBlockAppended.
func (m *MetricsExtension) OnBlockAppended(_ context.Context, _ interface{}) error {
	m.BlocksAppended.Inc()
	return nil
}

// OnChainVerified implements plugin.OnChainVerified.
func (m *MetricsExtension) OnChainVerified(_ context.Context, length int, elapsed time.Duration) error {
	m.ChainLength.Observe(float64(length))
	m.VerifyLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnIntegrityViolation implements plugin.OnIntegrityViolation.
func (m *MetricsExtension) OnIntegrityViolation(_ context.Context, _ error) error {
	m.IntegrityViolations.Inc()
	return nil
}
