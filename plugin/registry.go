package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages registered plugins and dispatches lifecycle events.
// Plugins are type-asserted once at registration and cached per hook, so
// event emission never reflects.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Cached hook lists
	onInit               []OnInit
	onShutdown           []OnShutdown
	onAccountCreated     []OnAccountCreated
	onHoldingCreated     []OnHoldingCreated
	onHoldingUpdated     []OnHoldingUpdated
	onExchangeCompleted  []OnExchangeCompleted
	onExchangeRejected   []OnExchangeRejected
	onBlockAppended      []OnBlockAppended
	onChainVerified      []OnChainVerified
	onIntegrityViolation []OnIntegrityViolation
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger used for plugin failure reporting.
func (r *Registry) WithLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate name %q", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAccountCreated); ok {
		r.onAccountCreated = append(r.onAccountCreated, v)
	}
	if v, ok := p.(OnHoldingCreated); ok {
		r.onHoldingCreated = append(r.onHoldingCreated, v)
	}
	if v, ok := p.(OnHoldingUpdated); ok {
		r.onHoldingUpdated = append(r.onHoldingUpdated, v)
	}
	if v, ok := p.(OnExchangeCompleted); ok {
		r.onExchangeCompleted = append(r.onExchangeCompleted, v)
	}
	if v, ok := p.(OnExchangeRejected); ok {
		r.onExchangeRejected = append(r.onExchangeRejected, v)
	}
	if v, ok := p.(OnBlockAppended); ok {
		r.onBlockAppended = append(r.onBlockAppended, v)
	}
	if v, ok := p.(OnChainVerified); ok {
		r.onChainVerified = append(r.onChainVerified, v)
	}
	if v, ok := p.(OnIntegrityViolation); ok {
		r.onIntegrityViolation = append(r.onIntegrityViolation, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnAccountCreated)(nil)).Elem(), "OnAccountCreated")
	checkInterface(reflect.TypeOf((*OnHoldingCreated)(nil)).Elem(), "OnHoldingCreated")
	checkInterface(reflect.TypeOf((*OnHoldingUpdated)(nil)).Elem(), "OnHoldingUpdated")
	checkInterface(reflect.TypeOf((*OnExchangeCompleted)(nil)).Elem(), "OnExchangeCompleted")
	checkInterface(reflect.TypeOf((*OnExchangeRejected)(nil)).Elem(), "OnExchangeRejected")
	checkInterface(reflect.TypeOf((*OnBlockAppended)(nil)).Elem(), "OnBlockAppended")
	checkInterface(reflect.TypeOf((*OnChainVerified)(nil)).Elem(), "OnChainVerified")
	checkInterface(reflect.TypeOf((*OnIntegrityViolation)(nil)).Elem(), "OnIntegrityViolation")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccountCreated emits an account created event.
func (r *Registry) EmitAccountCreated(ctx context.Context, acct interface{}) {
	r.mu.RLock()
	plugins := r.onAccountCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAccountCreated(ctx, acct)
		}); err != nil {
			r.logger.Warn("plugin OnAccountCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitHoldingCreated emits a holding created event.
func (r *Registry) EmitHoldingCreated(ctx context.Context, h interface{}) {
	r.mu.RLock()
	plugins := r.onHoldingCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnHoldingCreated(ctx, h)
		}); err != nil {
			r.logger.Warn("plugin OnHoldingCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitHoldingUpdated emits a holding updated event.
func (r *Registry) EmitHoldingUpdated(ctx context.Context, h interface{}) {
	r.mu.RLock()
	plugins := r.onHoldingUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnHoldingUpdated(ctx, h)
		}); err != nil {
			r.logger.Warn("plugin OnHoldingUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitExchangeCompleted emits an exchange completed event.
func (r *Registry) EmitExchangeCompleted(ctx context.Context, txn interface{}) {
	r.mu.RLock()
	plugins := r.onExchangeCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnExchangeCompleted(ctx, txn)
		}); err != nil {
			r.logger.Warn("plugin OnExchangeCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitExchangeRejected emits an exchange rejected event.
func (r *Registry) EmitExchangeRejected(ctx context.Context, seller, buyer, asset string, quantity int64, reason error) {
	r.mu.RLock()
	plugins := r.onExchangeRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnExchangeRejected(ctx, seller, buyer, asset, quantity, reason)
		}); err != nil {
			r.logger.Warn("plugin OnExchangeRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBlockAppended emits a block appended event.
func (r *Registry) EmitBlockAppended(ctx context.Context, block interface{}) {
	r.mu.RLock()
	plugins := r.onBlockAppended
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBlockAppended(ctx, block)
		}); err != nil {
			r.logger.Warn("plugin OnBlockAppended failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitChainVerified emits a chain verified event.
func (r *Registry) EmitChainVerified(ctx context.Context, length int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onChainVerified
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnChainVerified(ctx, length, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnChainVerified failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitIntegrityViolation emits an integrity violation event.
func (r *Registry) EmitIntegrityViolation(ctx context.Context, violation error) {
	r.mu.RLock()
	plugins := r.onIntegrityViolation
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnIntegrityViolation(ctx, violation)
		}); err != nil {
			r.logger.Warn("plugin OnIntegrityViolation failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the exchange pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
