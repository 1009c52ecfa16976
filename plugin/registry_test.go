package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recorderPlugin counts hook invocations.
type recorderPlugin struct {
	mu sync.Mutex

	inits      int
	shutdowns  int
	accounts   int
	completed  int
	rejected   int
	blocks     int
	verified   int
	violations int

	lastReason error
}

func (p *recorderPlugin) Name() string { return "recorder" }

func (p *recorderPlugin) OnInit(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return nil
}

func (p *recorderPlugin) OnShutdown(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
	return nil
}

func (p *recorderPlugin) OnAccountCreated(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts++
	return nil
}

func (p *recorderPlugin) OnExchangeCompleted(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
	return nil
}

func (p *recorderPlugin) OnExchangeRejected(_ context.Context, _, _, _ string, _ int64, reason error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected++
	p.lastReason = reason
	return nil
}

func (p *recorderPlugin) OnBlockAppended(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks++
	return nil
}

func (p *recorderPlugin) OnChainVerified(_ context.Context, _ int, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified++
	return nil
}

func (p *recorderPlugin) OnIntegrityViolation(_ context.Context, _ error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.violations++
	return nil
}

// namedPlugin implements only the base interface.
type namedPlugin struct{ name string }

func (p *namedPlugin) Name() string { return p.name }

func TestRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&recorderPlugin{}); err != nil {
		t.Fatal(err)
	}
	if r.Count() != 1 {
		t.Errorf("Count: got %d", r.Count())
	}
	if r.Get("recorder") == nil {
		t.Error("Get should find the registered plugin")
	}
	if r.Get("missing") != nil {
		t.Error("Get should return nil for unknown plugin")
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&namedPlugin{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&namedPlugin{name: "dup"}); err == nil {
		t.Error("expected error registering duplicate plugin name")
	}
}

func TestEmitsReachHooks(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	p := &recorderPlugin{}
	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}

	// A plugin without hooks must not break emission.
	if err := r.Register(&namedPlugin{name: "inert"}); err != nil {
		t.Fatal(err)
	}

	r.EmitInit(ctx, nil)
	r.EmitAccountCreated(ctx, nil)
	r.EmitExchangeCompleted(ctx, nil)
	reason := errors.New("stock exhausted")
	r.EmitExchangeRejected(ctx, "a", "b", "wheat", 10, reason)
	r.EmitBlockAppended(ctx, nil)
	r.EmitBlockAppended(ctx, nil)
	r.EmitChainVerified(ctx, 5, time.Millisecond)
	r.EmitIntegrityViolation(ctx, errors.New("broken link"))
	r.EmitShutdown(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inits != 1 || p.shutdowns != 1 {
		t.Errorf("lifecycle: inits %d, shutdowns %d", p.inits, p.shutdowns)
	}
	if p.accounts != 1 {
		t.Errorf("accounts: got %d", p.accounts)
	}
	if p.completed != 1 || p.rejected != 1 {
		t.Errorf("exchanges: completed %d, rejected %d", p.completed, p.rejected)
	}
	if !errors.Is(p.lastReason, reason) {
		t.Errorf("rejection reason: got %v", p.lastReason)
	}
	if p.blocks != 2 {
		t.Errorf("blocks: got %d", p.blocks)
	}
	if p.verified != 1 || p.violations != 1 {
		t.Errorf("chain hooks: verified %d, violations %d", p.verified, p.violations)
	}
}

func TestEmitWithNoPlugins(t *testing.T) {
	r := NewRegistry()

	// All emits must be safe on an empty registry.
	ctx := context.Background()
	r.EmitInit(ctx, nil)
	r.EmitAccountCreated(ctx, nil)
	r.EmitExchangeCompleted(ctx, nil)
	r.EmitBlockAppended(ctx, nil)
	r.EmitChainVerified(ctx, 0, 0)
	r.EmitShutdown(ctx)
}
