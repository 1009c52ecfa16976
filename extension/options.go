package extension

import (
	"time"

	harvest "github.com/xraph/harvest"
	"github.com/xraph/harvest/plugin"
	"github.com/xraph/harvest/store"
)

// Option configures the Harvest Forge extension.
type Option func(*Extension)

// WithStore sets the store for the exchange engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a harvest.Option through to the underlying engine.
func WithEngineOption(opt harvest.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a harvest plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, harvest.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithVerifyInterval sets how often the audit chain is re-verified in the
// background.
func WithVerifyInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.VerifyInterval = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
