// Package extension provides the Forge extension adapter for Harvest.
//
// It implements the forge.Extension interface to integrate Harvest
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.harvest" or "harvest" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	harvest "github.com/xraph/harvest"
	"github.com/xraph/harvest/store"
	"github.com/xraph/harvest/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "harvest"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Supply-chain exchange engine with hash-chained audit ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Harvest as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *harvest.Engine
	store      store.Store
	engineOpts []harvest.Option
}

// New creates a new Harvest Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Harvest engine.
// This is nil until Register is called.
func (e *Extension) Engine() *harvest.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the exchange engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	eng := harvest.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*harvest.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("harvest: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("harvest: store not initialized")
	}
	if e.engine != nil && e.engine.Halted() {
		return harvest.ErrChainHalted
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs harvest.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []harvest.Option {
	opts := make([]harvest.Option, 0, len(e.engineOpts)+2)

	if e.config.VerifyInterval > 0 {
		opts = append(opts, harvest.WithVerifyInterval(e.config.VerifyInterval))
	}
	if e.config.DisableMigrate {
		// Skip schema migration only; genesis sealing and workers still run.
		opts = append(opts, harvest.WithoutAutoMigrate())
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("harvest: configuration is required but not found in config files; " +
				"ensure 'extensions.harvest' or 'harvest' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("harvest: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("verify_interval", e.config.VerifyInterval),
		forge.F("currency", e.config.Currency),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.harvest" first (namespaced pattern).
	if cm.IsSet("extensions.harvest") {
		if err := cm.Bind("extensions.harvest", &cfg); err == nil {
			e.Logger().Debug("harvest: loaded config from file",
				forge.F("key", "extensions.harvest"),
			)
			return cfg, true
		}
		e.Logger().Warn("harvest: failed to bind extensions.harvest config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "harvest" key.
	if cm.IsSet("harvest") {
		if err := cm.Bind("harvest", &cfg); err == nil {
			e.Logger().Debug("harvest: loaded config from file",
				forge.F("key", "harvest"),
			)
			return cfg, true
		}
		e.Logger().Warn("harvest: failed to bind harvest config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.VerifyInterval == 0 {
		cfg.VerifyInterval = defaults.VerifyInterval
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Duration/string fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.VerifyInterval == 0 && programmaticConfig.VerifyInterval != 0 {
		yamlConfig.VerifyInterval = programmaticConfig.VerifyInterval
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
