package extension

import "time"

// Config holds the Harvest extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.harvest" or "harvest" keys).
type Config struct {
	// DisableMigrate skips store schema migration on start, for deployments
	// that manage schema out of band. Genesis sealing and background
	// verification still run.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// VerifyInterval is how often the background worker re-verifies the
	// audit chain (default: 1m). Zero disables background verification.
	VerifyInterval time.Duration `json:"verify_interval" mapstructure:"verify_interval" yaml:"verify_interval"`

	// Currency is the ISO 4217 code used for zero-valued balances
	// (default: "usd").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		VerifyInterval: time.Minute,
		Currency:       "usd",
	}
}
