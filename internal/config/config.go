// Package config loads berth CLI configuration from berth.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/schmitthub/berth/pkg/berth"
)

// Config is the top-level berth configuration.
type Config struct {
	// ImagePolicy is the default image acquisition policy for services that
	// don't set one: pull-if-missing, always-pull, local-only or build.
	ImagePolicy string `mapstructure:"image_policy"`

	// Timeout is the overall startup deadline per attempt.
	Timeout time.Duration `mapstructure:"timeout"`

	// PollInterval is the delay between readiness evaluations.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// MaxTransientErrors is the consecutive transient-error budget before
	// startup is treated as persistently failed.
	MaxTransientErrors int `mapstructure:"max_transient_errors"`

	// StartTries is how many times a failed startup is retried end to end.
	StartTries int `mapstructure:"start_tries"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig controls file logging for the CLI.
type LoggingConfig struct {
	FileEnabled *bool `mapstructure:"file_enabled"`
	MaxSizeMB   int   `mapstructure:"max_size_mb"`
	MaxAgeDays  int   `mapstructure:"max_age_days"`
	MaxBackups  int   `mapstructure:"max_backups"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ImagePolicy:        berth.PullIfMissing.String(),
		Timeout:            berth.DefaultTimeout,
		PollInterval:       berth.DefaultPollInterval,
		MaxTransientErrors: berth.DefaultMaxTransientErrors,
		StartTries:         1,
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if _, err := berth.ParseImagePolicy(c.ImagePolicy); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative, got %s", c.PollInterval)
	}
	if c.MaxTransientErrors < 0 {
		return fmt.Errorf("max_transient_errors must not be negative, got %d", c.MaxTransientErrors)
	}
	if c.StartTries < 0 {
		return fmt.Errorf("start_tries must not be negative, got %d", c.StartTries)
	}
	return nil
}

// Apply fills the zero-valued lifecycle fields of a service definition from
// the configuration. Values the definition already sets win.
func (c *Config) Apply(def *berth.Definition) {
	if def.ImagePolicy == berth.PullIfMissing && c.ImagePolicy != "" {
		// Parse errors were caught by Validate; ignore here.
		if p, err := berth.ParseImagePolicy(c.ImagePolicy); err == nil {
			def.ImagePolicy = p
		}
	}
	if def.Timeout == 0 {
		def.Timeout = c.Timeout
	}
	if def.PollInterval == 0 {
		def.PollInterval = c.PollInterval
	}
	if def.MaxTransientErrors == 0 {
		def.MaxTransientErrors = c.MaxTransientErrors
	}
	if def.StartTries == 0 {
		def.StartTries = c.StartTries
	}
}
