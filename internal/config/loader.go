package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = "berth.yaml"
	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "BERTH"
)

// Loader handles loading and parsing of berth configuration
type Loader struct {
	workDir string
	viper   *viper.Viper
}

// NewLoader creates a new configuration loader for the given working directory
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
}

// Load reads and parses the berth.yaml configuration file. Environment
// variables with the BERTH_ prefix override file values (BERTH_TIMEOUT,
// BERTH_IMAGE_POLICY, ...).
func (l *Loader) Load() (*Config, error) {
	configPath := l.ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")
	l.applyDefaults()

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.unmarshal()
}

// LoadOrDefault behaves like Load but returns defaults (still honoring
// environment overrides) when no config file exists.
func (l *Loader) LoadOrDefault() (*Config, error) {
	cfg, err := l.Load()
	if err != nil {
		if IsConfigNotFound(err) {
			l.applyDefaults()
			return l.unmarshal()
		}
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyDefaults() {
	defaults := DefaultConfig()
	l.viper.SetDefault("image_policy", defaults.ImagePolicy)
	l.viper.SetDefault("timeout", defaults.Timeout)
	l.viper.SetDefault("poll_interval", defaults.PollInterval)
	l.viper.SetDefault("max_transient_errors", defaults.MaxTransientErrors)
	l.viper.SetDefault("start_tries", defaults.StartTries)

	l.viper.SetEnvPrefix(EnvPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// ConfigNotFoundError is returned when the config file doesn't exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}
