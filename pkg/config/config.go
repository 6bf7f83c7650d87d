// Package config provides configuration loading and validation for dsmaint.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidBackend     = errors.New("unknown store backend")
	ErrMissingStorePath   = errors.New("store path is required for persistent backends")
	ErrInvalidTitleLength = errors.New("title max length must be positive")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrEmptyIndexPath     = errors.New("index paths must not be empty")
)

// EnvPrefix is the prefix of environment overrides, e.g. DSMAINT_STORE_BACKEND.
const EnvPrefix = "DSMAINT"

const configName = ".dsmaint"

var logLevels = []string{"debug", "info", "warn", "error"}

// Config holds all configuration for dsmaint.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Index     IndexConfig     `mapstructure:"index"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	// Fixture seeds the store from a record file before use.
	Fixture string `mapstructure:"fixture"`
}

// JobsConfig holds validation job settings.
type JobsConfig struct {
	TitleMaxLength int  `mapstructure:"title_max_length"`
	FailOnInvalid  bool `mapstructure:"fail_on_invalid"`
}

// IndexConfig holds the default index file locations.
type IndexConfig struct {
	BasePath      string `mapstructure:"base_path"`
	CandidatePath string `mapstructure:"candidate_path"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsFile  string `mapstructure:"metrics_file"`
	Environment  string `mapstructure:"environment"`
}

// LoadConfig loads configuration from file and environment variables. With
// an empty path, .dsmaint.yaml is searched in the working directory,
// ./config and /etc/dsmaint; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/dsmaint")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("store.backend", DefaultStoreBackend)
	viperCfg.SetDefault("store.path", DefaultStorePath)
	viperCfg.SetDefault("store.fixture", DefaultStoreFixture)

	viperCfg.SetDefault("jobs.title_max_length", DefaultTitleMaxLength)
	viperCfg.SetDefault("jobs.fail_on_invalid", DefaultFailOnInvalid)

	viperCfg.SetDefault("index.base_path", DefaultIndexBasePath)
	viperCfg.SetDefault("index.candidate_path", DefaultIndexCandidatePath)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_file", DefaultMetricsFile)
	viperCfg.SetDefault("telemetry.environment", DefaultEnvironment)
}

// Validate checks the configuration. Commands call it again after applying
// flag overrides.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendPebble, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: %s", ErrMissingStorePath, c.Store.Backend)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Store.Backend)
	}

	if c.Jobs.TitleMaxLength <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTitleLength, c.Jobs.TitleMaxLength)
	}

	if c.Index.BasePath == "" || c.Index.CandidatePath == "" {
		return ErrEmptyIndexPath
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}
