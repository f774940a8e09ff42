// Package tuning loads optional pipeline tunables for the aggregator from a
// YAML file.
//
// Every field has a sensible built-in default, so the file itself is
// optional - it exists for operators who want to change queue capacity or
// retry behavior without touching environment variables.
//
// Example configuration (.aggregator.yaml):
//
//	queue_capacity: 20000
//	consumer_max_retries: 5
//	consumer_retry_backoff: 100ms
//	shutdown_drain_timeout: 10s
//	db_busy_timeout: 5s
package tuning

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aggregator-io/aggregator/internal/config"
)

// Config holds pipeline tunables loaded from .aggregator.yaml.
type Config struct {
	//nolint:tagliatelle // snake_case is intentional for YAML config files
	QueueCapacity int `yaml:"queue_capacity"`
	//nolint:tagliatelle
	ConsumerMaxRetries int `yaml:"consumer_max_retries"`
	//nolint:tagliatelle
	ConsumerRetryBackoff time.Duration `yaml:"consumer_retry_backoff"`
	//nolint:tagliatelle
	ShutdownDrainTimeout time.Duration `yaml:"shutdown_drain_timeout"`
	//nolint:tagliatelle
	DBBusyTimeout time.Duration `yaml:"db_busy_timeout"`
}

const (
	// DefaultConfigPath is the default location for the aggregator's tuning
	// file. Uses hidden file format following common tool conventions
	// (.eslintrc, .prettierrc, etc.).
	DefaultConfigPath = ".aggregator.yaml"

	// ConfigPathEnvVar is the environment variable name for a custom config path.
	ConfigPathEnvVar = "AGGREGATOR_CONFIG_PATH"

	defaultQueueCapacity        = 10000
	defaultConsumerMaxRetries   = 3
	defaultConsumerRetryBackoff = 50 * time.Millisecond
	defaultShutdownDrainTimeout = 10 * time.Second
	defaultDBBusyTimeout        = 5 * time.Second
)

// DefaultConfig returns a Config populated with the built-in tunable
// values, for callers that want the defaults without reading a file.
func DefaultConfig() *Config {
	return defaults()
}

// defaults returns a Config populated with the built-in tunable values.
func defaults() *Config {
	return &Config{
		QueueCapacity:        defaultQueueCapacity,
		ConsumerMaxRetries:   defaultConsumerMaxRetries,
		ConsumerRetryBackoff: defaultConsumerRetryBackoff,
		ShutdownDrainTimeout: defaultShutdownDrainTimeout,
		DBBusyTimeout:        defaultDBBusyTimeout,
	}
}

// LoadConfig loads tunables from a YAML file at path, falling back to
// defaults for any field the file doesn't set.
//
// Behavior:
//   - Returns defaults (not an error) if the file doesn't exist - the file
//     is optional.
//   - Returns defaults + logs a warning if the YAML is invalid (graceful
//     degradation).
//   - Returns defaults overlaid with whatever the file set, on success.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config source
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Tuning file not found, using defaults", slog.String("path", path))

			return cfg, nil
		}

		slog.Warn("Failed to read tuning file, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("Failed to parse tuning file, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return defaults(), nil
	}

	return cfg, nil
}

// LoadConfigFromEnv loads config from the path named by AGGREGATOR_CONFIG_PATH,
// falling back to ".aggregator.yaml" in the current directory if unset.
func LoadConfigFromEnv() (*Config, error) {
	path := config.GetEnvStr(ConfigPathEnvVar, DefaultConfigPath)

	return LoadConfig(path)
}
