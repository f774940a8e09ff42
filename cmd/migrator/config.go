package main

import (
	"fmt"

	"github.com/aggregator-io/aggregator/internal/config"
	"github.com/aggregator-io/aggregator/internal/storage"
)

// Config holds the migrator's configuration: the database path and the
// name of the version-tracking table, both read from the environment with
// defaults.
type Config struct {
	// DatabasePath is the SQLite file to migrate.
	DatabasePath string

	// MigrationTable is the name of golang-migrate's version-tracking table.
	MigrationTable string
}

const defaultMigrationTable = "schema_migrations"

// LoadConfig loads configuration from the environment, resolving the
// database path with the same DATABASE_FILE precedence as the aggregator
// itself.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabasePath:   storage.ResolvePath(),
		MigrationTable: config.GetEnvStr("MIGRATION_TABLE", defaultMigrationTable),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("DATABASE_FILE resolved to an empty path")
	}

	return cfg, nil
}

// String returns a log-safe representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DatabasePath: %s, MigrationTable: %s}", c.DatabasePath, c.MigrationTable)
}
