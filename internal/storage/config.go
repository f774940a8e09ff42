// Package storage provides the embedded SQLite-backed dedup store for the
// aggregator.
package storage

import (
	"github.com/aggregator-io/aggregator/internal/config"
)

// DefaultDatabaseFile is used when DATABASE_FILE is unset.
const DefaultDatabaseFile = "aggregator.db"

// ResolvePath returns the SQLite file path to use, reading the
// DATABASE_FILE environment variable fresh on every call rather than
// caching it once at startup. This is what lets independent test processes
// (and independent Application Contexts within one test binary) point at
// distinct database files simply by setting the environment variable
// before constructing their store.
func ResolvePath() string {
	return config.GetEnvStr("DATABASE_FILE", DefaultDatabaseFile)
}
