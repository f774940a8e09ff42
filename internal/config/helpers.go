// Package config provides environment-driven configuration loading and
// shared test utilities for the aggregator.
package config

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// testSchema mirrors the aggregator's schema migration. Duplicated here
// rather than imported from internal/storage, which itself depends on this
// package for environment helpers - importing it back would cycle.
const testSchema = `
CREATE TABLE IF NOT EXISTS dedup_store (
    topic        TEXT    NOT NULL,
    event_id     TEXT    NOT NULL,
    processed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (topic, event_id)
);

CREATE TABLE IF NOT EXISTS processed_events (
    topic     TEXT NOT NULL,
    event_id  TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    source    TEXT NOT NULL,
    payload   TEXT NOT NULL,
    UNIQUE (topic, event_id)
);

CREATE INDEX IF NOT EXISTS idx_processed_events_topic ON processed_events (topic);
`

// TestDatabase encapsulates a disposable, file-backed SQLite database for
// integration tests.
type TestDatabase struct {
	Path       string
	Connection *sql.DB
}

// SetupTestDatabase creates a fresh SQLite file under t.TempDir() and
// applies the schema migration. The file (and the *sql.DB pointing at it)
// are cleaned up automatically when the test completes.
//
// Usage:
//
//	func TestMyFeature(t *testing.T) {
//		testDB := config.SetupTestDatabase(t)
//		// ... your test code, using testDB.Path or testDB.Connection
//	}
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	path := filepath.Join(t.TempDir(), "aggregator-test.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err, "failed to open test database")

	_, err = db.Exec(testSchema)
	require.NoError(t, err, "failed to apply test schema")

	t.Cleanup(func() {
		_ = db.Close()
	})

	return &TestDatabase{Path: path, Connection: db}
}
