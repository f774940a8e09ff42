package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	sqliteDriver = "sqlite3"
	ctxTimeout   = 5 * time.Second

	// writeConnMaxOpen caps the writable connection to 1: SQLite serializes
	// writers at the file level, so pooling more than one writable
	// *sql.DB connection just produces SQLITE_BUSY churn instead of real
	// concurrency. The single Consumer goroutine is the only writer anyway.
	writeConnMaxOpen = 1

	// readConnMaxOpen allows concurrent readers (ListByTopic, rehydrate)
	// against the same file without contending with the writer.
	readConnMaxOpen = 4
)

// Connection wraps the pair of *sql.DB handles used against one SQLite
// file: a single-connection writer and a small pool of readers.
type Connection struct {
	write *sql.DB
	read  *sql.DB
}

// NewConnection opens path twice - once for writes, once for reads - with
// pool sizes tuned for SQLite's single-writer model, and pings the write
// handle before returning (the read handle is not pinged).
func NewConnection(path string, busyTimeout time.Duration) (*Connection, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeout.Milliseconds())

	write, err := sql.Open(sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}

	write.SetMaxOpenConns(writeConnMaxOpen)

	read, err := sql.Open(sqliteDriver, dsn)
	if err != nil {
		_ = write.Close()

		return nil, fmt.Errorf("open read connection: %w", err)
	}

	read.SetMaxOpenConns(readConnMaxOpen)

	ctx, cancel := context.WithTimeout(context.Background(), ctxTimeout)
	defer cancel()

	if err := write.PingContext(ctx); err != nil {
		_ = write.Close()
		_ = read.Close()

		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	return &Connection{write: write, read: read}, nil
}

// HealthCheck pings the write connection, the one that must stay usable for
// the aggregator to keep accepting events.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(context.Background(), ctxTimeout)

		defer cancel()
	}

	return c.write.PingContext(ctx)
}

// Exec runs schema-definition statements (CREATE TABLE/INDEX) against the
// write connection. Used at startup to ensure the schema exists without
// requiring the migrator to have run first.
func (c *Connection) Exec(statements string) error {
	_, err := c.write.Exec(statements)
	return err
}

// Close closes both connection pools. Calling it again returns nil.
func (c *Connection) Close() error {
	writeErr := c.write.Close()
	readErr := c.read.Close()

	if writeErr != nil {
		return writeErr
	}

	return readErr
}
