package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/aggregator-io/aggregator/internal/ingestion"
)

// Sentinel errors for store-level failures that are not duplicate commits.
var (
	ErrCommitFailed    = errors.New("storage: commit failed")
	ErrListFailed      = errors.New("storage: list by topic failed")
	ErrRehydrateFailed = errors.New("storage: rehydrate failed")
)

// SQLiteStore is the embedded, file-backed implementation of
// ingestion.Store. It is the sole writer contract: Commit relies entirely
// on the dedup_store primary key to reject duplicates, never a
// select-then-insert pre-check.
type SQLiteStore struct {
	conn   *Connection
	logger *slog.Logger
}

var _ ingestion.Store = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an already-opened Connection.
func NewSQLiteStore(conn *Connection, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{conn: conn, logger: logger}
}

// Commit inserts event into dedup_store and processed_events in a single
// transaction. A primary-key conflict on dedup_store is the only signal
// treated as a duplicate; any other failure is reported as an error and
// left for the caller to retry.
func (s *SQLiteStore) Commit(ctx context.Context, event *ingestion.Event) (ingestion.Outcome, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return ingestion.Committed, fmt.Errorf("%w: marshal payload: %w", ErrCommitFailed, err)
	}

	tx, err := s.conn.write.BeginTx(ctx, nil)
	if err != nil {
		return ingestion.Committed, fmt.Errorf("%w: begin tx: %w", ErrCommitFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	processedAt := time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dedup_store (topic, event_id, processed_at) VALUES (?, ?, ?)`,
		event.Topic, event.ID, processedAt,
	)
	if err != nil {
		if isPrimaryKeyConflict(err) {
			s.logger.Debug("duplicate commit rejected by primary key",
				slog.String("topic", event.Topic),
				slog.String("event_id", event.ID),
			)

			return ingestion.Duplicate, nil
		}

		return ingestion.Committed, fmt.Errorf("%w: insert dedup_store: %w", ErrCommitFailed, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO processed_events (topic, event_id, timestamp, source, payload) VALUES (?, ?, ?, ?, ?)`,
		event.Topic, event.ID, event.Timestamp, event.Source, payload,
	)
	if err != nil {
		if isPrimaryKeyConflict(err) {
			// dedup_store and processed_events are kept in lockstep by this
			// method alone, so this should be unreachable; treat it as a
			// duplicate rather than surfacing an inconsistency to the caller.
			return ingestion.Duplicate, nil
		}

		return ingestion.Committed, fmt.Errorf("%w: insert processed_events: %w", ErrCommitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return ingestion.Committed, fmt.Errorf("%w: commit tx: %w", ErrCommitFailed, err)
	}

	return ingestion.Committed, nil
}

// ListByTopic returns every processed event for topic in the order they
// were committed.
func (s *SQLiteStore) ListByTopic(ctx context.Context, topic string) ([]ingestion.ProcessedRecord, error) {
	rows, err := s.conn.read.QueryContext(ctx,
		`SELECT event_id, timestamp, source, payload FROM processed_events WHERE topic = ? ORDER BY rowid ASC`,
		topic,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]ingestion.ProcessedRecord, 0)

	for rows.Next() {
		var (
			rec        ingestion.ProcessedRecord
			rawPayload []byte
		)

		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Source, &rawPayload); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", ErrListFailed, err)
		}

		if err := json.Unmarshal(rawPayload, &rec.Payload); err != nil {
			return nil, fmt.Errorf("%w: unmarshal payload: %w", ErrListFailed, err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}

	return records, nil
}

// Rehydrate restores the persistent-derived Stats Model fields from
// dedup_store: the count of distinct committed events and the set of
// topics with at least one.
func (s *SQLiteStore) Rehydrate(ctx context.Context) (int, []string, error) {
	var count int

	row := s.conn.read.QueryRowContext(ctx, `SELECT COUNT(*) FROM dedup_store`)
	if err := row.Scan(&count); err != nil {
		return 0, nil, fmt.Errorf("%w: count: %w", ErrRehydrateFailed, err)
	}

	rows, err := s.conn.read.QueryContext(ctx, `SELECT DISTINCT topic FROM dedup_store`)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: topics: %w", ErrRehydrateFailed, err)
	}
	defer func() { _ = rows.Close() }()

	topics := make([]string, 0)

	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return 0, nil, fmt.Errorf("%w: scan topic: %w", ErrRehydrateFailed, err)
		}

		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrRehydrateFailed, err)
	}

	return count, topics, nil
}

// HealthCheck runs a cheap integrity check distinct from a plain ping, used
// by the readiness probe (liveness never touches the store).
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if err := s.conn.HealthCheck(ctx); err != nil {
		return err
	}

	var result string

	row := s.conn.read.QueryRowContext(ctx, `PRAGMA quick_check`)
	if err := row.Scan(&result); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("quick_check reported: %s", result)
	}

	return nil
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// isPrimaryKeyConflict reports whether err is a SQLite primary-key or
// unique constraint violation - the sole signal this store treats as a
// duplicate commit.
func isPrimaryKeyConflict(err error) bool {
	var sqliteErr sqlite3.Error

	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique)
}
