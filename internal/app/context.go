// Package app wires the aggregator's dependencies into a single lifecycle
// object, rather than constructing them as package-level singletons. This
// is what lets more than one instance run in the same process - each test
// gets its own Context, pointed at its own database file, instead of
// fighting over shared global state.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aggregator-io/aggregator/internal/api"
	"github.com/aggregator-io/aggregator/internal/ingestion"
	"github.com/aggregator-io/aggregator/internal/storage"
	"github.com/aggregator-io/aggregator/internal/stats"
	"github.com/aggregator-io/aggregator/internal/tuning"
)

// Context holds every dependency the aggregator needs to run: the store,
// the in-memory stats model, the ingestion queue and its consumer, and the
// HTTP server. Build one with New, then call Run (or StartConsumer/Shutdown
// directly in tests).
type Context struct {
	logger *slog.Logger

	tuning *tuning.Config
	conn   *storage.Connection
	store  ingestion.Store

	stats    *stats.Model
	queue    *ingestion.Queue
	consumer *ingestion.Consumer
	server   *api.Server

	consumerCtx    context.Context
	consumerCancel context.CancelFunc
	consumerOnce   sync.Once
}

// New constructs a Context: it opens the database connection, ensures the
// schema exists, rehydrates the Stats Model from durable state, and wires
// the queue, consumer, and HTTP server together. The consumer goroutine is
// not started until Run or StartConsumer is called.
//
// dbPath is the SQLite file to open; tuningConfig supplies the pipeline
// tunables (queue capacity, retry policy, drain timeout, busy timeout);
// serverConfig supplies the HTTP-layer settings. logger is shared by every
// dependency constructed here, so a single correlation of log lines covers
// the whole process.
func New(
	dbPath string,
	tuningConfig *tuning.Config,
	serverConfig *api.ServerConfig,
	logger *slog.Logger,
) (*Context, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if tuningConfig == nil {
		tuningConfig = tuning.DefaultConfig()
	}

	conn, err := storage.NewConnection(dbPath, tuningConfig.DBBusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("app: open connection: %w", err)
	}

	if err := ensureSchema(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("app: ensure schema: %w", err)
	}

	store := storage.NewSQLiteStore(conn, logger)

	statsModel := stats.New()

	rehydrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	uniqueProcessed, topics, err := store.Rehydrate(rehydrateCtx)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("app: rehydrate stats: %w", err)
	}

	statsModel.Rehydrate(uniqueProcessed, topics)

	queue := ingestion.NewQueue(tuningConfig.QueueCapacity)

	consumer := ingestion.NewConsumer(
		queue,
		store,
		statsModel,
		logger,
		tuningConfig.ConsumerMaxRetries,
		tuningConfig.ConsumerRetryBackoff,
	)

	server := api.NewServer(serverConfig, store, queue, statsModel, logger)

	consumerCtx, consumerCancel := context.WithCancel(context.Background())

	return &Context{
		logger:         logger,
		tuning:         tuningConfig,
		conn:           conn,
		store:          store,
		stats:          statsModel,
		queue:          queue,
		consumer:       consumer,
		server:         server,
		consumerCtx:    consumerCtx,
		consumerCancel: consumerCancel,
	}, nil
}

// ensureSchema creates the dedup_store and processed_events tables if they
// do not already exist. This is the same DDL the migrator applies via its
// 001_init migration; a fresh deployment that has never run the migrator
// still comes up with a working schema.
func ensureSchema(conn *storage.Connection) error {
	const schema = `
CREATE TABLE IF NOT EXISTS dedup_store (
    topic        TEXT      NOT NULL,
    event_id     TEXT      NOT NULL,
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

	return conn.Exec(schema)
}

// Stats exposes the Stats Model, mainly for tests that want to assert on
// counters without going through the HTTP layer.
func (c *Context) Stats() *stats.Model {
	return c.stats
}

// Store exposes the event store, mainly for tests.
func (c *Context) Store() ingestion.Store {
	return c.store
}

// Queue exposes the ingestion queue, mainly for tests that want to enqueue
// directly.
func (c *Context) Queue() *ingestion.Queue {
	return c.queue
}

// StartConsumer starts the Consumer's single goroutine. It must be called
// before the HTTP server starts accepting traffic, so every accepted event
// has somewhere to drain to. Only the first call starts a goroutine; later
// calls (including the one Run makes) do nothing, so there is never more
// than one consumer.
func (c *Context) StartConsumer() {
	c.consumerOnce.Do(func() {
		go c.consumer.Run(c.consumerCtx)
	})
}

// Run starts the consumer and then blocks serving HTTP until the process
// receives a shutdown signal, mirroring Server.Start's signal handling. It
// returns once shutdown has completed.
func (c *Context) Run() error {
	c.StartConsumer()

	if err := c.server.Start(); err != nil {
		return fmt.Errorf("app: server: %w", err)
	}

	return c.stopConsumerAndStore()
}

// Shutdown stops the HTTP server, drains the consumer, and closes the
// store, in that order. It is exported so tests can trigger an orderly
// shutdown without sending the process a signal.
func (c *Context) Shutdown() error {
	if err := c.server.Shutdown(); err != nil {
		return fmt.Errorf("app: shutdown server: %w", err)
	}

	return c.stopConsumerAndStore()
}

// stopConsumerAndStore signals the consumer to stop once the queue drains,
// waits up to the configured drain timeout, and closes the store
// regardless of whether the consumer finished in time.
func (c *Context) stopConsumerAndStore() error {
	c.queue.Close()

	select {
	case <-c.consumer.Done():
		c.logger.Info("consumer drained cleanly")
	case <-time.After(c.tuning.ShutdownDrainTimeout):
		c.logger.Warn("consumer did not drain within timeout",
			slog.Duration("timeout", c.tuning.ShutdownDrainTimeout),
		)
		c.consumerCancel()
	}

	if closer, ok := c.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("app: close store: %w", err)
		}
	}

	return nil
}
