package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/aggregator-io/aggregator/internal/stats"
)

const (
	// DefaultMaxRetries bounds how many times a non-duplicate commit failure
	// is retried before the event is dropped.
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the fixed delay between retry attempts.
	DefaultRetryBackoff = 50 * time.Millisecond
)

// Consumer drains a Queue with a single goroutine, committing each event to
// Store and updating the Stats Model. A single consumer goroutine is what
// lets the dedup store rely on its own uniqueness constraint as the sole
// serialization point: only one writer ever calls Commit.
type Consumer struct {
	queue        *Queue
	store        Store
	stats        *stats.Model
	logger       *slog.Logger
	maxRetries   int
	retryBackoff time.Duration

	done chan struct{}
}

// NewConsumer creates a Consumer. maxRetries <= 0 falls back to
// DefaultMaxRetries; retryBackoff <= 0 falls back to DefaultRetryBackoff.
func NewConsumer(
	queue *Queue,
	store Store,
	statsModel *stats.Model,
	logger *slog.Logger,
	maxRetries int,
	retryBackoff time.Duration,
) *Consumer {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	if retryBackoff <= 0 {
		retryBackoff = DefaultRetryBackoff
	}

	return &Consumer{
		queue:        queue,
		store:        store,
		stats:        statsModel,
		logger:       logger,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		done:         make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled or the queue is closed and
// drained. It is meant to be run in its own goroutine and signals its own
// completion by closing the channel returned from Done.
func (c *Consumer) Run(ctx context.Context) {
	defer close(c.done)

	for {
		event, ok := c.queue.Dequeue(ctx)
		if !ok {
			return
		}

		c.process(ctx, event)
	}
}

// Done returns a channel that is closed once Run has returned.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// process commits a single event, retrying transient failures up to
// maxRetries, and reflects the outcome in the Stats Model.
func (c *Consumer) process(ctx context.Context, event *Event) {
	var (
		outcome Outcome
		err     error
	)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		outcome, err = c.store.Commit(ctx, event)
		if err == nil {
			break
		}

		if attempt < c.maxRetries {
			c.logger.Warn("commit failed, retrying",
				slog.String("topic", event.Topic),
				slog.String("event_id", event.ID),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)

			time.Sleep(c.retryBackoff)
		}
	}

	if err != nil {
		c.logger.Error("commit failed after retries, dropping event",
			slog.String("topic", event.Topic),
			slog.String("event_id", event.ID),
			slog.Int("max_retries", c.maxRetries),
			slog.String("error", err.Error()),
		)

		return
	}

	switch outcome {
	case Duplicate:
		c.stats.RecordDuplicate()
		c.logger.Info("duplicate event dropped",
			slog.String("topic", event.Topic),
			slog.String("event_id", event.ID),
		)
	case Committed:
		c.stats.RecordCommitted(event.Topic)
	}
}
