package ingestion_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aggregator-io/aggregator/internal/ingestion"
	"github.com/aggregator-io/aggregator/internal/stats"
)

// fakeStore is an in-memory ingestion.Store double. commitFunc, when set,
// overrides the default first-write-wins behavior, letting tests force
// transient failures.
type fakeStore struct {
	mu         sync.Mutex
	committed  map[string]bool
	commitFunc func(event *ingestion.Event) (ingestion.Outcome, error)
	calls      int
}

var _ ingestion.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{committed: make(map[string]bool)}
}

func (f *fakeStore) Commit(_ context.Context, event *ingestion.Event) (ingestion.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if f.commitFunc != nil {
		return f.commitFunc(event)
	}

	key := event.Topic + "/" + event.ID
	if f.committed[key] {
		return ingestion.Duplicate, nil
	}

	f.committed[key] = true

	return ingestion.Committed, nil
}

func (f *fakeStore) ListByTopic(context.Context, string) ([]ingestion.ProcessedRecord, error) {
	return nil, nil
}

func (f *fakeStore) Rehydrate(context.Context) (int, []string, error) {
	return 0, nil, nil
}

func (f *fakeStore) HealthCheck(context.Context) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsumer_CommitsNewEvent(t *testing.T) {
	queue := ingestion.NewQueue(1)
	store := newFakeStore()
	statsModel := stats.New()

	consumer := ingestion.NewConsumer(queue, store, statsModel, testLogger(), 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)

	require.NoError(t, queue.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"}))

	require.Eventually(t, func() bool {
		return statsModel.Snapshot().UniqueProcessed == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-consumer.Done()
}

func TestConsumer_RecordsDuplicate(t *testing.T) {
	queue := ingestion.NewQueue(2)
	store := newFakeStore()
	statsModel := stats.New()

	consumer := ingestion.NewConsumer(queue, store, statsModel, testLogger(), 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)

	event := &ingestion.Event{Topic: "orders", ID: "a1"}
	require.NoError(t, queue.Enqueue(context.Background(), event))
	require.NoError(t, queue.Enqueue(context.Background(), event))

	require.Eventually(t, func() bool {
		snap := statsModel.Snapshot()
		return snap.UniqueProcessed == 1 && snap.DuplicateDropped == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-consumer.Done()
}

func TestConsumer_RetriesTransientFailureThenSucceeds(t *testing.T) {
	queue := ingestion.NewQueue(1)
	store := newFakeStore()
	statsModel := stats.New()

	attempts := 0
	store.commitFunc = func(event *ingestion.Event) (ingestion.Outcome, error) {
		attempts++
		if attempts < 2 {
			return ingestion.Committed, errors.New("transient failure")
		}

		return ingestion.Committed, nil
	}

	consumer := ingestion.NewConsumer(queue, store, statsModel, testLogger(), 3, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)

	require.NoError(t, queue.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"}))

	require.Eventually(t, func() bool {
		return statsModel.Snapshot().UniqueProcessed == 1
	}, time.Second, time.Millisecond)

	assert.GreaterOrEqual(t, attempts, 2)

	cancel()
	<-consumer.Done()
}

func TestConsumer_DropsEventAfterExhaustingRetries(t *testing.T) {
	queue := ingestion.NewQueue(1)
	store := newFakeStore()
	statsModel := stats.New()

	store.commitFunc = func(*ingestion.Event) (ingestion.Outcome, error) {
		return ingestion.Committed, errors.New("permanent failure")
	}

	consumer := ingestion.NewConsumer(queue, store, statsModel, testLogger(), 1, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)

	require.NoError(t, queue.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"}))

	queue.Close()
	<-consumer.Done()
	cancel()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 2, store.calls) // initial attempt + 1 retry
	assert.Equal(t, 0, statsModel.Snapshot().UniqueProcessed)
}

func TestConsumer_StopsWhenQueueClosedAndDrained(t *testing.T) {
	queue := ingestion.NewQueue(1)
	store := newFakeStore()
	statsModel := stats.New()

	consumer := ingestion.NewConsumer(queue, store, statsModel, testLogger(), 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.Run(ctx)

	queue.Close()

	select {
	case <-consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after queue closed and drained")
	}
}
