package ingestion_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aggregator-io/aggregator/internal/ingestion"
)

func TestQueue_EnqueueDequeueRoundTrip(t *testing.T) {
	q := ingestion.NewQueue(1)
	event := &ingestion.Event{Topic: "orders", ID: "a1"}

	require.NoError(t, q.Enqueue(context.Background(), event))

	got, ok := q.Dequeue(context.Background())
	require.True(t, ok)
	assert.Same(t, event, got)
}

func TestQueue_EnqueueBlocksWhenFull(t *testing.T) {
	q := ingestion.NewQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Enqueue(ctx, &ingestion.Event{Topic: "orders", ID: "a2"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_EnqueueAfterCloseFails(t *testing.T) {
	q := ingestion.NewQueue(1)
	q.Close()

	err := q.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"})
	assert.ErrorIs(t, err, ingestion.ErrQueueClosed)
}

func TestQueue_DequeueDrainsBufferedEventsAfterClose(t *testing.T) {
	q := ingestion.NewQueue(2)
	require.NoError(t, q.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"}))
	require.NoError(t, q.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a2"}))

	q.Close()

	_, ok := q.Dequeue(context.Background())
	assert.True(t, ok)

	_, ok = q.Dequeue(context.Background())
	assert.True(t, ok)

	_, ok = q.Dequeue(context.Background())
	assert.False(t, ok)
}

func TestQueue_DequeueUnblocksOnContextCancel(t *testing.T) {
	q := ingestion.NewQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.Dequeue(ctx)
	assert.False(t, ok)
}

func TestQueue_LenReflectsBufferedCount(t *testing.T) {
	q := ingestion.NewQueue(4)
	assert.Equal(t, 0, q.Len())

	require.NoError(t, q.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: "a1"}))
	assert.Equal(t, 1, q.Len())
}

func TestQueue_ConcurrentProducersDoNotDeadlock(t *testing.T) {
	q := ingestion.NewQueue(4)

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()
			_ = q.Enqueue(context.Background(), &ingestion.Event{Topic: "orders", ID: string(rune('a' + n))})
		}(i)
	}

	drained := 0

	for drained < 8 {
		if _, ok := q.Dequeue(context.Background()); ok {
			drained++
		}
	}

	wg.Wait()
	assert.Equal(t, 8, drained)
}

func TestQueue_NewQueueNonPositiveCapacityFallsBackToDefault(t *testing.T) {
	q := ingestion.NewQueue(0)
	require.NotNil(t, q)
	assert.Equal(t, 0, q.Len())

	// A zero-capacity channel would block this send until the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, q.Enqueue(ctx, &ingestion.Event{Topic: "orders", ID: "a1"}))
	assert.Equal(t, 1, q.Len())
}
