// Package stats tracks the aggregator's running counters.
//
// Fields split into two categories with different reset semantics:
//   - ephemeral (received, duplicateDropped, startTime): always reset to
//     zero/now at process start, since they describe this process's activity.
//   - persistent-derived (uniqueProcessed, topics): rehydrated from the
//     dedup store at startup, since they describe durable state that
//     survives a restart.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Model is the aggregator's in-memory statistics snapshot. The zero value is
// not ready for use; call New.
type Model struct {
	received         atomic.Int64
	duplicateDropped atomic.Int64
	startTime        time.Time

	mu              sync.RWMutex
	uniqueProcessed int
	topics          map[string]struct{}
}

// New creates a Model with ephemeral counters zeroed and startTime set to
// now. Call Rehydrate afterward to restore the persistent-derived fields.
func New() *Model {
	return &Model{
		startTime: time.Now(),
		topics:    make(map[string]struct{}),
	}
}

// Rehydrate seeds the persistent-derived fields from durable storage. It is
// called once at startup, before the Consumer starts processing.
func (m *Model) Rehydrate(uniqueProcessed int, topics []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uniqueProcessed = uniqueProcessed

	for _, t := range topics {
		m.topics[t] = struct{}{}
	}
}

// RecordReceived increments the count of events handed to the ingestion
// queue. Called by the HTTP handler once Enqueue succeeds, not by the
// Consumer - a received event is one the aggregator has accepted
// responsibility for, whether or not it turns out to be a duplicate.
func (m *Model) RecordReceived() {
	m.received.Add(1)
}

// RecordDuplicate marks one event as seen-before and dropped. Called only by
// the Consumer goroutine.
func (m *Model) RecordDuplicate() {
	m.duplicateDropped.Add(1)
}

// RecordCommitted marks one event as newly and durably stored under topic.
// Called only by the Consumer goroutine.
func (m *Model) RecordCommitted(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uniqueProcessed++
	m.topics[topic] = struct{}{}
}

// Snapshot is a point-in-time, read-only copy of the Model suitable for
// serialization.
type Snapshot struct {
	Received         int64
	UniqueProcessed  int
	DuplicateDropped int64
	Topics           []string
	Uptime           time.Duration
}

// Snapshot returns a consistent read of all fields. It never touches the
// dedup store - stats are served entirely from memory.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := make([]string, 0, len(m.topics))
	for t := range m.topics {
		topics = append(topics, t)
	}

	return Snapshot{
		Received:         m.received.Load(),
		UniqueProcessed:  m.uniqueProcessed,
		DuplicateDropped: m.duplicateDropped.Load(),
		Topics:           topics,
		Uptime:           time.Since(m.startTime),
	}
}
