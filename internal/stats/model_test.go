package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aggregator-io/aggregator/internal/stats"
)

func TestNewColdStart(t *testing.T) {
	m := stats.New()

	snap := m.Snapshot()
	require.Zero(t, snap.Received)
	require.Zero(t, snap.UniqueProcessed)
	require.Zero(t, snap.DuplicateDropped)
	require.Empty(t, snap.Topics)
}

func TestRehydrateRestoresPersistentFieldsOnly(t *testing.T) {
	m := stats.New()
	m.RecordReceived()

	m.Rehydrate(5, []string{"orders", "payments"})

	snap := m.Snapshot()
	assert.Equal(t, 5, snap.UniqueProcessed)
	assert.ElementsMatch(t, []string{"orders", "payments"}, snap.Topics)
	// Ephemeral fields are untouched by Rehydrate.
	assert.Equal(t, int64(1), snap.Received)
	assert.Zero(t, snap.DuplicateDropped)
}

func TestRecordCommittedAccumulatesTopics(t *testing.T) {
	m := stats.New()

	m.RecordCommitted("orders")
	m.RecordCommitted("orders")
	m.RecordCommitted("payments")

	snap := m.Snapshot()
	assert.Equal(t, 3, snap.UniqueProcessed)
	assert.ElementsMatch(t, []string{"orders", "payments"}, snap.Topics)
}

func TestRecordDuplicateDoesNotAffectUniqueProcessed(t *testing.T) {
	m := stats.New()

	m.RecordCommitted("orders")
	m.RecordDuplicate()

	snap := m.Snapshot()
	assert.Equal(t, 1, snap.UniqueProcessed)
	assert.Equal(t, int64(1), snap.DuplicateDropped)
}

func TestSnapshotUptimeAdvances(t *testing.T) {
	m := stats.New()

	time.Sleep(5 * time.Millisecond)

	assert.Greater(t, m.Snapshot().Uptime, time.Duration(0))
}
