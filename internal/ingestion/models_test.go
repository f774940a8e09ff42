package ingestion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aggregator-io/aggregator/internal/ingestion"
)

func TestEvent_KeyReturnsTopicAndID(t *testing.T) {
	event := &ingestion.Event{Topic: "orders", ID: "a1"}

	topic, id := event.Key()
	assert.Equal(t, "orders", topic)
	assert.Equal(t, "a1", id)
}

func TestEvent_KeyDistinguishesByTopicAndID(t *testing.T) {
	a := &ingestion.Event{Topic: "orders", ID: "a1"}
	b := &ingestion.Event{Topic: "payments", ID: "a1"}

	topicA, idA := a.Key()
	topicB, idB := b.Key()

	assert.Equal(t, idA, idB)
	assert.NotEqual(t, topicA, topicB)
}
