package ingestion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aggregator-io/aggregator/internal/ingestion"
)

func validEvent() *ingestion.Event {
	return &ingestion.Event{
		Topic:     "orders",
		ID:        "a1",
		Timestamp: "2026-01-01T00:00:00Z",
		Source:    "svc",
		Payload:   map[string]interface{}{"amount": 42.0},
	}
}

func TestValidator_AcceptsCompleteEvent(t *testing.T) {
	v := ingestion.NewValidator()
	assert.NoError(t, v.ValidateEvent(validEvent()))
}

func TestValidator_AcceptsEmptyPayload(t *testing.T) {
	v := ingestion.NewValidator()

	event := validEvent()
	event.Payload = map[string]interface{}{}

	assert.NoError(t, v.ValidateEvent(event))
}

func TestValidator_RejectsNilEvent(t *testing.T) {
	v := ingestion.NewValidator()
	assert.ErrorIs(t, v.ValidateEvent(nil), ingestion.ErrNilEvent)
}

func TestValidator_RejectsMissingTopic(t *testing.T) {
	v := ingestion.NewValidator()

	event := validEvent()
	event.Topic = ""

	assert.ErrorIs(t, v.ValidateEvent(event), ingestion.ErrMissingTopic)
}

func TestValidator_RejectsMissingEventID(t *testing.T) {
	v := ingestion.NewValidator()

	event := validEvent()
	event.ID = ""

	assert.ErrorIs(t, v.ValidateEvent(event), ingestion.ErrMissingEventID)
}

func TestValidator_RejectsMissingTimestamp(t *testing.T) {
	v := ingestion.NewValidator()

	event := validEvent()
	event.Timestamp = ""

	assert.ErrorIs(t, v.ValidateEvent(event), ingestion.ErrMissingTimestamp)
}

func TestValidator_RejectsMissingSource(t *testing.T) {
	v := ingestion.NewValidator()

	event := validEvent()
	event.Source = ""

	assert.ErrorIs(t, v.ValidateEvent(event), ingestion.ErrMissingSource)
}
