// Package ingestion provides the domain model and processing pipeline for
// topic-keyed events flowing into the aggregator.
package ingestion

import (
	"errors"
)

// Event is the domain representation of a single ingested event.
//
// This is a pure domain model without JSON tags. The API layer decodes the
// wire payload into its own request type and maps it into an Event, keeping
// the API contract decoupled from the domain shape.
type Event struct {
	// Topic groups events for storage and querying (e.g. "orders", "payments").
	Topic string

	// ID identifies this event within Topic. The pair (Topic, ID) is the
	// event's identity: committing the same pair twice is a duplicate, never
	// an update.
	ID string

	// Timestamp is the caller-supplied event time, carried through verbatim.
	// Not used for ordering or deduplication.
	Timestamp string

	// Source identifies the producer that emitted this event.
	Source string

	// Payload is the caller-supplied body, stored and returned verbatim.
	Payload map[string]interface{}
}

// Sentinel errors for validation failures.
var (
	ErrNilEvent         = errors.New("event cannot be nil")
	ErrMissingTopic     = errors.New("topic is required")
	ErrMissingEventID   = errors.New("event_id is required")
	ErrMissingTimestamp = errors.New("timestamp is required")
	ErrMissingSource    = errors.New("source is required")
)

// Key returns the (Topic, ID) identity pair used for deduplication.
func (e *Event) Key() (topic, id string) {
	return e.Topic, e.ID
}
