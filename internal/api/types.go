// Package api provides the HTTP intake for the aggregator service.
package api

// EventRequest is the wire shape of one element of a POST /publish body.
// Kept separate from ingestion.Event so the API contract can evolve
// independently of the domain model.
type EventRequest struct {
	Topic     string                 `json:"topic"`
	EventID   string                 `json:"event_id"`   //nolint:tagliatelle
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

// PublishResponse is returned by a successful POST /publish.
type PublishResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// EventRecord is the wire shape of one element of a GET /events response.
type EventRecord struct {
	EventID   string                 `json:"event_id"`  //nolint:tagliatelle
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

// EventsResponse is returned by GET /events.
type EventsResponse struct {
	Topic  string        `json:"topic"`
	Events []EventRecord `json:"events"`
}

// StatsResponse is returned by GET /stats. Field order and names mirror
// the aggregator's stats contract exactly: received, unique_processed,
// duplicate_dropped, topics, uptime.
type StatsResponse struct {
	Received         int64    `json:"received"`
	UniqueProcessed  int      `json:"unique_processed"`  //nolint:tagliatelle
	DuplicateDropped int64    `json:"duplicate_dropped"` //nolint:tagliatelle
	Topics           []string `json:"topics"`
	Uptime           string   `json:"uptime"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
