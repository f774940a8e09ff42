// Package api provides the HTTP intake for the aggregator service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aggregator-io/aggregator/internal/api/middleware"
	"github.com/aggregator-io/aggregator/internal/ingestion"
)

const (
	healthCheckTimeout = 2 * time.Second

	emptyEventListMessage = "Event list tidak boleh kosong"
)

// setupRoutes registers every HTTP route served by this instance.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /publish", s.handlePublish)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.HandleFunc("/", s.handleNotFound)
}

// handlePublish ingests a JSON array of events.
//
// Validation:
//   - empty array -> 400, body message "Event list tidak boleh kosong"
//   - invalid JSON -> 400
//   - any element missing a required field -> 422
//
// On success, every event in the batch has been accepted onto the queue
// (blocking if the queue is full) and is counted against received.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	if r.ContentLength > 0 && r.ContentLength > s.config.MaxRequestSize {
		WriteErrorResponse(w, r, s.logger, PayloadTooLarge(
			fmt.Sprintf("Request body exceeds maximum size of %d bytes", s.config.MaxRequestSize),
		))

		return
	}

	var requests []EventRequest

	decoder := json.NewDecoder(io.LimitReader(r.Body, s.config.MaxRequestSize))
	if err := decoder.Decode(&requests); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("Invalid JSON: "+err.Error()))

		return
	}

	if len(requests) == 0 {
		WriteErrorResponse(w, r, s.logger, BadRequest(emptyEventListMessage))

		return
	}

	events := make([]*ingestion.Event, len(requests))

	for i := range requests {
		event := &ingestion.Event{
			Topic:     requests[i].Topic,
			ID:        requests[i].EventID,
			Timestamp: requests[i].Timestamp,
			Source:    requests[i].Source,
			Payload:   requests[i].Payload,
		}

		if err := s.validator.ValidateEvent(event); err != nil {
			WriteErrorResponse(w, r, s.logger,
				UnprocessableEntity(fmt.Sprintf("event %d: %s", i, err.Error())))

			return
		}

		events[i] = event
	}

	for _, event := range events {
		if err := s.queue.Enqueue(r.Context(), event); err != nil {
			s.logger.Error("Failed to enqueue event",
				slog.String("correlation_id", correlationID),
				slog.String("topic", event.Topic),
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
			WriteErrorResponse(w, r, s.logger, InternalServerError("Failed to enqueue event"))

			return
		}

		s.stats.RecordReceived()
	}

	s.writeJSON(w, r, http.StatusOK, PublishResponse{
		Status: "events queued",
		Count:  len(events),
	})
}

// handleEvents returns every processed event for a topic.
// GET /events?topic=T
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		WriteErrorResponse(w, r, s.logger, BadRequest("topic query parameter is required"))

		return
	}

	records, err := s.store.ListByTopic(r.Context(), topic)
	if err != nil {
		s.logger.Error("Failed to list events by topic",
			slog.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, r, s.logger, InternalServerError("Failed to list events"))

		return
	}

	events := make([]EventRecord, len(records))
	for i, rec := range records {
		events[i] = EventRecord{
			EventID:   rec.ID,
			Timestamp: rec.Timestamp,
			Source:    rec.Source,
			Payload:   rec.Payload,
		}
	}

	s.writeJSON(w, r, http.StatusOK, EventsResponse{Topic: topic, Events: events})
}

// handleStats returns the in-process stats snapshot. This never touches the
// dedup table: every field comes from the Stats Model.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.stats.Snapshot()

	s.writeJSON(w, r, http.StatusOK, StatsResponse{
		Received:         snapshot.Received,
		UniqueProcessed:  snapshot.UniqueProcessed,
		DuplicateDropped: snapshot.DuplicateDropped,
		Topics:           snapshot.Topics,
		Uptime:           fmt.Sprintf("%ds", int64(snapshot.Uptime.Seconds())),
	})
}

// handleHealth is the liveness probe. It never touches the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady is the readiness probe: it runs a store health check,
// distinct from liveness, so Kubernetes can stop routing traffic to an
// instance whose SQLite file has become unreachable without restarting it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Error("Readiness check failed",
			slog.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, r, s.logger, ServiceUnavailable("store is not ready"))

		return
	}

	s.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ready"})
}

// handleNotFound returns RFC 7807 compliant 404 responses for unknown endpoints.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, s.logger, NotFound("The requested resource was not found"))
}

// writeJSON marshals v and writes it with the given status code, falling
// back to an RFC 7807 error response if marshaling fails.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal response",
			slog.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			slog.String("error", err.Error()),
		)
		WriteErrorResponse(w, r, s.logger, InternalServerError("Failed to encode response"))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write response",
			slog.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
}
