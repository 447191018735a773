package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/jobscout/internal/scraping"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(resp ErrorResponse) {
	s.WriteEvent("error", resp) //nolint:errcheck
}

// WriteComplete sends the closing summary event
func (s *SSEWriter) WriteComplete(requestID string, res *scraping.Result) {
	s.WriteEvent("complete", map[string]any{ //nolint:errcheck
		"request_id":  requestID,
		"count":       len(res.Jobs),
		"failures":    res.Failures,
		"boards":      res.Boards,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

// handleSearchStream runs a query-string search and emits a "board" event as
// each board finishes, then "complete" or "error".
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		s.searchError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	id := requestID(r.Context())
	res, err := s.coordinator.SearchEach(ctx, params, func(o scraping.BoardOutcome) {
		sse.WriteEvent("board", o) //nolint:errcheck
	})
	if err != nil {
		resp := ErrorResponse{RequestID: id, Error: err.Error()}
		var se *scraping.SourceError
		if errors.As(err, &se) {
			resp.Kind = se.Kind.String()
			resp.Retryable = se.Kind.Retryable()
		}
		sse.WriteError(resp)
		return
	}
	sse.WriteComplete(id, res)
}
