// Package sse implements server-sent event streaming for chat turns.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Writer streams SSE events on an HTTP response. Headers are written
// lazily on the first event so pre-stream failures can still produce a
// plain JSON error response. Safe for concurrent use; the keepalive
// loop and the generation pipeline both write through it.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu      sync.Mutex
	started bool
}

// NewWriter creates an SSE writer, failing if the response writer
// cannot flush incrementally.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// Started reports whether the SSE headers have been sent. Once true,
// errors can only be delivered as stream events.
func (s *Writer) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Send writes one named event with a JSON payload and flushes it.
func (s *Writer) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.start()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write %s event: %w", event, err)
	}
	s.flusher.Flush()

	return nil
}

// KeepAlive writes an SSE comment line to hold the connection open
// through long provider silences.
func (s *Writer) KeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}
	s.flusher.Flush()

	return nil
}

// start sends the SSE headers. Caller holds the lock.
func (s *Writer) start() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}
