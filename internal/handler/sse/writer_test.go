package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriter_SendFormatsEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Started() {
		t.Error("writer marked started before the first event")
	}

	if err := w.Send("text_delta", map[string]string{"text": "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !w.Started() {
		t.Error("writer not marked started after the first event")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	want := "event: text_delta\ndata: {\"text\":\"hi\"}\n\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

// A keepalive before the stream opens must not force headers out, or a
// later pre-stream error could no longer be a JSON response.
func TestWriter_KeepAliveBeforeStartIsSilent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := w.KeepAlive(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Started() || rec.Body.Len() != 0 {
		t.Errorf("keepalive wrote %q before the stream started", rec.Body.String())
	}

	if err := w.Send("message_start", map[string]string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.KeepAlive(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), ": keepalive\n\n") {
		t.Errorf("keepalive comment missing from %q", rec.Body.String())
	}
}
