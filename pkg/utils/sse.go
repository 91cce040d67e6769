package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
)

// Stream event types.
const (
	EventStart   = "start"
	EventDelta   = "delta"
	EventMessage = "message"
	EventError   = "error"
	EventEnd     = "end"
)

// StreamEvent is one Server-Sent Event payload. Name tags the analysis card
// the event belongs to when several runs share a stream.
type StreamEvent struct {
	Event     string `json:"event"`
	Name      string `json:"name,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
}

// SendSSEChunk writes payload as a single data frame and flushes.
func SendSSEChunk(w http.ResponseWriter, flusher http.Flusher, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal sse payload", "error", err)
		return
	}

	if _, err := w.Write([]byte("data: ")); err != nil {
		slog.Debug("failed to write sse prefix", "error", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Debug("failed to write sse payload", "error", err)
		return
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		slog.Debug("failed to write sse terminator", "error", err)
		return
	}
	flusher.Flush()
}

// SetupSSEHeaders sets the Server-Sent Events response headers.
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// ErrStreamingUnsupported is returned when the writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// EventWriter serializes StreamEvents from several goroutines onto one response.
type EventWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEventWriter sets the SSE headers on w.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &EventWriter{w: w, flusher: flusher}, nil
}

// Send writes ev.
func (e *EventWriter) Send(ev StreamEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	SendSSEChunk(e.w, e.flusher, ev)
}
