package sessions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shreyasd806-spec/myAI3/models"
)

// AgentError represents errors that can occur during agent operations.
// Fatal errors mean the stream itself is broken and nothing more can be
// written to the client.
type AgentError struct {
	Message string
	Fatal   bool
}

func (e *AgentError) Error() string {
	return e.Message
}

// EventWriter is where a chat session writes its stream.
type EventWriter interface {
	WriteEvent(event models.StreamEvent) error
	WriteDone() error
}

// SSEWriter writes events as "data: <json>" server-sent events and ends the
// stream with the "[DONE]" sentinel. Headers go out with the first event, so
// a caller can still answer with a plain error before that.
type SSEWriter struct {
	W       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	flusher, _ := w.(http.Flusher)
	return &SSEWriter{W: w, flusher: flusher}
}

// Started reports whether anything has been written.
func (s *SSEWriter) Started() bool {
	return s.started
}

func (s *SSEWriter) WriteEvent(event models.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stream event: %w", err)
	}
	return s.WriteSSE(string(data))
}

func (s *SSEWriter) WriteDone() error {
	return s.WriteSSE("[DONE]")
}

// WriteSSE writes one data line and flushes it.
func (s *SSEWriter) WriteSSE(data string) error {
	if !s.started {
		h := s.W.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("x-vercel-ai-ui-message-stream", "v1")
		h.Set("X-Accel-Buffering", "no")
		s.started = true
	}
	if _, err := fmt.Fprintf(s.W, "data: %s\n\n", data); err != nil {
		return err
	}
	s.Flush()
	return nil
}

func (s *SSEWriter) Flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// DoneFrame ends one exchange on the WebSocket transport.
type DoneFrame struct {
	Type string `json:"type"`
}

// WebSocketWriter writes each event as a JSON frame. Writes are serialized
// since gorilla connections allow one concurrent writer.
type WebSocketWriter struct {
	Conn             *websocket.Conn
	Logger           zerolog.Logger
	StartTime        time.Time
	FirstTokenLogged bool
	mu               sync.Mutex
}

func (w *WebSocketWriter) WriteEvent(event models.StreamEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Track time to first token
	if !w.FirstTokenLogged && !w.StartTime.IsZero() &&
		(event.Type == models.EventTextDelta || event.Type == models.EventReasoningDelta) {
		w.Logger.Debug().Dur("ttft", time.Since(w.StartTime)).Msg("Time to first token")
		w.FirstTokenLogged = true
	}
	return w.Conn.WriteJSON(event)
}

func (w *WebSocketWriter) WriteDone() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(DoneFrame{Type: "done"})
}

// WriteError reports a failure that happened before the stream started.
func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]string{"error": message})
}
