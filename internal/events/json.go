package events

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// JSONEvent is the wire format for serialized events (SSE payloads and
// the event log written when stdout is not a TTY).
type JSONEvent struct {
	// Type identifies the event (e.g., "build.started", "run.exited")
	Type string `json:"type"`

	// Timestamp is when the event occurred (RFC3339 format)
	Timestamp time.Time `json:"timestamp"`

	// Benchmark is the dotted benchmark identifier (omitted for tool events)
	Benchmark string `json:"benchmark,omitempty"`

	// Build is the build ID (omitted if not build-related)
	Build string `json:"build,omitempty"`

	// Run is the run ID (omitted if not run-related)
	Run string `json:"run,omitempty"`

	// Payload contains event-specific data
	Payload any `json:"payload,omitempty"`

	// Error contains the error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// ToJSONEvent converts an internal Event to the wire format.
func ToJSONEvent(e Event) JSONEvent {
	return JSONEvent{
		Type:      string(e.Type),
		Timestamp: e.Time,
		Benchmark: e.Benchmark,
		Build:     e.Build,
		Run:       e.Run,
		Payload:   e.Payload,
		Error:     e.Error,
	}
}

// IsJSONMode returns true if JSON event output should be enabled.
// Checks: (1) explicit forceJSON flag, (2) non-TTY stdout.
func IsJSONMode(forceJSON bool) bool {
	if forceJSON {
		return true
	}
	if os.Stdout != nil {
		return !term.IsTerminal(int(os.Stdout.Fd()))
	}
	return true
}

// JSONEmitter writes events as JSON lines to a writer.
// Thread-safe for concurrent Emit calls.
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONEmitter creates a new JSON emitter that writes to w.
// Each event is written as a single JSON line (newline-delimited).
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit converts the event to wire format and writes it as one line.
func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(ToJSONEvent(event))
}

// Handler returns a bus handler that emits every event as JSON,
// ignoring write errors (the event stream is best-effort).
func (e *JSONEmitter) Handler() Handler {
	return func(ev Event) {
		_ = e.Emit(ev)
	}
}
