package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the build or run lifecycle.
type Event struct {
	// Time is when the event occurred (set by the bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Benchmark is the dotted benchmark identifier this event relates to
	// (empty for tool-level events)
	Benchmark string `json:"benchmark,omitempty"`

	// Build is the build ID (empty if not build-related)
	Build string `json:"build,omitempty"`

	// Run is the run ID (empty if not run-related)
	Run string `json:"run,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains the error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Build lifecycle events
const (
	BuildStarted   EventType = "build.started"
	BuildStaged    EventType = "build.staged"
	BuildCached    EventType = "build.cached" // image already built for this fingerprint
	BuildCompleted EventType = "build.completed"
	BuildFailed    EventType = "build.failed"
)

// Dataset events
const (
	DatasetFetchStarted EventType = "dataset.fetch.started"
	DatasetFetched      EventType = "dataset.fetched"
	DatasetCached       EventType = "dataset.cached"
	DatasetFailed       EventType = "dataset.failed"
)

// Run lifecycle events
const (
	RunStarted EventType = "run.started"
	RunReady   EventType = "run.ready" // benchmark server accepting requests
	RunExited  EventType = "run.exited"
	RunStopped EventType = "run.stopped"
	RunFailed  EventType = "run.failed"
)

// Benchmark server events
const (
	ServerStarted  EventType = "server.started"
	ServerStopped  EventType = "server.stopped"
	EvaluationDone EventType = "evaluation.done"
)

// NewEvent creates an event with the given type and benchmark identifier
func NewEvent(eventType EventType, benchmark string) Event {
	return Event{
		Type:      eventType,
		Benchmark: benchmark,
	}
}

// WithBuild returns a copy of the event with the build ID set
func (e Event) WithBuild(id string) Event {
	e.Build = id
	return e
}

// WithRun returns a copy of the event with the run ID set
func (e Event) WithRun(id string) Event {
	e.Run = id
	return e
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed")
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Benchmark != "" {
		parts = append(parts, e.Benchmark)
	}
	if e.Build != "" {
		parts = append(parts, "build="+e.Build)
	}
	if e.Run != "" {
		parts = append(parts, "run="+e.Run)
	}
	if e.Error != "" {
		parts = append(parts, "error="+e.Error)
	}

	return strings.Join(parts, " ")
}
