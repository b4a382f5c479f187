package store

import (
	"github.com/automlab/benchtainer/internal/events"
)

// EventHandler returns a bus handler that appends build and run events
// to the persistent event log, keyed by the build or run ID. Events
// without an owner (tool-level or server events) are not recorded.
func (s *Store) EventHandler() events.Handler {
	return func(e events.Event) {
		owner := e.Build
		if owner == "" {
			owner = e.Run
		}
		if owner == "" {
			return
		}
		payload := e.Payload
		if e.Error != "" {
			payload = map[string]any{"error": e.Error}
		}
		// Best effort; the caller's pipeline does not stop on log errors.
		_ = s.AppendEvent(owner, string(e.Type), payload)
	}
}
