package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automlab/benchtainer/internal/events"
)

func TestEventHandlerRecordsOwnedEvents(t *testing.T) {
	s := openTestStore(t)
	handler := s.EventHandler()

	buildID := NewID()
	handler(events.NewEvent(events.BuildStarted, "ml.svm_benchmark").WithBuild(buildID))
	handler(events.NewEvent(events.BuildFailed, "ml.svm_benchmark").
		WithBuild(buildID).
		WithError(errors.New("no runtime found")))

	// No build or run ID, so nothing to key the row on.
	handler(events.NewEvent(events.ServerStarted, "ml.svm_benchmark"))

	evts, err := s.ListEvents(buildID, 0)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, string(events.BuildStarted), evts[0].EventType)
	assert.Equal(t, string(events.BuildFailed), evts[1].EventType)
	assert.JSONEq(t, `{"error":"no runtime found"}`, string(evts[1].Payload))
}

func TestEventHandlerRecordsRunEvents(t *testing.T) {
	s := openTestStore(t)
	handler := s.EventHandler()

	runID := NewID()
	handler(events.NewEvent(events.RunStarted, "rl.cartpole").
		WithRun(runID).
		WithPayload(map[string]any{"port": 8080}))

	evts, err := s.ListEvents(runID, 0)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, string(events.RunStarted), evts[0].EventType)
}
