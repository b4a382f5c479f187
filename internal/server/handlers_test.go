package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automlab/benchtainer/internal/bench"
	"github.com/automlab/benchtainer/internal/events"
)

func discard(events.Event) {}

func TestSpaceHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	SpaceHandler(bench.NewSVM())(rec, httptest.NewRequest(http.MethodGet, "/api/space", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var space bench.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &space))
	require.Len(t, space.Params, 2)
	assert.Equal(t, "C", space.Params[0].Name)
	assert.True(t, space.Params[0].Log)
}

func TestFidelityHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	FidelityHandler(bench.NewSVM())(rec, httptest.NewRequest(http.MethodGet, "/api/fidelity", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var space bench.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &space))
	require.Len(t, space.Params, 1)
	assert.Equal(t, "dataset_fraction", space.Params[0].Name)
}

func TestMetaHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	MetaHandler(bench.NewSVM())(rec, httptest.NewRequest(http.MethodGet, "/api/meta", nil))

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "ml.svm_benchmark", meta["id"])
	assert.Equal(t, true, meta["surrogate"])
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(bench.NewSVM())(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestObjectiveHandler(t *testing.T) {
	var emitted []events.Event
	handler := ObjectiveHandler(bench.NewSVM(), func(e events.Event) {
		emitted = append(emitted, e)
	}, false)

	body := `{"configuration": {"C": 8.0, "gamma": 0.0625}, "seed": 3}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/objective", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var result bench.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Greater(t, result.FunctionValue, 0.0)
	assert.Greater(t, result.Cost, 0.0)

	require.Len(t, emitted, 1)
	assert.Equal(t, events.EvaluationDone, emitted[0].Type)
	assert.Equal(t, "ml.svm_benchmark", emitted[0].Benchmark)
}

func TestObjectiveHandlerValidationError(t *testing.T) {
	handler := ObjectiveHandler(bench.NewSVM(), discard, false)

	body := `{"configuration": {"C": 8.0, "gamma": 4096.0}}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/objective", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gamma", resp.Parameter)
	assert.Contains(t, resp.Error, "outside")
}

func TestObjectiveHandlerRejectsBadRequests(t *testing.T) {
	handler := ObjectiveHandler(bench.NewSVM(), discard, false)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/objective", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/objective", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/objective", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "configuration required")
}

func TestObjectiveTestHandlerUsesTestSplit(t *testing.T) {
	handler := ObjectiveHandler(bench.NewSVM(), discard, true)

	body := `{"configuration": {"C": 8.0, "gamma": 0.0625}}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/objective_test", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var result bench.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result.Info, "test_error")
}
