package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/automlab/benchtainer/internal/bench"
	"github.com/automlab/benchtainer/internal/events"
)

// ObjectiveRequest is the body of POST /api/objective and
// /api/objective_test.
type ObjectiveRequest struct {
	Configuration bench.Configuration `json:"configuration"`
	Fidelity      bench.Configuration `json:"fidelity,omitempty"`
	Seed          *int64              `json:"seed,omitempty"`
	DataSeeds     []int               `json:"data_seeds,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`

	// Parameter names the offending parameter for validation failures.
	Parameter string `json:"parameter,omitempty"`
}

// SpaceHandler returns the configuration space as JSON.
// GET /api/space
func SpaceHandler(b bench.Benchmark) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.Space())
	}
}

// FidelityHandler returns the fidelity space as JSON.
// GET /api/fidelity
func FidelityHandler(b bench.Benchmark) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.FidelitySpace())
	}
}

// MetaHandler returns benchmark metadata as JSON.
// GET /api/meta
func MetaHandler(b bench.Benchmark) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta := b.Meta()
		meta["id"] = b.ID()
		writeJSON(w, http.StatusOK, meta)
	}
}

// HealthHandler reports liveness.
// GET /healthz
func HealthHandler(b bench.Benchmark) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"benchmark": b.ID(),
		})
	}
}

// ObjectiveHandler evaluates a configuration.
// POST /api/objective (test=false) and POST /api/objective_test (test=true).
func ObjectiveHandler(b bench.Benchmark, emit func(events.Event), test bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
			return
		}

		var req ObjectiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
		if req.Configuration == nil {
			writeError(w, http.StatusBadRequest, errors.New("configuration required"))
			return
		}

		opts := bench.Options{Seed: req.Seed, DataSeeds: req.DataSeeds}
		evaluate := b.Objective
		if test {
			evaluate = b.ObjectiveTest
		}

		result, err := evaluate(r.Context(), req.Configuration, req.Fidelity, opts)
		if err != nil {
			var verr *bench.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{
					Error:     verr.Error(),
					Parameter: verr.Parameter,
				})
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		emit(events.NewEvent(events.EvaluationDone, b.ID()).WithPayload(map[string]any{
			"function_value": result.FunctionValue,
			"cost":           result.Cost,
			"test":           test,
		}))
		writeJSON(w, http.StatusOK, result)
	}
}

// EventsHandler provides the SSE event stream.
// GET /api/events
func EventsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Send initial comment to establish connection
		fmt.Fprintf(w, ": connected\n\n")
		flusher.Flush()

		client := NewClient(generateID())
		hub.Register(client)
		defer hub.Unregister(client)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-client.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
				flusher.Flush()
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// generateID generates a random client ID.
func generateID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte("fallback"))
	}
	return hex.EncodeToString(bytes)
}
