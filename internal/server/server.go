// Package server exposes a running benchmark over HTTP/JSON. One server
// instance serves one benchmark; the launcher starts it inside the
// container as the recipe's run command.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/automlab/benchtainer/internal/bench"
	"github.com/automlab/benchtainer/internal/events"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address. ":0" picks an ephemeral port.
	Addr string

	// Bus receives server lifecycle and evaluation events. Optional.
	Bus *events.Bus
}

// Server serves one benchmark's objective API.
type Server struct {
	benchmark bench.Benchmark
	bus       *events.Bus
	hub       *Hub

	addr         string
	httpServer   *http.Server
	httpListener net.Listener
}

// New creates a server for the benchmark. Does not start listening -
// call Start() for that.
func New(benchmark bench.Benchmark, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	hub := NewHub()
	s := &Server{
		benchmark: benchmark,
		bus:       cfg.Bus,
		hub:       hub,
		addr:      cfg.Addr,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/space", SpaceHandler(benchmark))
	mux.HandleFunc("/api/fidelity", FidelityHandler(benchmark))
	mux.HandleFunc("/api/objective", ObjectiveHandler(benchmark, s.emit, false))
	mux.HandleFunc("/api/objective_test", ObjectiveHandler(benchmark, s.emit, true))
	mux.HandleFunc("/api/meta", MetaHandler(benchmark))
	mux.HandleFunc("/api/events", EventsHandler(hub))
	mux.HandleFunc("/healthz", HealthHandler(benchmark))

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	return s
}

// Start begins listening. Non-blocking - the server runs in a goroutine.
func (s *Server) Start() error {
	// Start SSE hub
	go s.hub.Run()

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("HTTP listen: %w", err)
	}
	s.httpListener = listener

	// Update addr with actual address (important for ephemeral ports)
	s.addr = listener.Addr().String()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			_ = err // server already started, nothing to report to
		}
	}()

	s.emit(events.NewEvent(events.ServerStarted, s.benchmark.ID()).WithPayload(map[string]any{
		"addr": s.addr,
	}))
	return nil
}

// Stop performs graceful shutdown, waiting for in-flight evaluations up
// to the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}

	s.emit(events.NewEvent(events.ServerStopped, s.benchmark.ID()))
	return nil
}

// Addr returns the actual listen address.
func (s *Server) Addr() string {
	return s.addr
}

// emit forwards an event to the bus and the SSE clients.
func (s *Server) emit(e events.Event) {
	if s.bus != nil {
		s.bus.Emit(e)
	}
	s.hub.Broadcast(e)
}
