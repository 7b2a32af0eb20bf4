// Package server provides the operator HTTP surface for the exhibit:
// health and robot state, stage inspection and control, the pose table,
// the event journal, a camera preview, and a WebSocket event feed.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/projecto/internal/capture"
	"github.com/ayusman/projecto/internal/safety"
	"github.com/ayusman/projecto/internal/server/api"
	"github.com/ayusman/projecto/internal/stage"
	"github.com/ayusman/projecto/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Camera     capture.Camera
	Stage      *stage.Controller
	Supervisor *safety.Supervisor
}

// Server represents the operator HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventsHandler
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		events: NewEventsHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// Events returns the WebSocket hub; subscribe it to the stage controller.
func (s *Server) Events() *EventsHandler {
	return s.events
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Stage != nil {
		stageHandler := api.NewStageHandler(s.config.Stage, s.config.Supervisor)
		s.mux.Handle("/api/stage", stageHandler)
		s.mux.Handle("/api/stage/", stageHandler)
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/poses", api.NewPosesHandler(s.config.Store))
		s.mux.Handle("/api/events", api.NewJournalHandler(s.config.Store))
	}

	// Camera preview for the operator, not the visitor-facing UI.
	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	s.mux.Handle("/api/ws", s.events)

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	if s.config.Supervisor != nil {
		h := s.config.Supervisor.Snapshot()
		response["robot"] = map[string]interface{}{
			"connected": h.Connected,
			"faulted":   h.Faulted,
			"last_ack":  h.LastAck.Format(time.RFC3339Nano),
			"positions": h.Positions,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
