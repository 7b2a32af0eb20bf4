// Package api provides the operator HTTP handlers for the exhibit daemon.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/projecto/internal/safety"
	"github.com/ayusman/projecto/internal/stage"
)

// StageHandler exposes the stage controller: current state, menu
// selection, subsystem exit, and the operator stop button.
type StageHandler struct {
	stage      *stage.Controller
	supervisor *safety.Supervisor
}

// NewStageHandler creates a StageHandler. supervisor may be nil; then the
// stop endpoint only forces the stage to rest.
func NewStageHandler(c *stage.Controller, s *safety.Supervisor) *StageHandler {
	return &StageHandler{stage: c, supervisor: s}
}

// ServeHTTP routes stage requests.
// Expected paths: /api/stage, /api/stage/select, /api/stage/exit, /api/stage/stop
func (h *StageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/stage")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.stage.State())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "select":
		h.selectSubsystem(w, r)
	case "exit":
		h.stage.HandleMenuExit()
		writeJSON(w, http.StatusOK, h.stage.State())
	case "stop":
		// Operator stop: emergency sequence first, then the forced
		// stage transition.
		if h.supervisor != nil {
			h.supervisor.EmergencyStop()
		}
		h.stage.HandleFault()
		writeJSON(w, http.StatusOK, h.stage.State())
	default:
		http.NotFound(w, r)
	}
}

type selectRequest struct {
	Subsystem string `json:"subsystem"`
}

func (h *StageHandler) selectSubsystem(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sub := stage.Subsystem(req.Subsystem)
	if !stage.KnownSubsystem(sub) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown subsystem"})
		return
	}

	h.stage.HandleMenuSelect(sub)
	writeJSON(w, http.StatusOK, h.stage.State())
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
