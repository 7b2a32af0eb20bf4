package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/projecto/internal/motion"
	"github.com/ayusman/projecto/internal/store"
)

// PosesHandler serves the pose and joint-limit tables for the operator UI.
type PosesHandler struct {
	store *store.Store
}

// NewPosesHandler creates a PosesHandler backed by the given store.
func NewPosesHandler(s *store.Store) *PosesHandler {
	return &PosesHandler{store: s}
}

type poseResponse struct {
	Name      string      `json:"name"`
	Positions motion.Pose `json:"positions"`
}

type limitResponse struct {
	Joint       string `json:"joint"`
	PositionMin int    `json:"position_min"`
	PositionMax int    `json:"position_max"`
	TorqueMax   int    `json:"torque_max"`
}

// ServeHTTP handles GET /api/poses.
func (h *PosesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	table, err := h.store.Poses().LoadTable()
	if errors.Is(err, store.ErrNotFound) {
		table = motion.NewTable(nil)
	} else if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load poses"})
		return
	}

	poses := make([]poseResponse, 0)
	for _, name := range table.Names() {
		pose, err := table.Lookup(name)
		if err != nil {
			continue
		}
		poses = append(poses, poseResponse{Name: name, Positions: pose})
	}

	limits := make([]limitResponse, 0)
	if stored, err := h.store.Poses().LoadLimits(); err == nil {
		for _, joint := range motion.Joints {
			lim, ok := stored[joint]
			if !ok {
				continue
			}
			limits = append(limits, limitResponse{
				Joint:       joint,
				PositionMin: lim.PositionMin,
				PositionMax: lim.PositionMax,
				TorqueMax:   lim.TorqueMax,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"poses":  poses,
		"limits": limits,
		"count":  len(poses),
	})
}
