package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/projecto/internal/classifier"
	"github.com/ayusman/projecto/internal/motion"
	"github.com/ayusman/projecto/internal/safety"
	"github.com/ayusman/projecto/internal/stage"
	"github.com/ayusman/projecto/internal/store"
)

type nullDispatcher struct{}

func (nullDispatcher) Dispatch(motion.Request) {}

func newTestStage(t *testing.T) *stage.Controller {
	t.Helper()
	logger := log.New(os.Stderr, "", 0)
	return stage.New(stage.DefaultConfig(), nullDispatcher{}, nil, logger)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStageHandler(t *testing.T) {
	t.Run("get current state", func(t *testing.T) {
		handler := NewStageHandler(newTestStage(t), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/stage", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var state stage.State
		if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if state.Kind != stage.Rest {
			t.Errorf("expected rest stage, got %q", state.Kind)
		}
	})

	t.Run("select requires primary stage", func(t *testing.T) {
		handler := NewStageHandler(newTestStage(t), nil)

		body, _ := json.Marshal(map[string]string{"subsystem": "games"})
		req := httptest.NewRequest(http.MethodPost, "/api/stage/select", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var state stage.State
		if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		// Selection from rest is ignored.
		if state.Kind != stage.Rest {
			t.Errorf("expected rest stage, got %q", state.Kind)
		}
	})

	t.Run("select enters subsystem", func(t *testing.T) {
		st := newTestStage(t)
		st.HandleGesture(&classifier.Event{Type: classifier.TypeOK, Confidence: 1.0})
		handler := NewStageHandler(st, nil)

		body, _ := json.Marshal(map[string]string{"subsystem": "games"})
		req := httptest.NewRequest(http.MethodPost, "/api/stage/select", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var state stage.State
		if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if state.Kind != stage.Complex || state.Subsystem != stage.SubsystemGames {
			t.Errorf("expected complex(games), got %s", state)
		}
	})

	t.Run("select rejects unknown subsystem", func(t *testing.T) {
		handler := NewStageHandler(newTestStage(t), nil)

		body, _ := json.Marshal(map[string]string{"subsystem": "teleport"})
		req := httptest.NewRequest(http.MethodPost, "/api/stage/select", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("select rejects invalid json", func(t *testing.T) {
		handler := NewStageHandler(newTestStage(t), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/stage/select", bytes.NewReader([]byte("{bad")))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("exit returns to primary", func(t *testing.T) {
		st := newTestStage(t)
		st.HandleGesture(&classifier.Event{Type: classifier.TypeOK, Confidence: 1.0})
		st.HandleMenuSelect(stage.SubsystemGames)
		handler := NewStageHandler(st, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/stage/exit", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := st.State().Kind; got != stage.Primary {
			t.Errorf("expected primary after exit, got %q", got)
		}
	})

	t.Run("stop forces rest", func(t *testing.T) {
		st := newTestStage(t)
		st.HandleGesture(&classifier.Event{Type: classifier.TypeOK, Confidence: 1.0})
		handler := NewStageHandler(st, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/stage/stop", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := st.State().Kind; got != stage.Rest {
			t.Errorf("expected rest after stop, got %q", got)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := NewStageHandler(newTestStage(t), nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/stage", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/stage/select", nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for GET select, got %d", w.Code)
		}
	})
}

func TestPosesHandler(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		handler := NewPosesHandler(newTestStore(t))

		req := httptest.NewRequest(http.MethodGet, "/api/poses", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 0 {
			t.Errorf("expected 0 poses, got %d", resp.Count)
		}
	})

	t.Run("seeded store", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Poses().EnsureDefaults(motion.DefaultTable(), safety.DefaultLimits()); err != nil {
			t.Fatalf("failed to seed defaults: %v", err)
		}
		handler := NewPosesHandler(s)

		req := httptest.NewRequest(http.MethodGet, "/api/poses", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Poses []struct {
				Name      string         `json:"name"`
				Positions map[string]int `json:"positions"`
			} `json:"poses"`
			Limits []struct {
				Joint     string `json:"joint"`
				TorqueMax int    `json:"torque_max"`
			} `json:"limits"`
			Count int `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 4 {
			t.Errorf("expected 4 poses, got %d", resp.Count)
		}
		if len(resp.Limits) != 5 {
			t.Errorf("expected 5 joint limits, got %d", len(resp.Limits))
		}
		found := false
		for _, p := range resp.Poses {
			if p.Name == motion.PoseRest {
				found = true
				if p.Positions[motion.JointShoulderLift] != -2048 {
					t.Errorf("expected rest shoulder_lift -2048, got %d", p.Positions[motion.JointShoulderLift])
				}
			}
		}
		if !found {
			t.Error("expected rest pose in response")
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := NewPosesHandler(newTestStore(t))

		req := httptest.NewRequest(http.MethodPost, "/api/poses", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})
}

func TestJournalHandler(t *testing.T) {
	t.Run("recent events", func(t *testing.T) {
		s := newTestStore(t)
		for _, detail := range []string{"rest->primary", "primary->complex(games)"} {
			if err := s.Events().Append(&store.Event{Kind: store.EventStageChange, Detail: detail}); err != nil {
				t.Fatalf("failed to append event: %v", err)
			}
		}
		handler := NewJournalHandler(s)

		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Events []struct {
				Kind   string `json:"kind"`
				Detail string `json:"detail"`
			} `json:"events"`
			Count int `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 2 {
			t.Errorf("expected 2 events, got %d", resp.Count)
		}
	})

	t.Run("limit parameter", func(t *testing.T) {
		s := newTestStore(t)
		for i := 0; i < 5; i++ {
			if err := s.Events().Append(&store.Event{Kind: store.EventGesture, Detail: "wave"}); err != nil {
				t.Fatalf("failed to append event: %v", err)
			}
		}
		handler := NewJournalHandler(s)

		req := httptest.NewRequest(http.MethodGet, "/api/events?limit=3", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		var resp struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 3 {
			t.Errorf("expected 3 events, got %d", resp.Count)
		}
	})

	t.Run("invalid limit rejected", func(t *testing.T) {
		handler := NewJournalHandler(newTestStore(t))

		req := httptest.NewRequest(http.MethodGet, "/api/events?limit=zero", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}
