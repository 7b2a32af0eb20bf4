// Package classifier turns a stream of hand-landmark frames into discrete,
// debounced gesture events.
package classifier

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a gesture.
type Type string

const (
	// TypeOK is the thumb-index pinch ("OK" sign).
	TypeOK Type = "ok"
	// TypeWave is a horizontal index-finger oscillation.
	TypeWave Type = "wave"
	// TypeDoubleTap is a brief index-middle finger contact.
	TypeDoubleTap Type = "double_tap"
	// TypeLongPress is a held, stationary index finger.
	TypeLongPress Type = "long_press"
)

// Point is a normalized screen coordinate ([0,1] in both axes).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is one debounced gesture occurrence. Events are ephemeral: they
// drive the stage controller and the UI broadcast but are not persisted
// beyond the operator journal.
type Event struct {
	ID         string        `json:"id"`
	Type       Type          `json:"type"`
	Confidence float64       `json:"confidence"`
	Start      time.Time     `json:"start"`
	Duration   time.Duration `json:"duration"`
	Anchor     Point         `json:"anchor"`
}

func newEvent(t Type, confidence float64, start time.Time, duration time.Duration, anchor Point) *Event {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return &Event{
		ID:         uuid.New().String(),
		Type:       t,
		Confidence: confidence,
		Start:      start,
		Duration:   duration,
		Anchor:     anchor,
	}
}
