// Package detector provides hand landmark acquisition for the exhibit pipeline.
package detector

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a point with x, y normalized to the frame ([0,1])
// and z as relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected for one hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Frame is one timestamped detection result. Frames are values: produced
// once per camera tick, handed downstream, never mutated.
type Frame struct {
	Time  time.Time
	Hands []HandLandmarks
}

// Best returns the highest-scoring hand in the frame, or nil when the
// frame contains no hands.
func (f *Frame) Best() *HandLandmarks {
	var best *HandLandmarks
	for i := range f.Hands {
		if best == nil || f.Hands[i].Score > best.Score {
			best = &f.Hands[i]
		}
	}
	return best
}

// Distance returns the planar (screen-space) distance between two landmarks.
// Depth is ignored: gesture thresholds are calibrated against the projected
// image, not hand geometry.
func (h *HandLandmarks) Distance(a, b int) float64 {
	dx := h.Points[a].X - h.Points[b].X
	dy := h.Points[a].Y - h.Points[b].Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PinchDistance returns the thumb-tip to index-tip distance.
func (h *HandLandmarks) PinchDistance() float64 {
	return h.Distance(ThumbTip, IndexTip)
}

// FingerGap returns the index-tip to middle-tip distance.
func (h *HandLandmarks) FingerGap() float64 {
	return h.Distance(IndexTip, MiddleTip)
}
