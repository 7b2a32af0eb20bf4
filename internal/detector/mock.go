package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// baseHand returns a neutral open hand roughly centered in the frame.
// Fixture builders below move individual fingertips from this base.
func baseHand() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}

// OpenPalmHand returns a neutral open palm, all fingers extended.
func OpenPalmHand() HandLandmarks {
	return baseHand()
}

// PinchHand returns a hand with the thumb tip and index tip separated by
// exactly gap (normalized units). Used to drive the OK-sign detector.
func PinchHand(gap float64) HandLandmarks {
	landmarks := baseHand()
	landmarks.Points[IndexTip] = Point3D{X: 0.55, Y: 0.45, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.55 + gap, Y: 0.45, Z: 0.0}
	return landmarks
}

// PointingHand returns a hand with the index tip at (x, y). Used to drive
// the wave, long-press, and free-tracking paths.
func PointingHand(x, y float64) HandLandmarks {
	landmarks := baseHand()
	landmarks.Points[IndexTip] = Point3D{X: x, Y: y, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: x, Y: y + 0.08, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: x, Y: y + 0.16, Z: 0.0}
	return landmarks
}

// TwoFingerHand returns a hand with the index tip and middle tip separated
// by exactly gap (normalized units). Used to drive the double-tap detector.
func TwoFingerHand(gap float64) HandLandmarks {
	landmarks := baseHand()
	landmarks.Points[IndexTip] = Point3D{X: 0.50, Y: 0.35, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50 + gap, Y: 0.35, Z: 0.0}
	return landmarks
}
