package classifier

import "time"

// Config holds the gesture thresholds and cooldowns. All distances are in
// normalized screen units ([0,1] across the frame); all timing is wall
// clock, so detection behavior does not change with camera frame rate.
type Config struct {
	// MinHandScore is the minimum per-hand detection score; hands below
	// it count as "no hand" for gap tracking.
	MinHandScore float64

	// MaxGapFrames is how many consecutive frames without a confident
	// hand are tolerated before all rolling state resets.
	MaxGapFrames int

	// WindowDuration bounds the rolling sample history.
	WindowDuration time.Duration

	// OKDistance is the thumb-index pinch threshold. Confidence reaches
	// 1.0 at half this distance and falls linearly to 0 at the threshold.
	OKDistance float64
	OKCooldown time.Duration

	// Wave detection: index-tip X peak-to-peak must reach WaveAmplitude
	// and the X velocity must change sign at least WaveMinCrossings times
	// across at least WaveMinFrames samples.
	WaveAmplitude    float64
	WaveMinCrossings int
	WaveMinFrames    int
	WaveCooldown     time.Duration

	// Double tap: index-middle gap below TapDistance held between
	// TapMinHold and TapMaxHold, with the index tip drifting less than
	// TapMaxDrift, emitted on release.
	TapDistance float64
	TapMinHold  time.Duration
	TapMaxHold  time.Duration
	TapMaxDrift float64
	TapCooldown time.Duration

	// Long press: index-tip standard deviation over the trailing
	// PressDuration window must stay below PressStability.
	PressDuration  time.Duration
	PressStability float64
	PressCooldown  time.Duration
}

// DefaultConfig returns the exhibit's calibrated thresholds.
func DefaultConfig() Config {
	return Config{
		MinHandScore:   0.7,
		MaxGapFrames:   5,
		WindowDuration: 2 * time.Second,

		OKDistance: 0.10,
		OKCooldown: 1500 * time.Millisecond,

		WaveAmplitude:    0.25,
		WaveMinCrossings: 3,
		WaveMinFrames:    10,
		WaveCooldown:     1500 * time.Millisecond,

		TapDistance: 0.05,
		TapMinHold:  80 * time.Millisecond,
		TapMaxHold:  500 * time.Millisecond,
		TapMaxDrift: 0.12,
		TapCooldown: time.Second,

		PressDuration:  1500 * time.Millisecond,
		PressStability: 0.02,
		PressCooldown:  3 * time.Second,
	}
}
