package classifier

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/projecto/internal/detector"
)

// sample is one frame's worth of derived measurements for the tracked hand.
type sample struct {
	t     time.Time
	index Point
	pinch float64
	gap   float64
}

// Classifier consumes landmark frames one at a time, in arrival order, and
// produces at most one gesture event per frame. It is not safe for
// concurrent use; the decision loop is its only caller.
type Classifier struct {
	cfg     Config
	samples []sample

	gapFrames int

	okHeld bool
	lastOK time.Time

	lastWave time.Time

	tapActive  bool
	tapSpoiled bool
	tapStart   time.Time
	tapAnchor  Point
	tapMinGap  float64
	lastTap    time.Time

	pressFired bool
	lastPress  time.Time
}

// New creates a Classifier with the given thresholds.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Reset clears all rolling state. Called internally when the hand is lost
// and externally when detection is paused.
func (c *Classifier) Reset() {
	c.samples = c.samples[:0]
	c.gapFrames = 0
	c.okHeld = false
	c.tapActive = false
	c.tapSpoiled = false
	c.pressFired = false
}

// Process consumes one frame and returns the gesture it completes, or nil.
// When more than one gesture matches the same frame, the more deliberate
// gesture wins: OK, then long press, then double tap, then wave.
func (c *Classifier) Process(frame detector.Frame) *Event {
	hand := frame.Best()
	if hand == nil || hand.Score < c.cfg.MinHandScore {
		c.gapFrames++
		if c.gapFrames > c.cfg.MaxGapFrames {
			c.Reset()
		}
		return nil
	}
	c.gapFrames = 0

	now := frame.Time
	tip := hand.Points[detector.IndexTip]
	s := sample{
		t:     now,
		index: Point{X: tip.X, Y: tip.Y},
		pinch: hand.PinchDistance(),
		gap:   hand.FingerGap(),
	}
	c.samples = append(c.samples, s)
	c.trim(now)

	// Every detector updates its state on every frame; only the highest
	// priority candidate is emitted and charges its cooldown.
	ok := c.detectOK(s)
	press := c.detectLongPress(s)
	tap := c.detectDoubleTap(s)
	wave := c.detectWave(s)

	switch {
	case ok != nil:
		c.lastOK = now
		return ok
	case press != nil:
		c.pressFired = true
		c.lastPress = now
		return press
	case tap != nil:
		c.lastTap = now
		return tap
	case wave != nil:
		c.lastWave = now
		c.samples = c.samples[:0]
		return wave
	}
	return nil
}

func (c *Classifier) trim(now time.Time) {
	cutoff := now.Add(-c.cfg.WindowDuration)
	i := 0
	for i < len(c.samples) && c.samples[i].t.Before(cutoff) {
		i++
	}
	if i > 0 {
		c.samples = append(c.samples[:0], c.samples[i:]...)
	}
}

// detectOK fires on the falling edge of the thumb-index distance. The
// gesture re-arms only once the pinch opens past the threshold again, so
// a held pinch produces exactly one event.
func (c *Classifier) detectOK(s sample) *Event {
	if s.pinch >= c.cfg.OKDistance {
		c.okHeld = false
		return nil
	}

	if c.okHeld {
		return nil
	}
	c.okHeld = true

	if s.t.Sub(c.lastOK) < c.cfg.OKCooldown {
		return nil
	}

	// Full confidence at half the threshold, linear to zero at it.
	conf := (c.cfg.OKDistance - s.pinch) / (c.cfg.OKDistance / 2)
	return newEvent(TypeOK, conf, s.t, 0, s.index)
}

// detectLongPress fires once the index tip has stayed within the stability
// bound for the whole trailing press window. Instability re-arms it.
func (c *Classifier) detectLongPress(s sample) *Event {
	start := s.t.Add(-c.cfg.PressDuration)

	var xs, ys []float64
	for _, p := range c.samples {
		if p.t.Before(start) {
			continue
		}
		xs = append(xs, p.index.X)
		ys = append(ys, p.index.Y)
	}
	if len(xs) < 2 {
		return nil
	}

	// Need coverage of the full window, not just recent samples.
	if c.samples[0].t.After(start) {
		return nil
	}

	sd := stat.StdDev(xs, nil)
	if sdY := stat.StdDev(ys, nil); sdY > sd {
		sd = sdY
	}

	if sd > c.cfg.PressStability {
		c.pressFired = false
		return nil
	}
	if c.pressFired || s.t.Sub(c.lastPress) < c.cfg.PressCooldown {
		return nil
	}

	conf := 1 - sd/c.cfg.PressStability
	return newEvent(TypeLongPress, conf, start, c.cfg.PressDuration, s.index)
}

// detectDoubleTap tracks a closed index-middle gap and fires on release,
// provided the contact lasted a plausible tap duration and the hand did
// not drift away mid-contact.
func (c *Classifier) detectDoubleTap(s sample) *Event {
	closed := s.gap < c.cfg.TapDistance

	if closed {
		if !c.tapActive {
			c.tapActive = true
			c.tapSpoiled = false
			c.tapStart = s.t
			c.tapAnchor = s.index
			c.tapMinGap = s.gap
			return nil
		}
		if s.gap < c.tapMinGap {
			c.tapMinGap = s.gap
		}
		drift := hypot(s.index, c.tapAnchor)
		if drift > c.cfg.TapMaxDrift || s.t.Sub(c.tapStart) > c.cfg.TapMaxHold {
			c.tapSpoiled = true
		}
		return nil
	}

	if !c.tapActive {
		return nil
	}
	c.tapActive = false

	hold := s.t.Sub(c.tapStart)
	if c.tapSpoiled || hold < c.cfg.TapMinHold || hold > c.cfg.TapMaxHold {
		return nil
	}
	if s.t.Sub(c.lastTap) < c.cfg.TapCooldown {
		return nil
	}

	conf := 1 - c.tapMinGap/c.cfg.TapDistance
	return newEvent(TypeDoubleTap, conf, c.tapStart, hold, c.tapAnchor)
}

// detectWave looks for horizontal oscillation of the index tip across the
// rolling window: enough travel and enough direction changes.
func (c *Classifier) detectWave(s sample) *Event {
	if len(c.samples) < c.cfg.WaveMinFrames {
		return nil
	}
	if s.t.Sub(c.lastWave) < c.cfg.WaveCooldown {
		return nil
	}

	minX, maxX := c.samples[0].index.X, c.samples[0].index.X
	crossings := 0
	prevDir := 0
	for i := 1; i < len(c.samples); i++ {
		x := c.samples[i].index.X
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}

		dir := 0
		if dx := x - c.samples[i-1].index.X; dx > 0 {
			dir = 1
		} else if dx < 0 {
			dir = -1
		}
		if dir != 0 && prevDir != 0 && dir != prevDir {
			crossings++
		}
		if dir != 0 {
			prevDir = dir
		}
	}

	if maxX-minX < c.cfg.WaveAmplitude || crossings < c.cfg.WaveMinCrossings {
		return nil
	}

	conf := float64(crossings) / float64(c.cfg.WaveMinCrossings*2)
	start := c.samples[0].t
	return newEvent(TypeWave, conf, start, s.t.Sub(start), s.index)
}

func hypot(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
