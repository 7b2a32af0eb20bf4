// Package stage is the interaction state machine: it folds gesture and
// menu events into stage transitions and emits motion requests.
package stage

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/projecto/internal/classifier"
	"github.com/ayusman/projecto/internal/motion"
)

// Kind is the top-level interaction mode.
type Kind string

const (
	// Rest: arm parked and detorqued, waiting for a visitor.
	Rest Kind = "rest"
	// Primary: visitor engaged, arm in the greeting pose.
	Primary Kind = "primary"
	// Complex: a subsystem owns the interaction.
	Complex Kind = "complex"
)

// Subsystem identifies a Complex-stage experience.
type Subsystem string

const (
	SubsystemSmartHome         Subsystem = "smart_home"
	SubsystemGames             Subsystem = "games"
	SubsystemObjectRecognition Subsystem = "object_recognition"
	SubsystemFreeTracking      Subsystem = "free_tracking"
)

// Subsystems lists every known subsystem.
var Subsystems = []Subsystem{
	SubsystemSmartHome,
	SubsystemGames,
	SubsystemObjectRecognition,
	SubsystemFreeTracking,
}

// KnownSubsystem reports whether s names a subsystem.
func KnownSubsystem(s Subsystem) bool {
	for _, known := range Subsystems {
		if s == known {
			return true
		}
	}
	return false
}

// State is the full stage value: the kind plus, for Complex, which
// subsystem is active. Exactly one State is current at any time.
type State struct {
	Kind      Kind      `json:"kind"`
	Subsystem Subsystem `json:"subsystem,omitempty"`
}

func (s State) String() string {
	if s.Kind == Complex {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Subsystem)
	}
	return string(s.Kind)
}

// Dispatcher receives the motion request emitted by a transition.
// Satisfied by *motion.Planner.
type Dispatcher interface {
	Dispatch(req motion.Request)
}

// Notifier observes stage changes and action feedback. Implementations
// must not block: they are called on the decision goroutine.
type Notifier interface {
	StageChanged(old, new State)
	ActionFeedback(action string)
}

// SubsystemHost starts and stops the experience behind a Complex stage.
type SubsystemHost interface {
	Start(sub Subsystem) error
	Stop()
}

// Config tunes the controller.
type Config struct {
	// IdleTimeout returns the stage to Rest after this long without an
	// accepted event, measured on the wall clock.
	IdleTimeout time.Duration
	// MinConfidence filters gesture events before the transition table.
	MinConfidence float64
}

// DefaultConfig returns the exhibit settings.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   30 * time.Second,
		MinConfidence: 0.5,
	}
}

// Controller is the stage state machine. All event entry points serialize
// on one mutex: every transition updates the state and enqueues exactly
// one motion request before the next event is looked at.
type Controller struct {
	cfg        Config
	dispatcher Dispatcher
	host       SubsystemHost
	log        *log.Logger

	mu        sync.Mutex
	state     State
	notifiers []Notifier
	idleTimer *time.Timer
}

// New creates a Controller in the Rest state. host may be nil when no
// subsystem experiences are installed.
func New(cfg Config, dispatcher Dispatcher, host SubsystemHost, logger *log.Logger) *Controller {
	return &Controller{
		cfg:        cfg,
		dispatcher: dispatcher,
		host:       host,
		log:        logger,
		state:      State{Kind: Rest},
	}
}

// Subscribe registers a notifier for stage changes and feedback.
func (c *Controller) Subscribe(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifiers = append(c.notifiers, n)
}

// State returns the current stage.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleGesture consumes one gesture event. Events below the confidence
// floor and events with no entry in the transition table are ignored.
func (c *Controller) HandleGesture(ev *classifier.Event) {
	if ev == nil || ev.Confidence < c.cfg.MinConfidence {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetIdleLocked()

	switch c.state.Kind {
	case Rest:
		if ev.Type == classifier.TypeOK || ev.Type == classifier.TypeWave {
			c.transitionLocked(State{Kind: Primary}, motion.Request{
				Kind: motion.KindMoveToPose,
				Pose: motion.PoseV,
			})
		}
	case Primary:
		switch ev.Type {
		case classifier.TypeDoubleTap:
			// UI-only: the video panel repositions; the arm holds still.
			c.feedbackLocked("reposition")
		case classifier.TypeLongPress:
			c.feedbackLocked("nod")
			c.dispatcher.Dispatch(motion.Request{Kind: motion.KindNod})
		}
	}
}

// HandleMenuSelect enters the named subsystem from Primary. Selections
// in other stages and unknown names are ignored.
func (c *Controller) HandleMenuSelect(sub Subsystem) {
	if !KnownSubsystem(sub) {
		c.log.Printf("stage: ignoring unknown subsystem %q", sub)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != Primary {
		return
	}

	c.resetIdleLocked()
	if c.host != nil {
		if err := c.host.Start(sub); err != nil {
			c.log.Printf("stage: subsystem %s failed to start: %v", sub, err)
			return
		}
	}
	c.transitionLocked(State{Kind: Complex, Subsystem: sub}, motion.Request{
		Kind: motion.KindMoveToPose,
		Pose: motion.PoseTracking,
	})
}

// HandleMenuExit leaves the active subsystem back to Primary.
func (c *Controller) HandleMenuExit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != Complex {
		return
	}

	c.resetIdleLocked()
	if c.host != nil {
		c.host.Stop()
	}
	c.transitionLocked(State{Kind: Primary}, motion.Request{
		Kind: motion.KindMoveToPose,
		Pose: motion.PoseV,
	})
}

// HandleFault forces Rest with an immediate power down, from any stage.
// Called by the safety supervisor after the emergency sequence.
func (c *Controller) HandleFault() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind == Complex && c.host != nil {
		c.host.Stop()
	}
	c.transitionLocked(State{Kind: Rest}, motion.Request{Kind: motion.KindPowerDown})
}

// Track forwards a screen coordinate to the planner while the free
// tracking subsystem is active; otherwise it is a no-op. Called by the
// decision loop for every frame that contains a hand.
func (c *Controller) Track(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind != Complex || c.state.Subsystem != SubsystemFreeTracking {
		return
	}
	c.dispatcher.Dispatch(motion.Request{
		Kind:   motion.KindFreeTrack,
		Target: motion.Target{X: x, Y: y},
	})
}

// idleExpire parks the exhibit after the idle timeout: the arm returns
// to rest and then detorques.
func (c *Controller) idleExpire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Kind == Rest {
		return
	}
	if c.state.Kind == Complex && c.host != nil {
		c.host.Stop()
	}
	c.log.Printf("stage: idle timeout, returning to rest")
	c.transitionLocked(State{Kind: Rest}, motion.Request{
		Kind: motion.KindMoveToPose,
		Pose: motion.PoseRest,
		Then: &motion.Request{Kind: motion.KindPowerDown},
	})
}

// transitionLocked applies the state change, dispatches the request, and
// notifies observers. Caller holds c.mu.
func (c *Controller) transitionLocked(next State, req motion.Request) {
	old := c.state
	c.state = next
	c.dispatcher.Dispatch(req)

	c.armIdleLocked()
	for _, n := range c.notifiers {
		n.StageChanged(old, next)
	}
}

func (c *Controller) feedbackLocked(action string) {
	for _, n := range c.notifiers {
		n.ActionFeedback(action)
	}
}

// armIdleLocked keeps the idle timer running exactly when the stage is
// not Rest.
func (c *Controller) armIdleLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
	if c.state.Kind == Rest || c.cfg.IdleTimeout <= 0 {
		return
	}
	c.idleTimer = time.AfterFunc(c.cfg.IdleTimeout, c.idleExpire)
}

// resetIdleLocked restarts the timeout window on an accepted event.
func (c *Controller) resetIdleLocked() {
	c.armIdleLocked()
}
