package motion

import (
	"log"
	"sync"
	"time"
)

// Kind selects a planner behavior.
type Kind string

const (
	// KindMoveToPose interpolates from the current position to a named pose.
	KindMoveToPose Kind = "move_to_pose"
	// KindNod bobs the wrist around the current pose.
	KindNod Kind = "nod"
	// KindFreeTrack follows a moving screen coordinate one step per tick.
	KindFreeTrack Kind = "free_track"
	// KindPowerDown disables torque on all joints.
	KindPowerDown Kind = "power_down"
)

// Target is a normalized screen coordinate for free tracking.
type Target struct {
	X float64
	Y float64
}

// Request asks the planner for one behavior. A new request supersedes the
// in-flight one at its current interpolation step. Then, when set, chains
// a follow-up request that runs after this one completes (and is abandoned
// together with it on preemption).
type Request struct {
	Kind   Kind
	Pose   string // KindMoveToPose
	Target Target // KindFreeTrack
	Repeat int    // KindNod; 0 means the configured default
	Then   *Request
}

// Submitter receives every planned waypoint. The safety supervisor is the
// production implementation; the planner never bypasses it.
type Submitter interface {
	Submit(wp Waypoint) error
	PowerDown() error
}

// Config tunes the planner's control loop.
type Config struct {
	// TickInterval is the control period.
	TickInterval time.Duration
	// MaxStep bounds how far any joint moves in one tick, in encoder counts.
	MaxStep int
	// NodDelta is the wrist_flex excursion of one nod, in encoder counts.
	NodDelta int
	// NodRepeat is the default nod count when a request does not set one.
	NodRepeat int
	// PanGain and LiftGain map normalized screen offsets to encoder
	// offsets during free tracking.
	PanGain  float64
	LiftGain float64
}

// DefaultConfig returns the exhibit's motion profile: a full rest-to-V
// move completes in about 30 ticks at 60ms.
func DefaultConfig() Config {
	return Config{
		TickInterval: 60 * time.Millisecond,
		MaxStep:      150,
		NodDelta:     200,
		NodRepeat:    2,
		PanGain:      500,
		LiftGain:     300,
	}
}

// Planner turns action requests into bounded-step waypoint sequences at
// the control rate. At most one request is active at a time.
type Planner struct {
	cfg   Config
	table *Table
	sub   Submitter
	log   *log.Logger

	mu      sync.Mutex
	current Pose
	pending *Request
	mode    Kind
	target  Pose       // KindMoveToPose / waypoint queue head
	queue   []Pose     // KindNod remaining waypoints
	track   Target     // KindFreeTrack latest coordinate
	then    *Request   // chained follow-up for the active request
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPlanner creates a Planner. The current position starts at the rest
// pose; SetCurrent overrides it once real positions are known.
func NewPlanner(cfg Config, table *Table, sub Submitter, logger *log.Logger) *Planner {
	rest, err := table.Lookup(PoseRest)
	if err != nil {
		rest = Pose{}
	}
	return &Planner{
		cfg:     cfg,
		table:   table,
		sub:     sub,
		log:     logger,
		current: rest,
	}
}

// SetCurrent seeds the planner's notion of where the arm is.
func (p *Planner) SetCurrent(pose Pose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = pose.Clone()
}

// Current returns a snapshot of the last commanded position.
func (p *Planner) Current() Pose {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// Dispatch hands the planner a new request, preempting the in-flight one.
// Never blocks; the request is picked up on the next control tick.
func (p *Planner) Dispatch(req Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = &req
}

// Run starts the control loop. It returns immediately; Stop halts it.
func (p *Planner) Run() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		return
	}
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(p.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.tick()
			}
		}
	}(p.stopCh, p.doneCh)
}

// Stop halts the control loop and abandons any in-flight trajectory.
func (p *Planner) Stop() {
	p.mu.Lock()
	stop, done := p.stopCh, p.doneCh
	p.stopCh = nil
	p.doneCh = nil
	p.mode = ""
	p.pending = nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// tick runs one control period: adopt a pending request if any, then
// advance the active behavior by one bounded step.
func (p *Planner) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		p.adopt(p.pending)
		p.pending = nil
	}

	switch p.mode {
	case KindMoveToPose:
		p.stepToward(p.target)
		if posesEqual(p.current, p.target) {
			p.finish()
		}
	case KindNod:
		if len(p.queue) == 0 {
			p.finish()
			return
		}
		p.stepToward(p.queue[0])
		if posesEqual(p.current, p.queue[0]) {
			p.queue = p.queue[1:]
			if len(p.queue) == 0 {
				p.finish()
			}
		}
	case KindFreeTrack:
		// Recompute a one-step target from the latest coordinate every
		// tick; the target never settles, so tracking runs until preempted.
		p.stepToward(p.trackTarget())
	case KindPowerDown:
		if err := p.sub.PowerDown(); err != nil {
			p.log.Printf("motion: power down failed: %v", err)
		}
		p.mode = ""
	}
}

// adopt replaces the active behavior with req. A repeated free-track
// request just refreshes the coordinate without restarting the behavior.
func (p *Planner) adopt(req *Request) {
	if req.Kind == KindFreeTrack && p.mode == KindFreeTrack {
		p.track = req.Target
		return
	}

	p.mode = ""
	p.queue = nil
	p.then = req.Then

	switch req.Kind {
	case KindMoveToPose:
		target, err := p.table.Lookup(req.Pose)
		if err != nil {
			// Bad pose names are reported and ignored; the previous
			// behavior is already abandoned.
			p.log.Printf("motion: %v", err)
			p.then = nil
			return
		}
		p.mode = KindMoveToPose
		p.target = target
	case KindNod:
		repeat := req.Repeat
		if repeat <= 0 {
			repeat = p.cfg.NodRepeat
		}
		base := p.current.Clone()
		down := base.Clone()
		down[JointWristFlex] += p.cfg.NodDelta
		for i := 0; i < repeat; i++ {
			p.queue = append(p.queue, down.Clone(), base.Clone())
		}
		p.mode = KindNod
	case KindFreeTrack:
		p.mode = KindFreeTrack
		p.track = req.Target
	case KindPowerDown:
		p.mode = KindPowerDown
	}
}

// finish completes the active behavior and adopts its chained follow-up.
func (p *Planner) finish() {
	next := p.then
	p.mode = ""
	p.queue = nil
	p.then = nil
	if next != nil {
		p.adopt(next)
	}
}

// stepToward advances every joint at most MaxStep counts toward target
// and submits the resulting waypoint. A rejected waypoint halts the
// trajectory where it stands.
func (p *Planner) stepToward(target Pose) {
	next := p.current.Clone()
	for joint, want := range target {
		have := next[joint]
		delta := want - have
		if delta > p.cfg.MaxStep {
			delta = p.cfg.MaxStep
		} else if delta < -p.cfg.MaxStep {
			delta = -p.cfg.MaxStep
		}
		next[joint] = have + delta
	}

	if posesEqual(next, p.current) {
		return
	}

	if err := p.sub.Submit(Waypoint{Positions: next.Clone()}); err != nil {
		p.log.Printf("motion: waypoint rejected, halting trajectory: %v", err)
		p.mode = ""
		p.queue = nil
		p.then = nil
		return
	}
	p.current = next
}

// trackTarget maps the latest screen coordinate to a joint target around
// the current position. Offsets are measured from the screen center.
func (p *Planner) trackTarget() Pose {
	target := p.current.Clone()
	target[JointShoulderPan] = p.current[JointShoulderPan] + int((p.track.X-0.5)*p.cfg.PanGain)
	target[JointShoulderLift] = p.current[JointShoulderLift] + int((0.5-p.track.Y)*p.cfg.LiftGain)
	return target
}

func posesEqual(a, b Pose) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
