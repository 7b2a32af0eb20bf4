package safety

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/projecto/internal/driver"
	"github.com/ayusman/projecto/internal/motion"
)

// Health is the supervisor's view of the arm. It is the only mutable
// state shared across goroutines; everyone else reads snapshots.
type Health struct {
	Connected bool
	LastAck   time.Time
	Positions motion.Pose
	Faulted   bool
}

// Config tunes the supervisor.
type Config struct {
	// Policy for position-limit violations. Torque is always clamped.
	Policy Policy
	// AckTimeout is how stale the last acknowledgment may get before the
	// watchdog declares a fault.
	AckTimeout time.Duration
	// WatchInterval is the watchdog check period.
	WatchInterval time.Duration
	// ConnectTimeout bounds the transport handshake.
	ConnectTimeout time.Duration
}

// DefaultConfig returns the exhibit's supervisor settings.
func DefaultConfig() Config {
	return Config{
		Policy:         PolicyReject,
		AckTimeout:     2 * time.Second,
		WatchInterval:  500 * time.Millisecond,
		ConnectTimeout: 5 * time.Second,
	}
}

// Supervisor enforces limits on every waypoint, tracks robot health, and
// owns the emergency sequence. It implements motion.Submitter.
type Supervisor struct {
	cfg    Config
	limits Limits
	drv    driver.Driver
	rest   motion.Pose
	log    *log.Logger

	mu        sync.Mutex
	health    Health
	safed     bool // emergency sequence already ran since last connect
	onFault   func()
	stopCh    chan struct{}
	ackDoneCh chan struct{}
}

// New creates a Supervisor. rest is the pose the emergency sequence
// drives to before disabling torque.
func New(cfg Config, limits Limits, drv driver.Driver, rest motion.Pose, logger *log.Logger) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		limits: limits,
		drv:    drv,
		rest:   limits.Clamp(rest),
		log:    logger,
	}
}

// OnFault registers the callback invoked after the emergency sequence
// when a fault is detected. Used to force the stage controller to REST.
func (s *Supervisor) OnFault(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFault = fn
}

// Connect establishes the actuator link, verifies the handshake within
// the configured timeout, and starts the ack consumer and watchdog.
func (s *Supervisor) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := s.drv.Connect(ctx); err != nil {
		return fmt.Errorf("actuator connect: %w", err)
	}

	s.mu.Lock()
	s.health = Health{Connected: true, LastAck: time.Now()}
	s.safed = false
	s.stopCh = make(chan struct{})
	s.ackDoneCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	go s.consumeAcks()
	go s.watch(stop)
	return nil
}

// Submit validates one waypoint and forwards it to the actuator. Under
// PolicyReject an out-of-range joint returns LimitViolation and nothing
// is sent; under PolicyClamp the value saturates to the nearest bound.
// Torque caps are always applied.
func (s *Supervisor) Submit(wp motion.Waypoint) error {
	s.mu.Lock()
	if s.health.Faulted {
		s.mu.Unlock()
		return ErrFaulted
	}
	if !s.health.Connected {
		s.mu.Unlock()
		return driver.ErrNotConnected
	}
	s.mu.Unlock()

	positions := wp.Positions
	if err := s.limits.Check(positions); err != nil {
		if s.cfg.Policy == PolicyReject {
			return err
		}
		positions = s.limits.Clamp(positions)
	}

	return s.drv.Move(driver.Command{
		Positions: positions,
		Torque:    s.limits.TorqueCaps(positions, wp.Torque),
	})
}

// PowerDown disables torque on all joints. Part of motion.Submitter.
func (s *Supervisor) PowerDown() error {
	return s.drv.DisableTorque()
}

// Snapshot returns a copy of the current health record.
func (s *Supervisor) Snapshot() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.health
	h.Positions = s.health.Positions.Clone()
	return h
}

// EmergencyStop drives the arm to rest and disables torque, bypassing
// the planner. Idempotent: the sequence runs once per connection no
// matter how many paths trigger it, and it depends on nothing but the
// driver so it works while the rest of the process is unwinding.
func (s *Supervisor) EmergencyStop() {
	s.mu.Lock()
	if s.safed || !s.health.Connected {
		s.mu.Unlock()
		return
	}
	s.safed = true
	s.mu.Unlock()

	s.log.Printf("safety: emergency sequence: rest + detorque")
	if err := s.drv.Move(driver.Command{
		Positions: s.rest,
		Torque:    s.limits.TorqueCaps(s.rest, nil),
	}); err != nil {
		s.log.Printf("safety: emergency rest move failed: %v", err)
	}
	if err := s.drv.DisableTorque(); err != nil {
		s.log.Printf("safety: emergency detorque failed: %v", err)
	}
}

// Fault marks the arm faulted, runs the emergency sequence, and notifies
// the registered fault handler. Safe to call from any goroutine.
func (s *Supervisor) Fault(reason error) {
	s.mu.Lock()
	if s.health.Faulted {
		s.mu.Unlock()
		return
	}
	s.health.Faulted = true
	fn := s.onFault
	s.mu.Unlock()

	s.log.Printf("safety: fault: %v", reason)
	s.EmergencyStop()
	if fn != nil {
		fn()
	}
}

// Disconnect runs the rest sequence, stops the background goroutines,
// and releases the transport. Idempotent.
func (s *Supervisor) Disconnect() error {
	s.mu.Lock()
	if !s.health.Connected {
		s.mu.Unlock()
		return nil
	}
	stop := s.stopCh
	s.mu.Unlock()

	s.EmergencyStop()

	s.mu.Lock()
	s.health.Connected = false
	s.stopCh = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	return s.drv.Close()
}

// Protect is the process-level panic funnel: deferred once in main, it
// runs the emergency sequence before letting the panic continue.
func (s *Supervisor) Protect() {
	if r := recover(); r != nil {
		s.log.Printf("safety: unhandled fault: %v", r)
		s.EmergencyStop()
		panic(r)
	}
}

// consumeAcks folds driver acknowledgments into the health record.
func (s *Supervisor) consumeAcks() {
	defer close(s.ackDoneCh)
	for ack := range s.drv.Acks() {
		s.mu.Lock()
		s.health.LastAck = ack.At
		if ack.Positions != nil {
			s.health.Positions = motion.Pose{}
			for j, v := range ack.Positions {
				s.health.Positions[j] = v
			}
		}
		s.mu.Unlock()
	}
}

// watch is the ack-staleness watchdog. It runs on its own timer,
// independent of the decision pipeline.
func (s *Supervisor) watch(stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			stale := s.health.Connected && !s.health.Faulted &&
				time.Since(s.health.LastAck) > s.cfg.AckTimeout
			s.mu.Unlock()

			if stale {
				s.Fault(errors.New("actuator acknowledgment timeout"))
			}
		}
	}
}
