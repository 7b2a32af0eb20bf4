// Package safety is the sole gatekeeper between planned motion and the
// actuator: it enforces joint limits, owns robot health, and runs the
// emergency path.
package safety

import (
	"errors"
	"fmt"

	"github.com/ayusman/projecto/internal/motion"
)

// Policy selects what happens to a waypoint that violates position limits.
type Policy string

const (
	// PolicyReject drops the waypoint and halts the trajectory.
	PolicyReject Policy = "reject"
	// PolicyClamp saturates the waypoint to the nearest legal value.
	PolicyClamp Policy = "clamp"
)

// ErrFaulted is returned by Submit once the supervisor has faulted;
// nothing moves again until reconnection.
var ErrFaulted = errors.New("safety supervisor faulted")

// Limit bounds one joint. TorqueMax is a ceiling, never a target.
type Limit struct {
	PositionMin int
	PositionMax int
	TorqueMax   int
}

// Limits is the per-joint limit table, loaded once, read-only afterwards.
type Limits map[string]Limit

// DefaultLimits returns the SO-101 envelope with the exhibit's torque caps.
func DefaultLimits() Limits {
	return Limits{
		motion.JointShoulderPan:  {PositionMin: -2048, PositionMax: 2048, TorqueMax: 300},
		motion.JointShoulderLift: {PositionMin: -2048, PositionMax: 2048, TorqueMax: 400},
		motion.JointElbowFlex:    {PositionMin: -2048, PositionMax: 2048, TorqueMax: 600},
		motion.JointWristFlex:    {PositionMin: -2048, PositionMax: 2048, TorqueMax: 300},
		motion.JointWristRoll:    {PositionMin: -2048, PositionMax: 2048, TorqueMax: 300},
	}
}

// LimitViolation reports a joint value outside its position envelope.
type LimitViolation struct {
	Joint string
	Value int
	Min   int
	Max   int
}

func (e *LimitViolation) Error() string {
	return fmt.Sprintf("joint %s position %d outside [%d,%d]", e.Joint, e.Value, e.Min, e.Max)
}

// Check validates every joint in pose against the table. Joints without a
// limit entry are violations: an unverifiable command never moves hardware.
func (l Limits) Check(pose motion.Pose) error {
	for joint, v := range pose {
		lim, ok := l[joint]
		if !ok {
			return &LimitViolation{Joint: joint, Value: v}
		}
		if v < lim.PositionMin || v > lim.PositionMax {
			return &LimitViolation{Joint: joint, Value: v, Min: lim.PositionMin, Max: lim.PositionMax}
		}
	}
	return nil
}

// Clamp returns pose with every joint saturated to its envelope. Joints
// without a limit entry are dropped.
func (l Limits) Clamp(pose motion.Pose) motion.Pose {
	out := make(motion.Pose, len(pose))
	for joint, v := range pose {
		lim, ok := l[joint]
		if !ok {
			continue
		}
		if v < lim.PositionMin {
			v = lim.PositionMin
		}
		if v > lim.PositionMax {
			v = lim.PositionMax
		}
		out[joint] = v
	}
	return out
}

// TorqueCaps returns the torque ceiling for every joint in pose, taking
// the requested cap where one is given but never exceeding the table.
func (l Limits) TorqueCaps(pose motion.Pose, requested map[string]int) map[string]int {
	caps := make(map[string]int, len(pose))
	for joint := range pose {
		lim, ok := l[joint]
		if !ok {
			continue
		}
		ceiling := lim.TorqueMax
		if req, ok := requested[joint]; ok && req < ceiling {
			ceiling = req
		}
		caps[joint] = ceiling
	}
	return caps
}
