// Package motion plans joint-space trajectories for the exhibit arm.
// It produces bounded-step waypoints; it never talks to the actuator
// directly — every waypoint goes through a Submitter.
package motion

import (
	"errors"
	"fmt"
	"sort"
)

// Joint names for the SO-101 arm.
const (
	JointShoulderPan  = "shoulder_pan"
	JointShoulderLift = "shoulder_lift"
	JointElbowFlex    = "elbow_flex"
	JointWristFlex    = "wrist_flex"
	JointWristRoll    = "wrist_roll"
)

// Joints lists all controlled joints in bus order.
var Joints = []string{
	JointShoulderPan,
	JointShoulderLift,
	JointElbowFlex,
	JointWristFlex,
	JointWristRoll,
}

// ErrUnknownPose is returned when a named pose is not in the table.
var ErrUnknownPose = errors.New("unknown pose")

// Pose maps joint name to target encoder position.
type Pose map[string]int

// Clone returns an independent copy of the pose.
func (p Pose) Clone() Pose {
	out := make(Pose, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Waypoint is one joint-position target within a trajectory, with
// optional per-joint torque caps.
type Waypoint struct {
	Positions Pose
	Torque    map[string]int
}

// Named pose identifiers used by the stage controller.
const (
	PoseRest     = "rest"
	PoseV        = "V"
	PoseTracking = "tracking"
	PoseVertical = "vertical"
)

// Table is the immutable named-pose lookup, loaded once at startup.
type Table struct {
	poses map[string]Pose
}

// NewTable builds a table from the given poses. The input is copied.
func NewTable(poses map[string]Pose) *Table {
	t := &Table{poses: make(map[string]Pose, len(poses))}
	for name, p := range poses {
		t.poses[name] = p.Clone()
	}
	return t
}

// DefaultTable returns the compiled-in pose set, used when the store has
// no operator overrides.
func DefaultTable() *Table {
	return NewTable(map[string]Pose{
		PoseRest: {
			JointShoulderPan:  0,
			JointShoulderLift: -2048,
			JointElbowFlex:    1024,
			JointWristFlex:    0,
			JointWristRoll:    0,
		},
		PoseV: {
			JointShoulderPan:  0,
			JointShoulderLift: -1024,
			JointElbowFlex:    2048,
			JointWristFlex:    -1024,
			JointWristRoll:    0,
		},
		PoseTracking: {
			JointShoulderPan:  0,
			JointShoulderLift: -512,
			JointElbowFlex:    1536,
			JointWristFlex:    -512,
			JointWristRoll:    0,
		},
		PoseVertical: {
			JointShoulderPan:  0,
			JointShoulderLift: 0,
			JointElbowFlex:    -1024,
			JointWristFlex:    1024,
			JointWristRoll:    0,
		},
	})
}

// Lookup returns the named pose, or ErrUnknownPose.
func (t *Table) Lookup(name string) (Pose, error) {
	p, ok := t.poses[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPose, name)
	}
	return p.Clone(), nil
}

// Names returns the pose names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.poses))
	for name := range t.poses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
