// Package driver is the actuator transport for the exhibit arm: a framed
// request/acknowledge protocol over a serial bus, with a mock for tests.
package driver

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the transport layer.
var (
	ErrNotConnected = errors.New("driver not connected")
	ErrHandshake    = errors.New("handshake failed")
)

// Command is one raw actuator command. Positions are encoder counts per
// joint; Torque, when present, sets per-joint torque ceilings.
type Command struct {
	Positions map[string]int `json:"positions"`
	Torque    map[string]int `json:"torque,omitempty"`
}

// Ack is the controller's acknowledgment of a command, carrying the
// achieved joint positions.
type Ack struct {
	Positions map[string]int
	At        time.Time
}

// Driver is the request/ack transport the safety supervisor drives.
// Implementations: SerialDriver (hardware) and MockDriver (tests).
type Driver interface {
	// Connect establishes the transport and verifies the handshake.
	Connect(ctx context.Context) error

	// Move sends one position command. Fire-and-forget: the matching
	// acknowledgment arrives on Acks.
	Move(cmd Command) error

	// DisableTorque drops torque on all joints.
	DisableTorque() error

	// Acks streams acknowledgments. The channel is closed on Close.
	Acks() <-chan Ack

	// Close releases the transport. Idempotent.
	Close() error
}
