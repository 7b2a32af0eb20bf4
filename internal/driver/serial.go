package driver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialPorter is the minimal serial port surface the driver needs.
// Satisfied by go.bug.st/serial ports and by MockSerialPort in tests.
type SerialPorter interface {
	io.ReadWriter
	Close() error
}

// OpenSerialPort opens the named device at the given baud rate.
func OpenSerialPort(device string, baud int) (SerialPorter, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return port, nil
}

// Wire frames are newline-delimited JSON in both directions.
//
//	host → controller: {"op":"hello"} | {"op":"move","positions":{...}} | {"op":"detorque"}
//	controller → host: {"op":"ready"} | {"op":"ack","positions":{...}}
type wireFrame struct {
	Op        string         `json:"op"`
	Positions map[string]int `json:"positions,omitempty"`
	Torque    map[string]int `json:"torque,omitempty"`
}

// SerialDriver implements Driver over a serial port.
type SerialDriver struct {
	port SerialPorter
	log  *log.Logger

	mu        sync.Mutex
	connected bool
	closed    bool

	acks   chan Ack
	readyC chan struct{}
	stopCh chan struct{}
}

// NewSerialDriver wraps an open port. Connect must be called before Move.
func NewSerialDriver(port SerialPorter, logger *log.Logger) *SerialDriver {
	return &SerialDriver{
		port:   port,
		log:    logger,
		acks:   make(chan Ack, 16),
		readyC: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Connect starts the reader, sends the hello frame, and waits for the
// controller's ready frame until ctx expires.
func (d *SerialDriver) Connect(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrNotConnected
	}
	if d.connected {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	go d.readLoop()

	if err := d.send(wireFrame{Op: "hello"}); err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	select {
	case <-d.readyC:
	case <-ctx.Done():
		return fmt.Errorf("%w: no ready frame: %v", ErrHandshake, ctx.Err())
	}

	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()
	return nil
}

// Move sends one position command.
func (d *SerialDriver) Move(cmd Command) error {
	d.mu.Lock()
	ok := d.connected && !d.closed
	d.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}
	return d.send(wireFrame{Op: "move", Positions: cmd.Positions, Torque: cmd.Torque})
}

// DisableTorque drops torque on all joints.
func (d *SerialDriver) DisableTorque() error {
	d.mu.Lock()
	ok := d.connected && !d.closed
	d.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}
	return d.send(wireFrame{Op: "detorque"})
}

// Acks streams acknowledgments from the controller.
func (d *SerialDriver) Acks() <-chan Ack {
	return d.acks
}

// Close stops the reader and releases the port. Idempotent.
func (d *SerialDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.connected = false
	close(d.stopCh)
	d.mu.Unlock()

	return d.port.Close()
}

func (d *SerialDriver) send(f wireFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.port.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readLoop parses controller frames until the port closes. Unparseable
// lines are logged and skipped; the bus occasionally produces garbage on
// power-up.
func (d *SerialDriver) readLoop() {
	defer close(d.acks)

	scanner := bufio.NewScanner(d.port)
	for scanner.Scan() {
		select {
		case <-d.stopCh:
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var f wireFrame
		if err := json.Unmarshal(line, &f); err != nil {
			d.log.Printf("driver: bad frame %q: %v", line, err)
			continue
		}

		switch f.Op {
		case "ready":
			select {
			case d.readyC <- struct{}{}:
			default:
			}
		case "ack":
			ack := Ack{Positions: f.Positions, At: time.Now()}
			select {
			case d.acks <- ack:
			default:
				// Consumer is behind; newest health wins, drop the oldest.
				select {
				case <-d.acks:
				default:
				}
				d.acks <- ack
			}
		default:
			d.log.Printf("driver: unknown frame op %q", f.Op)
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-d.stopCh:
		default:
			d.log.Printf("driver: read loop: %v", err)
		}
	}
}
