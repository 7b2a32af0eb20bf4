package driver

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// MockSerialPort is an in-memory SerialPorter. The test feeds controller
// frames with FeedLine and inspects host frames with WrittenLines.
type MockSerialPort struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

// NewMockSerialPort creates a mock port with nothing to read yet.
func NewMockSerialPort() *MockSerialPort {
	pr, pw := io.Pipe()
	return &MockSerialPort{pr: pr, pw: pw}
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	return m.pr.Read(p)
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.written.Write(p)
}

// Close unblocks any pending Read with io.EOF. Idempotent.
func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.pw.Close()
	return m.pr.Close()
}

// FeedLine makes line (newline appended) available to the next Read.
// Blocks until the driver's read loop consumes it.
func (m *MockSerialPort) FeedLine(line string) error {
	_, err := m.pw.Write([]byte(line + "\n"))
	return err
}

// WrittenLines returns every newline-delimited frame the driver wrote.
func (m *MockSerialPort) WrittenLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(m.written.Bytes()))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// MockDriver is a Driver that records commands and, by default,
// acknowledges every move immediately with the commanded positions.
type MockDriver struct {
	mu         sync.Mutex
	connected  bool
	commands   []Command
	detorques  int
	autoAck    bool
	connectErr error
	moveErr    error

	acks chan Ack
}

// NewMockDriver creates a MockDriver with auto-acknowledgment enabled.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		autoAck: true,
		acks:    make(chan Ack, 64),
	}
}

// SetAutoAck toggles immediate acknowledgment of moves. Disable it to
// exercise ack-timeout paths.
func (m *MockDriver) SetAutoAck(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAck = on
}

// SetConnectError makes Connect fail.
func (m *MockDriver) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SetMoveError makes Move fail.
func (m *MockDriver) SetMoveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moveErr = err
}

// EmitAck injects an acknowledgment, as if the controller reported pos.
func (m *MockDriver) EmitAck(pos map[string]int) {
	m.acks <- Ack{Positions: pos, At: time.Now()}
}

// Commands returns a copy of every Move command received.
func (m *MockDriver) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.commands))
	copy(out, m.commands)
	return out
}

// Detorques returns how many times DisableTorque was called.
func (m *MockDriver) Detorques() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detorques
}

// Connected reports whether Connect succeeded and Close was not called.
func (m *MockDriver) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockDriver) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *MockDriver) Move(cmd Command) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	if m.moveErr != nil {
		err := m.moveErr
		m.mu.Unlock()
		return err
	}
	m.commands = append(m.commands, cmd)
	auto := m.autoAck
	m.mu.Unlock()

	if auto {
		m.EmitAck(cmd.Positions)
	}
	return nil
}

func (m *MockDriver) DisableTorque() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	m.detorques++
	return nil
}

func (m *MockDriver) Acks() <-chan Ack {
	return m.acks
}

func (m *MockDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}
