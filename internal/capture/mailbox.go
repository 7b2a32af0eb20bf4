package capture

import (
	"sync"

	"github.com/ayusman/projecto/internal/detector"
)

// Mailbox is a single-slot buffer between the capture goroutine and the
// decision loop. The producer publishes every detection result; the
// consumer always sees the newest frame and never blocks the producer.
// A slow consumer drops intermediate frames rather than building a queue,
// which keeps gesture latency bounded at one frame.
type Mailbox struct {
	mu     sync.Mutex
	frame  detector.Frame
	filled bool
	notify chan struct{}
}

// NewMailbox creates an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		notify: make(chan struct{}, 1),
	}
}

// Publish stores frame as the current value, replacing any unconsumed
// frame, and signals the consumer. Never blocks.
func (m *Mailbox) Publish(frame detector.Frame) {
	m.mu.Lock()
	m.frame = frame
	m.filled = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take removes and returns the current frame. The second return value is
// false when no frame has been published since the last Take.
func (m *Mailbox) Take() (detector.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.filled {
		return detector.Frame{}, false
	}
	frame := m.frame
	m.filled = false
	return frame, true
}

// Ready returns a channel that receives a signal when a new frame is
// available. The signal is coalesced: several publishes may produce a
// single signal, so consumers must loop on Take after waking.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.notify
}
