package capture

import (
	"testing"
	"time"

	"github.com/ayusman/projecto/internal/detector"
)

func TestMailbox(t *testing.T) {
	t.Run("empty mailbox yields nothing", func(t *testing.T) {
		mb := NewMailbox()

		_, ok := mb.Take()
		if ok {
			t.Error("expected no frame from empty mailbox")
		}
	})

	t.Run("latest frame wins", func(t *testing.T) {
		mb := NewMailbox()

		first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		second := first.Add(66 * time.Millisecond)

		mb.Publish(detector.Frame{Time: first})
		mb.Publish(detector.Frame{Time: second})

		frame, ok := mb.Take()
		if !ok {
			t.Fatal("expected a frame")
		}
		if !frame.Time.Equal(second) {
			t.Errorf("expected newest frame %v, got %v", second, frame.Time)
		}

		// The overwritten frame is gone.
		if _, ok := mb.Take(); ok {
			t.Error("expected mailbox to be empty after Take")
		}
	})

	t.Run("publish never blocks without a consumer", func(t *testing.T) {
		mb := NewMailbox()

		done := make(chan struct{})
		go func() {
			for i := 0; i < 1000; i++ {
				mb.Publish(detector.Frame{Time: time.Now()})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked")
		}
	})

	t.Run("ready signal wakes the consumer", func(t *testing.T) {
		mb := NewMailbox()

		mb.Publish(detector.Frame{Time: time.Now()})

		select {
		case <-mb.Ready():
		case <-time.After(time.Second):
			t.Fatal("no ready signal after publish")
		}

		if _, ok := mb.Take(); !ok {
			t.Error("expected a frame after ready signal")
		}
	})
}
