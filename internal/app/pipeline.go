package app

import (
	"time"

	"github.com/ayusman/projecto/internal/detector"
	"github.com/ayusman/projecto/internal/store"
)

// captureLoop reads camera frames, runs motion-gated hand detection, and
// publishes landmark frames to the mailbox.
//
// Pipeline logic:
//  1. Start in idle mode (low FPS)
//  2. On motion detected, switch to active mode (high FPS)
//  3. Run hand detection on active frames
//  4. Publish every detection result; the mailbox keeps only the freshest
//  5. After 2s without motion, switch back to idle mode
func (a *App) captureLoop(stopCh <-chan struct{}) {
	defer a.wg.Done()

	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(a.config.IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				a.log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(a.config.ActiveFPS)
					frameInterval = time.Second / time.Duration(a.config.ActiveFPS)
					ticker.Reset(frameInterval)
					a.log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > MotionIdleMs*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(a.config.IdleFPS)
					frameInterval = time.Second / time.Duration(a.config.IdleFPS)
					ticker.Reset(frameInterval)
					a.log.Println("Switched to idle mode")
				}
			}

			if !activeMode {
				frame.Close()
				// An empty frame lets the classifier count the gap.
				a.mailbox.Publish(detector.Frame{Time: time.Now()})
				continue
			}

			hands, err := a.Detector().Detect(frame)
			frame.Close()
			if err != nil {
				a.log.Printf("Error detecting hands: %v", err)
				continue
			}

			a.mailbox.Publish(detector.Frame{Time: time.Now(), Hands: hands})
		}
	}
}

// decisionLoop drains the mailbox, classifies each frame, and feeds the
// stage controller. It never blocks the capture loop: a slow decision
// simply means intermediate frames are skipped.
func (a *App) decisionLoop(stopCh <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case <-a.mailbox.Ready():
			frame, ok := a.mailbox.Take()
			if !ok {
				continue
			}
			if a.IsPaused() {
				continue
			}

			if ev := a.class.Process(frame); ev != nil {
				a.log.Printf("Gesture: %s (confidence %.2f)", ev.Type, ev.Confidence)
				a.journal(store.EventGesture, string(ev.Type))
				if a.stage != nil {
					a.stage.HandleGesture(ev)
				}
			}

			// Hand position feeds free tracking; the stage controller
			// ignores it outside that subsystem.
			if a.stage != nil {
				if best := frame.Best(); best != nil {
					tip := best.Points[detector.IndexTip]
					a.stage.Track(tip.X, tip.Y)
				}
			}
		}
	}
}
