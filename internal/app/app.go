// Package app wires the exhibit pipeline: camera capture, hand
// detection, gesture classification, and the stage controller.
package app

import (
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/projecto/internal/capture"
	"github.com/ayusman/projecto/internal/classifier"
	"github.com/ayusman/projecto/internal/detector"
	"github.com/ayusman/projecto/internal/stage"
	"github.com/ayusman/projecto/internal/store"
)

// Pipeline timing defaults.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// MotionIdleMs is how long without motion before dropping back to idle FPS.
	MotionIdleMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	Stage        *stage.Controller
	Classifier   classifier.Config
	CameraID     int
	MotionThresh float64
	IdleFPS      int
	ActiveFPS    int
}

// App owns the capture and decision goroutines. Frames flow from the
// camera through the detector into a single-slot mailbox; the decision
// loop classifies the freshest frame and feeds the stage controller.
type App struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	mailbox  *capture.Mailbox
	class    *classifier.Classifier
	stage    *stage.Controller
	log      *log.Logger

	paused bool
	mu     sync.RWMutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates an App. The detector defaults to MediaPipe when available
// and falls back to the mock detector otherwise.
func New(config Config, logger *log.Logger) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // 1% pixel change
	}
	if config.IdleFPS <= 0 {
		config.IdleFPS = IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = ActiveFPS
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionDetector(motionThreshold),
		mailbox: capture.NewMailbox(),
		class:   classifier.New(config.Classifier),
		stage:   config.Stage,
		log:     logger,
	}

	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		logger.Println("Using MediaPipe hand detection")
	} else {
		logger.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	if config.Stage != nil && config.Store != nil {
		config.Stage.Subscribe(a)
	}

	return a
}

// SetPaused pauses or resumes visitor detection. While paused, frames
// are still captured for the preview stream but never classified.
func (a *App) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
	if paused {
		a.class.Reset()
	}
}

// IsPaused returns whether visitor detection is paused.
func (a *App) IsPaused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Start begins the capture and decision goroutines.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.IdleFPS)

	a.stopCh = make(chan struct{})
	a.wg.Add(2)
	go a.captureLoop(a.stopCh)
	go a.decisionLoop(a.stopCh)

	a.log.Println("Pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	a.mu.Unlock()

	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		a.log.Printf("Error closing camera: %v", err)
	}
	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.log.Printf("Error closing detector: %v", err)
		}
	}

	a.log.Println("Pipeline stopped")
}

// StageChanged journals stage transitions; implements stage.Notifier.
func (a *App) StageChanged(old, next stage.State) {
	a.journal(store.EventStageChange, fmt.Sprintf("%s->%s", old, next))
}

// ActionFeedback implements stage.Notifier.
func (a *App) ActionFeedback(action string) {
	a.journal(store.EventGesture, "feedback: "+action)
}

func (a *App) journal(kind, detail string) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Events().Append(&store.Event{Kind: kind, Detail: detail}); err != nil {
		a.log.Printf("Failed to journal %s event: %v", kind, err)
	}
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
