// Command projecto runs the interactive exhibit daemon: camera capture,
// gesture classification, the stage state machine, the motion planner,
// and the safety supervisor in front of the robot arm.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ayusman/projecto/internal/app"
	"github.com/ayusman/projecto/internal/classifier"
	"github.com/ayusman/projecto/internal/config"
	"github.com/ayusman/projecto/internal/driver"
	"github.com/ayusman/projecto/internal/motion"
	"github.com/ayusman/projecto/internal/plugin"
	"github.com/ayusman/projecto/internal/safety"
	"github.com/ayusman/projecto/internal/server"
	"github.com/ayusman/projecto/internal/stage"
	"github.com/ayusman/projecto/internal/store"
	"github.com/ayusman/projecto/internal/tray"
)

func main() {
	var (
		configPath = pflag.String("config", "projecto.toml", "path to the configuration file")
		mockRobot  = pflag.Bool("mock", false, "use a mock robot driver instead of the serial bus")
		headless   = pflag.Bool("headless", false, "run without the system tray")
	)
	pflag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	if err := run(logger, *configPath, *mockRobot, *headless); err != nil {
		logger.Fatalf("projecto: %v", err)
	}
}

func run(logger *log.Logger, configPath string, mockRobot, headless bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage.
	dbPath, err := resolveDataPath(cfg.Data.Path)
	if err != nil {
		return err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Poses().EnsureDefaults(motion.DefaultTable(), safety.DefaultLimits()); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	table, err := st.Poses().LoadTable()
	if err != nil {
		return fmt.Errorf("load poses: %w", err)
	}
	limits, err := st.Poses().LoadLimits()
	if err != nil {
		return fmt.Errorf("load limits: %w", err)
	}

	// Robot transport.
	var drv driver.Driver
	if mockRobot {
		logger.Println("Using mock robot driver")
		drv = driver.NewMockDriver()
	} else {
		port, err := driver.OpenSerialPort(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return fmt.Errorf("open serial port %s: %w", cfg.Serial.Device, err)
		}
		drv = driver.NewSerialDriver(port, logger)
	}

	rest, err := table.Lookup(motion.PoseRest)
	if err != nil {
		return fmt.Errorf("rest pose: %w", err)
	}

	// Safety supervisor and planner.
	sup := safety.New(safety.Config{
		Policy:         safety.Policy(cfg.Safety.Policy),
		AckTimeout:     time.Duration(cfg.Safety.AckTimeoutMS) * time.Millisecond,
		WatchInterval:  time.Duration(cfg.Safety.WatchIntervalMS) * time.Millisecond,
		ConnectTimeout: time.Duration(cfg.Safety.ConnectTimeoutMS) * time.Millisecond,
	}, limits, drv, rest, logger)
	defer sup.Protect()

	planner := motion.NewPlanner(motion.Config{
		TickInterval: time.Duration(cfg.Motion.TickMS) * time.Millisecond,
		MaxStep:      cfg.Motion.MaxStep,
		NodDelta:     cfg.Motion.NodDelta,
		NodRepeat:    cfg.Motion.NodRepeat,
		PanGain:      motion.DefaultConfig().PanGain,
		LiftGain:     motion.DefaultConfig().LiftGain,
	}, table, sup, logger)
	planner.SetCurrent(rest)

	// Subsystem plugins.
	pluginMgr := plugin.NewManager(cfg.Plugins.Dir)
	if err := pluginMgr.Discover(); err != nil {
		logger.Printf("Plugin discovery failed: %v", err)
	}
	host := plugin.NewHost(pluginMgr, plugin.NewExecutor(5000), logger)

	// Stage controller.
	controller := stage.New(stage.Config{
		IdleTimeout:   cfg.IdleTimeout(),
		MinConfidence: cfg.Stage.MinConfidence,
	}, planner, host, logger)
	sup.OnFault(controller.HandleFault)

	// Capture and decision pipeline.
	classifierCfg := classifier.DefaultConfig()
	classifierCfg.OKDistance = cfg.Gesture.OKDistance
	classifierCfg.WaveAmplitude = cfg.Gesture.WaveAmplitude
	classifierCfg.TapDistance = cfg.Gesture.TapDistance
	classifierCfg.PressStability = cfg.Gesture.PressStability
	classifierCfg.PressDuration = time.Duration(cfg.Gesture.PressDurationMS) * time.Millisecond
	classifierCfg.MinHandScore = cfg.Camera.MinConfidence

	pipeline := app.New(app.Config{
		Store:        st,
		Stage:        controller,
		Classifier:   classifierCfg,
		CameraID:     cfg.Camera.Device,
		MotionThresh: cfg.Camera.MotionThreshold,
		IdleFPS:      cfg.Camera.IdleFPS,
		ActiveFPS:    cfg.Camera.ActiveFPS,
	}, logger)

	// Operator HTTP surface.
	srv := server.New(server.Config{
		StaticDir:  findWebDir(),
		Store:      st,
		Camera:     pipeline.Camera(),
		Stage:      controller,
		Supervisor: sup,
	})
	controller.Subscribe(srv.Events())

	// Bring everything up.
	if err := sup.Connect(ctx); err != nil {
		return fmt.Errorf("connect robot: %w", err)
	}
	defer sup.Disconnect()

	planner.Run()
	defer planner.Stop()

	if err := pipeline.Start(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer pipeline.Stop()

	go func() {
		logger.Printf("Operator panel on http://%s", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server: %v", err)
			stop()
		}
	}()

	if headless {
		<-ctx.Done()
		logger.Println("Shutting down")
		return nil
	}

	// The tray owns the main thread; ctx cancellation tears it down.
	tr := tray.New()
	tr.OnPause(pipeline.SetPaused)
	tr.OnStop(func() {
		sup.EmergencyStop()
		controller.HandleFault()
	})
	tr.OnPanel(func() {
		logger.Printf("Operator panel: http://%s", cfg.Server.Addr)
	})
	tr.OnQuit(stop)
	controller.Subscribe(tr)

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()

	tr.Run()
	logger.Println("Shutting down")
	return nil
}

// resolveDataPath places a relative database path under ~/.projecto.
func resolveDataPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".projecto")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dataDir, path), nil
}

// findWebDir searches for the operator panel assets in common locations.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".projecto", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
