// Package config loads the daemon configuration from a TOML file, filling
// unset fields from compiled-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full daemon configuration.
type Config struct {
	Camera  CameraConfig  `toml:"camera"`
	Gesture GestureConfig `toml:"gesture"`
	Stage   StageConfig   `toml:"stage"`
	Motion  MotionConfig  `toml:"motion"`
	Safety  SafetyConfig  `toml:"safety"`
	Serial  SerialConfig  `toml:"serial"`
	Server  ServerConfig  `toml:"server"`
	Plugins PluginsConfig `toml:"plugins"`
	Data    DataConfig    `toml:"data"`
}

// CameraConfig controls capture and detection.
type CameraConfig struct {
	Device          int     `toml:"device"`
	IdleFPS         int     `toml:"idle_fps"`
	ActiveFPS       int     `toml:"active_fps"`
	MotionThreshold float64 `toml:"motion_threshold"`
	MaxHands        int     `toml:"max_hands"`
	MinConfidence   float64 `toml:"min_confidence"`
}

// GestureConfig exposes the operator-tunable classifier thresholds.
// Distances are normalized screen units, durations are milliseconds.
type GestureConfig struct {
	OKDistance      float64 `toml:"ok_distance"`
	WaveAmplitude   float64 `toml:"wave_amplitude"`
	TapDistance     float64 `toml:"tap_distance"`
	PressStability  float64 `toml:"press_stability"`
	PressDurationMS int     `toml:"press_duration_ms"`
}

// StageConfig controls the interaction state machine.
type StageConfig struct {
	IdleTimeoutS  int     `toml:"idle_timeout_s"`
	MinConfidence float64 `toml:"min_confidence"`
}

// MotionConfig controls the planner's motion profile.
type MotionConfig struct {
	TickMS    int `toml:"tick_ms"`
	MaxStep   int `toml:"max_step"`
	NodDelta  int `toml:"nod_delta"`
	NodRepeat int `toml:"nod_repeat"`
}

// SafetyConfig controls the supervisor.
type SafetyConfig struct {
	// Policy is "reject" or "clamp".
	Policy           string `toml:"policy"`
	AckTimeoutMS     int    `toml:"ack_timeout_ms"`
	WatchIntervalMS  int    `toml:"watch_interval_ms"`
	ConnectTimeoutMS int    `toml:"connect_timeout_ms"`
}

// SerialConfig names the actuator bus.
type SerialConfig struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

// ServerConfig controls the operator HTTP surface.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// PluginsConfig locates subsystem plugins.
type PluginsConfig struct {
	Dir string `toml:"dir"`
}

// DataConfig locates the SQLite database.
type DataConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration the exhibit ships with.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Device:          0,
			IdleFPS:         5,
			ActiveFPS:       15,
			MotionThreshold: 1.0,
			MaxHands:        2,
			MinConfidence:   0.7,
		},
		Gesture: GestureConfig{
			OKDistance:      0.10,
			WaveAmplitude:   0.25,
			TapDistance:     0.05,
			PressStability:  0.02,
			PressDurationMS: 1500,
		},
		Stage: StageConfig{
			IdleTimeoutS:  30,
			MinConfidence: 0.5,
		},
		Motion: MotionConfig{
			TickMS:    60,
			MaxStep:   150,
			NodDelta:  200,
			NodRepeat: 2,
		},
		Safety: SafetyConfig{
			Policy:           "reject",
			AckTimeoutMS:     2000,
			WatchIntervalMS:  500,
			ConnectTimeoutMS: 5000,
		},
		Serial: SerialConfig{
			Device: "/dev/ttyACM0",
			Baud:   1000000,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8931",
		},
		Plugins: PluginsConfig{
			Dir: "plugins",
		},
		Data: DataConfig{
			Path: "projecto.db",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Camera.IdleFPS <= 0 || c.Camera.ActiveFPS <= 0 {
		return fmt.Errorf("camera fps must be positive")
	}
	if c.Camera.MinConfidence < 0 || c.Camera.MinConfidence > 1 {
		return fmt.Errorf("camera min_confidence must be in [0,1]")
	}
	if c.Gesture.OKDistance <= 0 || c.Gesture.TapDistance <= 0 {
		return fmt.Errorf("gesture distances must be positive")
	}
	if c.Stage.IdleTimeoutS <= 0 {
		return fmt.Errorf("stage idle_timeout_s must be positive")
	}
	if c.Motion.TickMS <= 0 || c.Motion.MaxStep <= 0 {
		return fmt.Errorf("motion tick_ms and max_step must be positive")
	}
	switch c.Safety.Policy {
	case "reject", "clamp":
	default:
		return fmt.Errorf("safety policy must be reject or clamp, got %q", c.Safety.Policy)
	}
	if c.Safety.AckTimeoutMS <= 0 {
		return fmt.Errorf("safety ack_timeout_ms must be positive")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial baud must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	return nil
}

// IdleTimeout returns the stage idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Stage.IdleTimeoutS) * time.Second
}
