// Package config holds the pinchmix configuration: compiled-in defaults,
// an optional YAML file, PINCHMIX_* environment overrides and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/pinchmix/internal/session"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PINCHMIX_"

// Mixer backends.
const (
	MixerPulse = "pulse"
	MixerMock  = "mock"
)

// Display modes.
const (
	DisplayWindow   = "window"
	DisplayHeadless = "headless"
)

// Config is the top-level configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera" envPrefix:"CAMERA_"`
	Detector DetectorConfig `yaml:"detector" envPrefix:"DETECTOR_"`
	Gesture  GestureConfig  `yaml:"gesture" envPrefix:"GESTURE_"`
	Sessions SessionsConfig `yaml:"sessions" envPrefix:"SESSIONS_"`
	Mixer    MixerConfig    `yaml:"mixer" envPrefix:"MIXER_"`
	Display  DisplayConfig  `yaml:"display" envPrefix:"DISPLAY_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Journal  JournalConfig  `yaml:"journal" envPrefix:"JOURNAL_"`
	Tray     TrayConfig     `yaml:"tray" envPrefix:"TRAY_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
}

type CameraConfig struct {
	Device int `yaml:"device" env:"DEVICE"`
	Width  int `yaml:"width" env:"WIDTH"`
	Height int `yaml:"height" env:"HEIGHT"`
	FPS    int `yaml:"fps" env:"FPS"`
}

type DetectorConfig struct {
	Python                 string  `yaml:"python,omitempty" env:"PYTHON"`
	Script                 string  `yaml:"script,omitempty" env:"SCRIPT"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence" env:"MIN_DETECTION_CONFIDENCE"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence" env:"MIN_TRACKING_CONFIDENCE"`
	StaticImageMode        bool    `yaml:"static_image_mode" env:"STATIC_IMAGE_MODE"`
}

type GestureConfig struct {
	// MaxRelativeDistance is the tip gap, in hand sizes, treated as fully open.
	MaxRelativeDistance float64 `yaml:"max_relative_distance" env:"MAX_RELATIVE_DISTANCE"`
}

type SessionsConfig struct {
	Allow []string `yaml:"allow" env:"ALLOW" envSeparator:","`
	Deny  []string `yaml:"deny" env:"DENY" envSeparator:","`
}

type MixerConfig struct {
	Backend   string `yaml:"backend" env:"BACKEND"`
	Binary    string `yaml:"binary,omitempty" env:"BINARY"`
	TimeoutMS int    `yaml:"timeout_ms" env:"TIMEOUT_MS"`
}

type DisplayConfig struct {
	Mode  string `yaml:"mode" env:"MODE"`
	Title string `yaml:"title" env:"TITLE"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns a fully-populated Config. With no file and no environment
// overrides the program behaves exactly as configured here.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			Device: 0,
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Detector: DetectorConfig{
			MinDetectionConfidence: 0.7,
			MinTrackingConfidence:  0.7,
		},
		Gesture: GestureConfig{
			MaxRelativeDistance: 1.5,
		},
		Sessions: SessionsConfig{
			Allow: append([]string(nil), session.DefaultAllow...),
			Deny:  append([]string(nil), session.DefaultDeny...),
		},
		Mixer: MixerConfig{
			Backend:   MixerPulse,
			TimeoutMS: 2000,
		},
		Display: DisplayConfig{
			Mode:  DisplayWindow,
			Title: "Frame",
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8080",
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    "~/.pinchmix/journal.db",
		},
		Tray: TrayConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFile reads a YAML file over the defaults.
// Unknown fields are rejected so typos surface as errors.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	var trailing yaml.Node
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// ParseEnv applies PINCHMIX_* environment variables onto cfg.
// Fields without a matching variable keep their current value.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults, file, environment and flags are applied.
func (c *Config) Validate() error {
	if c.Camera.Device < 0 {
		return errors.New("camera.device must be >= 0")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return errors.New("camera.width and camera.height must be > 0")
	}
	if c.Camera.FPS <= 0 {
		return errors.New("camera.fps must be > 0")
	}

	if c.Detector.MinDetectionConfidence < 0 || c.Detector.MinDetectionConfidence > 1 {
		return errors.New("detector.min_detection_confidence must be between 0 and 1")
	}
	if c.Detector.MinTrackingConfidence < 0 || c.Detector.MinTrackingConfidence > 1 {
		return errors.New("detector.min_tracking_confidence must be between 0 and 1")
	}

	if c.Gesture.MaxRelativeDistance <= 0 {
		return errors.New("gesture.max_relative_distance must be > 0")
	}

	switch c.Mixer.Backend {
	case MixerPulse, MixerMock:
	default:
		return fmt.Errorf("mixer.backend must be %q or %q", MixerPulse, MixerMock)
	}
	if c.Mixer.TimeoutMS <= 0 {
		return errors.New("mixer.timeout_ms must be > 0")
	}

	switch c.Display.Mode {
	case DisplayWindow, DisplayHeadless:
	default:
		return fmt.Errorf("display.mode must be %q or %q", DisplayWindow, DisplayHeadless)
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return errors.New("server.enabled is true but server.addr is empty")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.enabled is true but journal.path is empty")
	}

	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ParseLogLevel converts error|warn|info|debug into a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be error, warn, info, or debug)", level)
	}
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
