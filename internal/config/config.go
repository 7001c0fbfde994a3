package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SourceID identifies the video source: a camera device index ("0", "1", ...)
// or a path to a video file. JSON config files may give it as a number or a
// string; both are accepted.
type SourceID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (s *SourceID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = SourceID(strconv.Itoa(n))
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("camera_index must be a number or a string: %w", err)
	}
	*s = SourceID(str)
	return nil
}

// DeviceIndex returns the numeric device index and true when the source
// identifies a camera device rather than a video file.
func (s SourceID) DeviceIndex() (int, bool) {
	n, err := strconv.Atoi(string(s))
	return n, err == nil
}

// Config is the effective service configuration. It is immutable once the
// service is running; the JSON tags match the document embedded in /status
// responses.
type Config struct {
	CameraSource   SourceID `json:"camera_index"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	CaptureFPS     int      `json:"fps"`
	PersistFPS     int      `json:"frame_fps"`
	FrameDir       string   `json:"frame_dir"`
	JPEGQuality    int      `json:"quality"`
	Port           int      `json:"http_port"`
	LogDirectory   string   `json:"log_dir"`
	ReconcileEvery int      `json:"reconcile_every"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		CameraSource:   "0",
		Width:          1280,
		Height:         720,
		CaptureFPS:     10,
		PersistFPS:     5,
		FrameDir:       "/tmp/webcam",
		JPEGQuality:    90,
		Port:           8086,
		LogDirectory:   filepath.Join(".", "logs"),
		ReconcileEvery: 50,
	}
}

// Load resolves the configuration: defaults, then the optional JSON file at
// path, then environment variables. Command-line flags are applied by the
// caller on top of the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays fields present in the JSON file onto the config.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.CameraSource = SourceID(getEnv("CAMERA_INDEX", string(c.CameraSource)))
	c.Width = getEnvAsInt("WIDTH", c.Width)
	c.Height = getEnvAsInt("HEIGHT", c.Height)
	c.CaptureFPS = getEnvAsInt("FPS", c.CaptureFPS)
	c.PersistFPS = getEnvAsInt("FRAME_FPS", c.PersistFPS)
	c.FrameDir = getEnv("FRAME_DIR", c.FrameDir)
	c.JPEGQuality = getEnvAsInt("QUALITY", c.JPEGQuality)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.ReconcileEvery = getEnvAsInt("RECONCILE_EVERY", c.ReconcileEvery)
}

// Validate rejects configurations the capture loop cannot run with.
// Persist rate above capture rate is allowed: persistence then simply fires
// on every captured frame.
func (c *Config) Validate() error {
	if c.CameraSource == "" {
		return fmt.Errorf("camera_index must not be empty")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.CaptureFPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.CaptureFPS)
	}
	if c.PersistFPS <= 0 {
		return fmt.Errorf("frame_fps must be positive, got %d", c.PersistFPS)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("quality must be in 1..100, got %d", c.JPEGQuality)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid http_port %d", c.Port)
	}
	if c.FrameDir == "" {
		return fmt.Errorf("frame_dir must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
