// Package config defines kiosk configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers an optional YAML file and KIOSK_* env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// OpsAddr configures the ops HTTP listen address. Empty disables it.
	OpsAddr string `koanf:"ops_addr"`

	// IdentityPath is the JSON identity sink.
	IdentityPath string `koanf:"identity_path"`

	// ImageDir and ImageExt control where enrolled face crops are written.
	ImageDir string `koanf:"image_dir"`
	ImageExt string `koanf:"image_ext"`

	// OvertimePath is the append-only overtime report.
	OvertimePath string `koanf:"overtime_path"`

	// Working window. Minutes are accepted and validated but the policy
	// compares whole hours only.
	WorkStartHour   int `koanf:"work_start_hour"`
	WorkStartMinute int `koanf:"work_start_minute"`
	WorkEndHour     int `koanf:"work_end_hour"`
	WorkEndMinute   int `koanf:"work_end_minute"`

	// FrameIntervalMS paces the capture loop.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// MinConfidence drops weaker detections.
	MinConfidence float64 `koanf:"min_confidence"`

	// EnrollmentQueueSize bounds the pending enrollment queue.
	EnrollmentQueueSize int `koanf:"enrollment_queue_size"`

	// CooldownMS suppresses repeated decisions for the same identity.
	CooldownMS int `koanf:"cooldown_ms"`

	// CameraSource is a camera spec: dir:<path>, mjpeg:<path|->, ffmpeg:<device>.
	CameraSource string `koanf:"camera_source"`

	// CameraLoop replays a directory source once exhausted.
	CameraLoop bool `koanf:"camera_loop"`

	// DetectionsPath points at recorded detections for the replay detector.
	DetectionsPath string `koanf:"detections_path"`

	// NotifyURLs is a comma separated list of shoutrrr service URLs.
	NotifyURLs string `koanf:"notify_urls"`

	// PreviewSize is the edge in pixels of the enrollment preview thumbnail.
	PreviewSize int `koanf:"preview_size"`

	// PromptAttempts caps how often the operator is asked again after invalid input.
	PromptAttempts int `koanf:"prompt_attempts"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		OpsAddr:             "127.0.0.1:9080",
		IdentityPath:        "./face_info.json",
		ImageDir:            "./imgs",
		ImageExt:            "jpg",
		OvertimePath:        "./overtime_log.txt",
		WorkStartHour:       8,
		WorkEndHour:         18,
		FrameIntervalMS:     5,
		MinConfidence:       0.5,
		EnrollmentQueueSize: 32,
		CooldownMS:          10_000,
		CameraSource:        "dir:./frames",
		DetectionsPath:      "./detections.json",
		PreviewSize:         150,
		PromptAttempts:      3,
	}
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.IdentityPath) == "":
		return fmt.Errorf("%w: identity_path must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ImageDir) == "":
		return fmt.Errorf("%w: image_dir must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OvertimePath) == "":
		return fmt.Errorf("%w: overtime_path must not be empty", ErrInvalidConfig)
	case c.WorkStartHour < 0 || c.WorkStartHour > 23 || c.WorkEndHour < 0 || c.WorkEndHour > 23:
		return fmt.Errorf("%w: work hours must be within 0..23", ErrInvalidConfig)
	case c.WorkStartMinute < 0 || c.WorkStartMinute > 59 || c.WorkEndMinute < 0 || c.WorkEndMinute > 59:
		return fmt.Errorf("%w: work minutes must be within 0..59", ErrInvalidConfig)
	case c.FrameIntervalMS < 0:
		return fmt.Errorf("%w: frame_interval_ms must not be negative", ErrInvalidConfig)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("%w: min_confidence must be within 0..1", ErrInvalidConfig)
	case c.EnrollmentQueueSize <= 0:
		return fmt.Errorf("%w: enrollment_queue_size must be positive", ErrInvalidConfig)
	case c.CooldownMS < 0:
		return fmt.Errorf("%w: cooldown_ms must not be negative", ErrInvalidConfig)
	case c.PreviewSize <= 0:
		return fmt.Errorf("%w: preview_size must be positive", ErrInvalidConfig)
	case c.PromptAttempts <= 0:
		return fmt.Errorf("%w: prompt_attempts must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.ImageExt) {
	case "jpg", "jpeg", "png", "bmp":
	default:
		return fmt.Errorf("%w: unsupported image_ext %q", ErrInvalidConfig, c.ImageExt)
	}
	return nil
}

// FrameInterval returns FrameIntervalMS as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// Cooldown returns CooldownMS as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}

// NotifyTargets splits NotifyURLs into trimmed, non-empty entries.
func (c *Config) NotifyTargets() []string {
	var out []string
	for _, u := range strings.Split(c.NotifyURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
