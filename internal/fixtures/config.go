// Package fixtures generates synthetic camera scenes for headless runs: a
// directory of JPEG frames, the detections a face detector would report
// for them, and a manifest naming the people in the scene.
package fixtures

import (
	"errors"
	"fmt"
)

// Defaults for Config.
const (
	DefaultFrames = 12
	DefaultWidth  = 320
	DefaultHeight = 240
	DefaultPeople = 2
	maxPeople     = 9
)

// ErrInvalidConfig is returned for unusable scene settings.
var ErrInvalidConfig = errors.New("invalid scene config")

// Config controls scene generation.
type Config struct {
	Dir    string // output directory
	Frames int    // number of frames
	Width  int    // frame width in pixels
	Height int    // frame height in pixels
	People int    // people in the scene, at most 9
	Seed   uint64 // same seed, same scene
}

// Validate checks the config and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("%w: empty output dir", ErrInvalidConfig)
	}
	if c.Frames == 0 {
		c.Frames = DefaultFrames
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.People == 0 {
		c.People = DefaultPeople
	}
	switch {
	case c.Frames < 0:
		return fmt.Errorf("%w: frames must be positive", ErrInvalidConfig)
	case c.Width < 32 || c.Height < 32:
		return fmt.Errorf("%w: frames must be at least 32x32", ErrInvalidConfig)
	case c.People < 0 || c.People > maxPeople:
		return fmt.Errorf("%w: people must be within 1..%d", ErrInvalidConfig, maxPeople)
	}
	return nil
}
