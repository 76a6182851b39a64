package repository

import "errors"

// Sentinel kinds for identity store errors.
var (
	ErrCorruptSink       = errors.New("identity sink is corrupt")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
