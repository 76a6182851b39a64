package camera

import "errors"

// Sentinel kinds for camera errors.
var (
	ErrInvalidSource = errors.New("invalid camera source")
	ErrClosed        = errors.New("camera source closed")
)
