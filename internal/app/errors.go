package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrMissingDependency = errors.New("missing dependency")
	ErrCaptureRunning    = errors.New("capture already running")
	ErrCaptureStopped    = errors.New("capture not running")
	ErrNoFrame           = errors.New("no frame captured yet")
)
