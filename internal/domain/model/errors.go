package model

import "errors"

// Error kinds shared by every layer. Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrValidation marks missing or out-of-range operator input. Nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks a sink that could not be written. The triggering change is not committed.
	ErrPersistence = errors.New("persistence failed")
	// ErrDetectionUnavailable marks a camera read failure that ends the capture loop.
	ErrDetectionUnavailable = errors.New("detection unavailable")
)

// ErrCancelled marks an operator who dismissed the enrollment form. The face is skipped.
var ErrCancelled = errors.New("cancelled by operator")
