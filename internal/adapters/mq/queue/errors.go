package queue

import "errors"

// Reasons a request is refused.
var (
	ErrQueueFull   = errors.New("enrollment queue full")
	ErrQueueClosed = errors.New("enrollment queue closed")
)
