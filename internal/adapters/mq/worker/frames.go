package worker

import (
	"sync"

	"github.com/okian/kiosk/internal/domain/model"
)

// FrameBuffer holds the most recent camera frame.
type FrameBuffer struct {
	mu    sync.RWMutex
	frame model.Frame
	ok    bool
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Store replaces the latest frame.
func (b *FrameBuffer) Store(f model.Frame) {
	b.mu.Lock()
	b.frame, b.ok = f, true
	b.mu.Unlock()
}

// Latest returns the latest frame and whether one was stored.
func (b *FrameBuffer) Latest() (model.Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame, b.ok
}
