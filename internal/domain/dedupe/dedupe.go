// Package dedupe tracks faces already waiting for enrollment so one person
// standing in front of the camera is not queued on every frame.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/kiosk/internal/domain/geometry"
	"github.com/okian/kiosk/internal/domain/model"
)

const defaultMaxSize = 256

// Deduper records pending face boxes.
type Deduper interface {
	// SeenAndRecord atomically checks if a box matching box is pending and
	// records box if not. Returns true if a match was already pending.
	SeenAndRecord(ctx context.Context, box model.BoundingBox) bool

	// Unrecord releases box once its request has been handled.
	Unrecord(ctx context.Context, box model.BoundingBox)

	Size() int
}

// inMemoryDeduper keeps pending boxes in insertion order. Lookups use
// geometry.Matches, so any box within tolerance of a pending one is a
// duplicate. When full, the oldest box is dropped.
type inMemoryDeduper struct {
	mu      sync.Mutex
	pending []model.BoundingBox
	maxSize int
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, box model.BoundingBox) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.pending {
		if geometry.Matches(p, box) {
			return true
		}
	}
	if d.maxSize > 0 && len(d.pending) >= d.maxSize {
		d.pending = d.pending[1:]
	}
	d.pending = append(d.pending, box)
	return false
}

// Unrecord drops the pending entry equal to box. Only the exact recorded
// box is released; a neighbour within tolerance stays pending.
func (d *inMemoryDeduper) Unrecord(_ context.Context, box model.BoundingBox) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, p := range d.pending {
		if p == box {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			return
		}
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
