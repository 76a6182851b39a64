// Package detector supplies face detections to the kiosk. Face detection
// itself runs outside this process; Replay serves detections recorded for a
// frame sequence.
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// ErrInvalidRecording is returned when a detections file cannot be used.
var ErrInvalidRecording = errors.New("invalid detections recording")

// Recording is the on-disk format: one list of detections per frame.
// Frame n (1-based) uses Frames[(n-1) % len(Frames)].
type Recording struct {
	Frames [][]model.Detection `json:"frames"`
}

// Replay returns recorded detections by frame index.
type Replay struct {
	rec    Recording
	logger logger.Logger
}

// NewReplay serves rec.
func NewReplay(rec Recording, opts ...Option) *Replay {
	r := &Replay{rec: rec, logger: logger.Get().Named("detector")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadReplay reads a recording from a JSON file.
func LoadReplay(path string, opts ...Option) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecording, err)
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecording, path, err)
	}
	r := NewReplay(rec, opts...)
	r.logger.Info(context.Background(), "detections loaded",
		logger.String("path", path),
		logger.Int("frames", len(rec.Frames)),
	)
	return r, nil
}

// Detect returns the detections recorded for frame.Index.
func (r *Replay) Detect(ctx context.Context, frame model.Frame) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.rec.Frames) == 0 || frame.Index < 1 {
		return nil, nil
	}
	dets := r.rec.Frames[(frame.Index-1)%len(r.rec.Frames)]
	out := make([]model.Detection, len(dets))
	copy(out, dets)
	return out, nil
}

// Save writes rec as JSON to path.
func Save(path string, rec Recording) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}
