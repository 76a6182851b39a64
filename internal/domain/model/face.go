// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"image"
	"time"
)

// BoundingBox is a face rectangle normalized to the frame size, origin top-left.
// Values are trusted as the detector produced them and may fall outside [0,1].
type BoundingBox struct {
	XMin   float64 `json:"xmin"`
	YMin   float64 `json:"ymin"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[x=%.3f y=%.3f w=%.3f h=%.3f]", b.XMin, b.YMin, b.Width, b.Height)
}

// Identity is an enrolled person. The reference box stands in for recognition.
type Identity struct {
	ID   int         `json:"id"`
	Name string      `json:"name"`
	Age  string      `json:"age"`
	Box  BoundingBox `json:"bbox"`
}

// Label renders the overlay text shown next to a recognised face.
func (i Identity) Label() string {
	return fmt.Sprintf("%s, %s tuổi", i.Name, i.Age)
}

// Frame is one image pulled from the camera.
type Frame struct {
	Index      int
	Image      image.Image
	CapturedAt time.Time
}

// Detection is a single face reported by the detector for a frame.
type Detection struct {
	Box        BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
}

// DetectionEvent is produced per detected face per processed frame. Not persisted.
type DetectionEvent struct {
	FrameIndex int
	Box        BoundingBox
	Confidence float64
	Face       image.Image // cropped region, may be nil when the box is outside the frame
	Timestamp  time.Time
}

// EnrollmentRequest asks the operator to name an unknown face.
type EnrollmentRequest struct {
	ID          string
	Box         BoundingBox
	Face        image.Image
	RequestedAt time.Time
}

// Answer is what the operator typed into the enrollment form.
type Answer struct {
	Name string
	Age  string
}
