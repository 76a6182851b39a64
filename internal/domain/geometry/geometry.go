// Package geometry decides whether two face boxes belong to the same person
// and converts normalized boxes to pixel space.
package geometry

import (
	"image"
	"image/draw"
	"math"

	"github.com/okian/kiosk/internal/domain/model"
)

// Tolerance is the per-field distance under which two boxes are the same face.
const Tolerance = 0.1

// Matches reports whether a and b describe the same face: every field differs
// by strictly less than Tolerance. The test is symmetric.
//
// This only holds for a static camera where a person stands in the same place;
// two people enrolled at the same spot are indistinguishable.
func Matches(a, b model.BoundingBox) bool {
	return math.Abs(a.XMin-b.XMin) < Tolerance &&
		math.Abs(a.YMin-b.YMin) < Tolerance &&
		math.Abs(a.Width-b.Width) < Tolerance &&
		math.Abs(a.Height-b.Height) < Tolerance
}

// PixelRect converts a normalized box to a pixel rectangle inside bounds.
// Coordinates are truncated, not rounded. The result is clipped to bounds and
// may be empty.
func PixelRect(box model.BoundingBox, bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	x := int(box.XMin * float64(w))
	y := int(box.YMin * float64(h))
	bw := int(box.Width * float64(w))
	bh := int(box.Height * float64(h))

	r := image.Rect(x, y, x+bw, y+bh).Add(bounds.Min)
	return r.Intersect(bounds)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the face region of img, or nil when the box misses the frame.
// The returned image is a copy; later writes to img do not show through.
func Crop(img image.Image, box model.BoundingBox) image.Image {
	if img == nil {
		return nil
	}
	r := PixelRect(box, img.Bounds())
	if r.Empty() {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	src := img
	if si, ok := img.(subImager); ok {
		src = si.SubImage(r)
	}
	draw.Draw(out, out.Bounds(), src, r.Min, draw.Src)
	return out
}
