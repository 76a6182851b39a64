package form

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// asciiRamp runs from dark to light.
const asciiRamp = "@%#*+=-:. "

// Preview scales img to a size x size square.
func Preview(img image.Image, size int) image.Image {
	if size <= 0 {
		size = defaultPreviewSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// ASCII renders img as width columns of text. Terminal cells are about
// twice as tall as wide, so rows are halved.
func ASCII(img image.Image, width int) string {
	b := img.Bounds()
	if width <= 0 || b.Empty() {
		return ""
	}
	height := width * b.Dy() / b.Dx() / 2
	if height < 1 {
		height = 1
	}

	small := image.NewGray(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, draw.Src, nil)

	var sb strings.Builder
	sb.Grow((width + 1) * height)
	last := len(asciiRamp) - 1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(small.At(x, y)).(color.Gray).Y
			sb.WriteByte(asciiRamp[int(g)*last/255])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
