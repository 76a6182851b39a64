// Package camera provides frame sources for the capture loop: a directory of
// still images, and an MJPEG byte stream read from a file, stdin or an
// ffmpeg pipe.
package camera

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/kiosk/internal/domain/model"
)

// ErrEndOfStream is returned by Next when a source has no more frames.
var ErrEndOfStream = io.EOF

// Source yields frames until ErrEndOfStream.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
	Close() error
}

// Open builds a source from a spec string:
//
//	dir:<path>       still images in name order
//	mjpeg:<path>     concatenated JPEGs; "-" reads stdin
//	ffmpeg:<input>   ffmpeg decodes input to MJPEG
//
// A bare path is a directory source if it is a directory, else MJPEG.
func Open(spec string, opts ...Option) (Source, error) {
	kind, target, found := strings.Cut(spec, ":")
	if !found || (kind != "dir" && kind != "mjpeg" && kind != "ffmpeg") {
		kind, target = "", spec
	}
	if target == "" {
		return nil, fmt.Errorf("%w: empty camera source", ErrInvalidSource)
	}

	if kind == "" {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		kind = "mjpeg"
		if info.IsDir() {
			kind = "dir"
		}
	}

	switch kind {
	case "dir":
		return NewDirSource(target, opts...)
	case "ffmpeg":
		return NewFFmpegSource(target, opts...)
	default:
		if target == "-" {
			return NewMJPEGSource(io.NopCloser(os.Stdin), opts...), nil
		}
		f, err := os.Open(target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		return NewMJPEGSource(f, opts...), nil
	}
}
