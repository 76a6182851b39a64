package repository

import (
	"strings"

	"github.com/okian/kiosk/pkg/logger"
)

// Option applies a configuration option to the JSONStore.
type Option func(*JSONStore)

// WithImageDir sets the directory face images are written to.
func WithImageDir(dir string) Option {
	return func(s *JSONStore) {
		if dir != "" {
			s.imageDir = dir
		}
	}
}

// WithImageExt sets the image extension and thereby the encoder
// (jpg, jpeg, png or bmp).
func WithImageExt(ext string) Option {
	return func(s *JSONStore) {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			s.imageExt = ext
		}
	}
}

// WithJPEGQuality sets the JPEG quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(s *JSONStore) {
		if q >= 1 && q <= 100 {
			s.jpegQuality = q
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *JSONStore) {
		if l != nil {
			s.logger = l
		}
	}
}
