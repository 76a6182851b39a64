package form

import "github.com/okian/kiosk/pkg/logger"

// Option applies a configuration option to the TerminalForm.
type Option func(*TerminalForm)

// WithPreviewSize sets the side of the square preview image in pixels.
func WithPreviewSize(size int) Option {
	return func(f *TerminalForm) {
		if size > 0 {
			f.previewSize = size
		}
	}
}

// WithASCIIWidth sets how many columns the text preview uses.
func WithASCIIWidth(width int) Option {
	return func(f *TerminalForm) {
		if width > 0 {
			f.asciiWidth = width
		}
	}
}

// WithPreviewDir saves each preview as PNG in dir so it can be opened in
// an image viewer.
func WithPreviewDir(dir string) Option {
	return func(f *TerminalForm) {
		f.previewDir = dir
	}
}

// WithLogger sets a custom logger for the form.
func WithLogger(l logger.Logger) Option {
	return func(f *TerminalForm) {
		if l != nil {
			f.logger = l
		}
	}
}
