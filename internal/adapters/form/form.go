// Package form asks the operator for the name and age behind a face.
package form

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// ErrCancelled is returned when the operator dismisses the form.
var ErrCancelled = model.ErrCancelled

// CancelWord typed at any prompt dismisses the form.
const CancelWord = "/cancel"

const (
	defaultPreviewSize = 150
	defaultASCIIWidth  = 32
	previewQuality     = 90
)

// Prompter reads one answer line. It returns io.EOF when input is gone.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// TerminalForm shows the face as text art, optionally saves a preview
// image, and reads the name and age.
type TerminalForm struct {
	prompter    Prompter
	out         io.Writer
	previewSize int
	asciiWidth  int
	previewDir  string
	logger      logger.Logger
}

// NewTerminalForm creates a form reading answers from p and drawing to out.
func NewTerminalForm(p Prompter, out io.Writer, opts ...Option) *TerminalForm {
	if out == nil {
		out = os.Stdout
	}
	f := &TerminalForm{
		prompter:    p,
		out:         out,
		previewSize: defaultPreviewSize,
		asciiWidth:  defaultASCIIWidth,
		logger:      logger.Get().Named("form"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PromptForIdentity shows face and reads the answers. Blank answers are
// returned as typed; validating them is the store's job.
func (f *TerminalForm) PromptForIdentity(ctx context.Context, face image.Image) (model.Answer, error) {
	fmt.Fprintln(f.out, "--- Thông tin ảnh ---")
	if face != nil {
		preview := Preview(face, f.previewSize)
		fmt.Fprint(f.out, ASCII(preview, f.asciiWidth))
		if path, err := f.savePreview(preview); err != nil {
			f.logger.Warn(ctx, "preview not saved", logger.Error(err))
		} else if path != "" {
			fmt.Fprintf(f.out, "(ảnh xem trước: %s)\n", path)
		}
	}
	fmt.Fprintf(f.out, "Nhập %s để bỏ qua.\n", CancelWord)

	name, err := f.ask(ctx, "Tên: ")
	if err != nil {
		return model.Answer{}, err
	}
	age, err := f.ask(ctx, "Tuổi: ")
	if err != nil {
		return model.Answer{}, err
	}
	return model.Answer{Name: name, Age: age}, nil
}

func (f *TerminalForm) ask(ctx context.Context, label string) (string, error) {
	line, err := f.prompter.Prompt(ctx, label)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("input closed: %w", ErrCancelled)
	}
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == CancelWord {
		return "", ErrCancelled
	}
	return line, nil
}

func (f *TerminalForm) savePreview(img image.Image) (string, error) {
	if f.previewDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(f.previewDir, 0o755); err != nil {
		return "", fmt.Errorf("create preview dir: %w", err)
	}
	path := filepath.Join(f.previewDir, fmt.Sprintf("preview_%d.jpg", time.Now().UnixNano()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: previewQuality}); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return path, out.Close()
}
