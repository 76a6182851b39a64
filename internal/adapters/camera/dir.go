package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for still frames
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

var stillExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true}

// DirSource replays still images from a directory in file-name order.
type DirSource struct {
	mu     sync.Mutex
	files  []string
	pos    int
	index  int
	closed bool
	settings
}

// NewDirSource lists the images in dir.
func NewDirSource(dir string, opts ...Option) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !stillExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrInvalidSource, dir)
	}
	sort.Strings(files)

	s := &DirSource{files: files, settings: newSettings(opts)}
	s.logger.Info(context.Background(), "directory source opened",
		logger.String("dir", dir),
		logger.Int("frames", len(files)),
		logger.Bool("loop", s.loop),
	)
	return s, nil
}

// Next decodes the next image.
func (s *DirSource) Next(ctx context.Context) (model.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	if s.pos >= len(s.files) {
		if !s.loop {
			return model.Frame{}, ErrEndOfStream
		}
		s.pos = 0
	}

	path := s.files[s.pos]
	s.pos++

	img, err := decodeFile(path)
	if err != nil {
		return model.Frame{}, err
	}
	s.index++
	return model.Frame{Index: s.index, Image: img, CapturedAt: s.now()}, nil
}

// Close releases the source.
func (s *DirSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
