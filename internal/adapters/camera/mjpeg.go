package camera

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

const (
	megabyte      = 1 << 20
	maxFrameBytes = 64 * megabyte
)

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// SplitJPEG is a bufio.SplitFunc yielding one complete JPEG per token,
// from the start-of-image marker to the end-of-image marker. Bytes before
// a start marker are skipped.
func SplitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, jpegSOI)
	if start == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	end := bytes.Index(data[start+len(jpegSOI):], jpegEOI)
	if end == -1 {
		if atEOF {
			// truncated trailing frame
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	stop := start + len(jpegSOI) + end + len(jpegEOI)
	return stop, data[start:stop], nil
}

// MJPEGSource decodes frames from a stream of concatenated JPEGs.
type MJPEGSource struct {
	mu      sync.Mutex
	r       io.ReadCloser
	scanner *bufio.Scanner
	index   int
	closed  atomic.Bool
	once    sync.Once
	cmd     *exec.Cmd
	settings
}

// NewMJPEGSource reads frames from r and closes it on Close.
func NewMJPEGSource(r io.ReadCloser, opts ...Option) *MJPEGSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, megabyte), maxFrameBytes)
	sc.Split(SplitJPEG)
	return &MJPEGSource{r: r, scanner: sc, settings: newSettings(opts)}
}

// NewFFmpegSource starts ffmpeg decoding input into an MJPEG pipe.
func NewFFmpegSource(input string, opts ...Option) (*MJPEGSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found: %v", ErrInvalidSource, err)
	}
	cmd := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-i", input, "-f", "image2pipe", "-vcodec", "mjpeg", "-")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s := NewMJPEGSource(out, opts...)
	s.cmd = cmd
	s.logger.Info(context.Background(), "ffmpeg source started", logger.String("input", input))
	return s, nil
}

// Next decodes the next JPEG in the stream. A frame that fails to decode
// is returned as an error; the stream stays usable.
func (s *MJPEGSource) Next(ctx context.Context) (model.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return model.Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	if !s.scanner.Scan() {
		if s.closed.Load() {
			return model.Frame{}, ErrClosed
		}
		if err := s.scanner.Err(); err != nil {
			return model.Frame{}, fmt.Errorf("read stream: %w", err)
		}
		return model.Frame{}, ErrEndOfStream
	}

	img, err := jpeg.Decode(bytes.NewReader(s.scanner.Bytes()))
	if err != nil {
		return model.Frame{}, fmt.Errorf("decode frame %d: %w", s.index+1, err)
	}
	s.index++
	return model.Frame{Index: s.index, Image: img, CapturedAt: s.now()}, nil
}

// Close closes the stream and stops ffmpeg if it was started. It does not
// wait for a pending Next, so it unblocks a read stuck on the stream.
func (s *MJPEGSource) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		err = s.r.Close()
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
			_ = s.cmd.Wait()
		}
	})
	return err
}
