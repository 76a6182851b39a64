package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/bmp"

	"github.com/okian/kiosk/internal/domain/geometry"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	"github.com/okian/kiosk/pkg/metrics"
)

const (
	defaultImageDir    = "imgs"
	defaultImageExt    = "jpg"
	defaultJPEGQuality = 90

	sinkFileMode = 0o644
	imageDirMode = 0o755
	sinkTempGlob = ".identities-*.json"
)

// record is the on-disk value; the id is the object key.
type record struct {
	Name string            `json:"name"`
	Age  string            `json:"age"`
	Box  model.BoundingBox `json:"bbox"`
}

// JSONStore keeps identities in memory and mirrors them to a JSON object
// keyed by decimal id. Every change rewrites the whole file.
type JSONStore struct {
	mu         sync.RWMutex
	identities []model.Identity // ascending id
	nextID     int

	path        string
	imageDir    string
	imageExt    string
	jpegQuality int

	logger logger.Logger
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore creates a store backed by the JSON file at path.
// Call LoadAll to read existing identities.
func NewJSONStore(path string, opts ...Option) *JSONStore {
	s := &JSONStore{
		path:        path,
		imageDir:    defaultImageDir,
		imageExt:    defaultImageExt,
		jpegQuality: defaultJPEGQuality,
		nextID:      1,
		logger:      logger.Get().Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll replaces the in-memory state with the sink's content.
// A missing sink is an empty store.
func (s *JSONStore) LoadAll(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.identities = nil
		s.nextID = 1
		s.mu.Unlock()
		s.logger.Info(ctx, "identity sink not found, starting empty", logger.String("path", s.path))
		metrics.UpdateIdentitiesTotal(0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", model.ErrPersistence, s.path, err)
	}

	var raw map[string]record
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptSink, s.path, err)
	}

	identities := make([]model.Identity, 0, len(raw))
	for key, rec := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: %s: key %q is not an id", ErrCorruptSink, s.path, key)
		}
		identities = append(identities, model.Identity{ID: id, Name: rec.Name, Age: rec.Age, Box: rec.Box})
	}
	sort.Slice(identities, func(i, j int) bool { return identities[i].ID < identities[j].ID })

	s.mu.Lock()
	s.identities = identities
	s.nextID = nextID(identities)
	s.mu.Unlock()

	s.logger.Info(ctx, "identities loaded", logger.Int("count", len(identities)), logger.String("path", s.path))
	metrics.UpdateIdentitiesTotal(len(identities))
	return nil
}

// nextID is max(count, highest id) + 1 so a sink with gaps never reuses an id.
func nextID(identities []model.Identity) int {
	n := len(identities)
	if len(identities) > 0 && identities[len(identities)-1].ID > n {
		n = identities[len(identities)-1].ID
	}
	return n + 1
}

// Lookup returns the first identity, in id order, whose box matches.
func (s *JSONStore) Lookup(_ context.Context, box model.BoundingBox) (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.identities {
		if geometry.Matches(id.Box, box) {
			return id, true
		}
	}
	return model.Identity{}, false
}

// Create stores a new identity. The write lock is held through the flush;
// on a failed flush the record is removed again and the error wraps
// model.ErrPersistence.
func (s *JSONStore) Create(ctx context.Context, name, age string, box model.BoundingBox, face image.Image) (model.Identity, error) {
	name = strings.TrimSpace(name)
	age = strings.TrimSpace(age)
	if name == "" {
		return model.Identity{}, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	if age == "" {
		return model.Identity{}, fmt.Errorf("%w: age is required", model.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if face != nil {
		if err := s.writeImage(name, age, face); err != nil {
			metrics.RecordErrorByComponent("store", "image_write")
			return model.Identity{}, fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
	}

	identity := model.Identity{ID: s.nextID, Name: name, Age: age, Box: box}
	s.identities = append(s.identities, identity)

	if err := s.flushLocked(ctx); err != nil {
		s.identities = s.identities[:len(s.identities)-1]
		metrics.RecordErrorByComponent("store", "flush")
		s.logger.Error(ctx, "identity not persisted, rolled back",
			logger.String("name", name),
			logger.Error(err),
		)
		return model.Identity{}, err
	}
	s.nextID++

	s.logger.Info(ctx, "identity created",
		logger.Int("id", identity.ID),
		logger.String("name", identity.Name),
		logger.String("age", identity.Age),
		logger.String("bbox", box.String()),
	)
	metrics.UpdateIdentitiesTotal(len(s.identities))
	return identity, nil
}

// List returns a copy of all identities in id order.
func (s *JSONStore) List(_ context.Context) []model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Identity, len(s.identities))
	copy(out, s.identities)
	return out
}

// Count returns the number of identities.
func (s *JSONStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities)
}

// Flush rewrites the sink with the current state.
func (s *JSONStore) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flushLocked(ctx)
}

// Close flushes the store.
func (s *JSONStore) Close() error {
	return s.Flush(context.Background())
}

// flushLocked writes to a temp file in the sink's directory and renames it
// over the sink. Caller holds s.mu.
func (s *JSONStore) flushLocked(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreFlushLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	raw := make(map[string]record, len(s.identities))
	for _, id := range s.identities {
		raw[strconv.Itoa(id.ID)] = record{Name: id.Name, Age: id.Age, Box: id.Box}
	}
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode identities: %v", model.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), sinkTempGlob)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %v", model.ErrPersistence, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", model.ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %v", model.ErrPersistence, tmpName, err)
	}
	if err := os.Chmod(tmpName, sinkFileMode); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %v", model.ErrPersistence, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: replace %s: %v", model.ErrPersistence, s.path, err)
	}

	s.logger.Debug(ctx, "identity sink flushed", logger.Int("count", len(s.identities)))
	return nil
}

// ImagePath returns where the face image for name and age is stored.
// Same name and age overwrite each other.
func (s *JSONStore) ImagePath(name, age string) string {
	base := fmt.Sprintf("%s_%s.%s", sanitize(name), sanitize(age), s.imageExt)
	return filepath.Join(s.imageDir, base)
}

func (s *JSONStore) writeImage(name, age string, face image.Image) error {
	if err := os.MkdirAll(s.imageDir, imageDirMode); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	path := s.ImagePath(name, age)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.encode(f, face); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (s *JSONStore) encode(w io.Writer, img image.Image) error {
	switch s.imageExt {
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: s.jpegQuality})
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.imageExt)
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, s)
}
