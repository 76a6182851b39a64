package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okian/kiosk/internal/adapters/detector"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

const (
	jpegQuality = 90
	dirMode     = 0o755
	fileMode    = 0o644
)

// Result locates the files written for a scene.
type Result struct {
	Scene          Scene
	FramesDir      string
	DetectionsPath string
	ManifestPath   string
}

// Write generates a scene and writes it under cfg.Dir:
//
//	frames/frame_0001.jpg ...  camera frames, 1-based
//	detections.json            replay detector input
//	scene.json                 who is where
func Write(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	log := logger.Get().Named("fixtures")

	scene := Generate(cfg)
	scene.ID = uuid.NewString()

	res := Result{
		Scene:          scene,
		FramesDir:      filepath.Join(cfg.Dir, "frames"),
		DetectionsPath: filepath.Join(cfg.Dir, "detections.json"),
		ManifestPath:   filepath.Join(cfg.Dir, "scene.json"),
	}
	if err := os.MkdirAll(res.FramesDir, dirMode); err != nil {
		return Result{}, fmt.Errorf("create frames dir: %w", err)
	}

	rec := detector.Recording{Frames: make([][]model.Detection, 0, scene.Frames)}
	for i := 1; i <= scene.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		path := filepath.Join(res.FramesDir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := writeJPEG(path, scene, i); err != nil {
			return Result{}, err
		}
		rec.Frames = append(rec.Frames, scene.Detections(i))
	}

	if err := detector.Save(res.DetectionsPath, rec); err != nil {
		return Result{}, fmt.Errorf("write detections: %w", err)
	}

	manifest, err := json.MarshalIndent(scene, "", "    ")
	if err != nil {
		return Result{}, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(res.ManifestPath, manifest, fileMode); err != nil {
		return Result{}, fmt.Errorf("write manifest: %w", err)
	}

	log.Info(ctx, "scene written",
		logger.String("id", scene.ID),
		logger.String("dir", cfg.Dir),
		logger.Int("frames", scene.Frames),
		logger.Int("people", len(scene.People)),
	)
	return res, nil
}

func writeJPEG(path string, scene Scene, i int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := jpeg.Encode(f, scene.Render(i), &jpeg.Options{Quality: jpegQuality}); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
