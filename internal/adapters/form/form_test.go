package form_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/kiosk/internal/adapters/form"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

type scripted struct {
	lines  []string
	labels []string
}

func (s *scripted) Prompt(_ context.Context, label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func face() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if x < 20 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestTerminalForm(t *testing.T) {
	Convey("Given a terminal form", t, func() {
		ctx := context.Background()
		var out bytes.Buffer

		Convey("When the operator answers", func() {
			p := &scripted{lines: []string{" Dan ", "41"}}
			ans, err := form.NewTerminalForm(p, &out).PromptForIdentity(ctx, face())

			Convey("Then the trimmed answers are returned", func() {
				So(err, ShouldBeNil)
				So(ans, ShouldResemble, model.Answer{Name: "Dan", Age: "41"})
				So(p.labels, ShouldResemble, []string{"Tên: ", "Tuổi: "})
				So(out.String(), ShouldContainSubstring, "@")
			})
		})

		Convey("When the age is left blank", func() {
			p := &scripted{lines: []string{"Carol", ""}}
			ans, err := form.NewTerminalForm(p, &out).PromptForIdentity(ctx, nil)

			Convey("Then the blank is passed on for validation", func() {
				So(err, ShouldBeNil)
				So(ans.Age, ShouldBeEmpty)
			})
		})

		Convey("When the operator types the cancel word", func() {
			p := &scripted{lines: []string{form.CancelWord}}
			_, err := form.NewTerminalForm(p, &out).PromptForIdentity(ctx, nil)

			Convey("Then the form is cancelled", func() {
				So(errors.Is(err, form.ErrCancelled), ShouldBeTrue)
				So(errors.Is(err, model.ErrCancelled), ShouldBeTrue)
			})
		})

		Convey("When input ends mid-form", func() {
			p := &scripted{lines: []string{"Eve"}}
			_, err := form.NewTerminalForm(p, &out).PromptForIdentity(ctx, nil)

			Convey("Then the form is cancelled", func() {
				So(errors.Is(err, form.ErrCancelled), ShouldBeTrue)
			})
		})

		Convey("When a preview directory is set", func() {
			dir := t.TempDir()
			p := &scripted{lines: []string{"Fay", "29"}}
			_, err := form.NewTerminalForm(p, &out, form.WithPreviewDir(dir), form.WithPreviewSize(64)).PromptForIdentity(ctx, face())
			So(err, ShouldBeNil)

			Convey("Then a JPEG preview is saved", func() {
				matches, _ := filepath.Glob(filepath.Join(dir, "preview_*.jpg"))
				So(matches, ShouldHaveLength, 1)

				file, err := os.Open(matches[0])
				So(err, ShouldBeNil)
				defer func() { _ = file.Close() }()
				cfg, format, err := image.DecodeConfig(file)
				So(err, ShouldBeNil)
				So(format, ShouldEqual, "jpeg")
				So(cfg.Width, ShouldEqual, 64)
				So(cfg.Height, ShouldEqual, 64)
			})
		})
	})
}

func TestPreview(t *testing.T) {
	Convey("Given a face image", t, func() {
		img := face()

		Convey("Then the preview is a square of the requested size", func() {
			So(form.Preview(img, 150).Bounds(), ShouldResemble, image.Rect(0, 0, 150, 150))
		})

		Convey("Then the text art has dark left and light right halves", func() {
			art := form.ASCII(img, 10)
			rows := strings.Split(strings.TrimRight(art, "\n"), "\n")
			So(rows, ShouldHaveLength, 5)
			So(rows[0], ShouldHaveLength, 10)
			So(string(rows[2][0]), ShouldEqual, "@")
			So(string(rows[2][9]), ShouldEqual, " ")
		})

		Convey("Then an empty width renders nothing", func() {
			So(form.ASCII(img, 0), ShouldBeEmpty)
		})
	})
}
