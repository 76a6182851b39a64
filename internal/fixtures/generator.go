package fixtures

import (
	"image"
	"image/color"
	"math/rand/v2"
	"strconv"

	"golang.org/x/image/draw"

	"github.com/okian/kiosk/internal/domain/model"
)

var names = []string{"An", "Bình", "Chi", "Dũng", "Hà", "Hùng", "Lan", "Minh", "Thảo", "Tuấn"}

// Person is someone standing in the scene.
type Person struct {
	Name  string            `json:"name"`
	Age   string            `json:"age"`
	Box   model.BoundingBox `json:"bbox"`
	Shade color.RGBA        `json:"-"`
}

// Scene is a generated set of people and the frames they appear in.
type Scene struct {
	ID     string   `json:"id"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Frames int      `json:"frames"`
	People []Person `json:"people"`
}

// Generate places cfg.People people on a 3x3 grid. Boxes never overlap and
// differ by more than the matcher tolerance, so every person is a distinct
// identity.
func Generate(cfg Config) Scene {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	cells := rng.Perm(maxPeople)[:cfg.People]
	people := make([]Person, 0, cfg.People)
	used := make(map[string]bool)
	for _, cell := range cells {
		name := names[rng.IntN(len(names))]
		for used[name] {
			name = names[rng.IntN(len(names))]
		}
		used[name] = true

		col, row := cell%3, cell/3
		people = append(people, Person{
			Name: name,
			Age:  strconv.Itoa(20 + rng.IntN(40)),
			Box: model.BoundingBox{
				XMin:   0.05 + float64(col)*0.32,
				YMin:   0.05 + float64(row)*0.32,
				Width:  0.22,
				Height: 0.22,
			},
			Shade: color.RGBA{
				R: uint8(60 + rng.IntN(180)),
				G: uint8(60 + rng.IntN(180)),
				B: uint8(60 + rng.IntN(180)),
				A: 255,
			},
		})
	}
	return Scene{Width: cfg.Width, Height: cfg.Height, Frames: cfg.Frames, People: people}
}

// Render draws frame i: a background that brightens over time and one
// face-like block per person, drifting by a pixel every other frame.
func (s Scene) Render(i int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	bg := uint8(40 + (i*7)%60)
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: bg, G: bg, B: bg + 10, A: 255}}, image.Point{}, draw.Src)

	drift := (i / 2) % 2
	for _, p := range s.People {
		r := image.Rect(
			int(p.Box.XMin*float64(s.Width))+drift,
			int(p.Box.YMin*float64(s.Height)),
			int((p.Box.XMin+p.Box.Width)*float64(s.Width))+drift,
			int((p.Box.YMin+p.Box.Height)*float64(s.Height)),
		).Intersect(img.Bounds())
		draw.Draw(img, r, &image.Uniform{C: p.Shade}, image.Point{}, draw.Src)

		// eyes
		w, h := r.Dx(), r.Dy()
		eye := color.RGBA{A: 255}
		for _, x := range []int{r.Min.X + w/4, r.Min.X + 3*w/4 - w/8} {
			er := image.Rect(x, r.Min.Y+h/3, x+w/8, r.Min.Y+h/3+h/10)
			draw.Draw(img, er, &image.Uniform{C: eye}, image.Point{}, draw.Src)
		}
	}
	return img
}

// Detections returns what a detector would report for frame i.
func (s Scene) Detections(i int) []model.Detection {
	out := make([]model.Detection, len(s.People))
	for j, p := range s.People {
		out[j] = model.Detection{Box: p.Box, Confidence: 0.9 - float64((i+j)%3)*0.05}
	}
	return out
}
