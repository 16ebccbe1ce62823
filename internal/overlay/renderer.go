package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/1F47E/go-trialreel/internal/config"
	"github.com/1F47E/go-trialreel/internal/logger"
)

// Renderer draws labels with one TrueType font.
// Font faces keep a glyph cache and are not safe for concurrent use,
// so every Draw call borrows its own face from the pool.
type Renderer struct {
	font  *truetype.Font
	size  float64
	faces sync.Pool
}

// NewRenderer loads the TTF at path, or the embedded Go Regular font when path is empty.
func NewRenderer(path string, size float64) (*Renderer, error) {
	log := logger.Scope("overlay renderer")

	ttf := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read font: %w", err)
		}
		ttf = b
	}
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("cannot parse font: %w", err)
	}
	log.Debugf("Font loaded: %q size %v", f.Name(truetype.NameIDFontFullName), size)

	r := &Renderer{font: f, size: size}
	r.faces.New = func() any {
		return truetype.NewFace(r.font, &truetype.Options{
			Size:    r.size,
			DPI:     config.FontDPI,
			Hinting: font.HintingFull,
		})
	}
	return r, nil
}

// Draw places every label with its top-left corner at label.Pos.
func (r *Renderer) Draw(dst draw.Image, labels []Label) {
	face := r.faces.Get().(font.Face)
	defer r.faces.Put(face)

	ascent := face.Metrics().Ascent.Ceil()
	for _, l := range labels {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(l.Color),
			Face: face,
			Dot:  freetype.Pt(l.Pos.X, l.Pos.Y+ascent),
		}
		d.DrawString(l.Text)
	}
}
