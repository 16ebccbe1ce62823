package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/1F47E/go-trialreel/internal/config"
	"github.com/1F47E/go-trialreel/internal/trial"
)

type Field int

const (
	FieldHMD Field = iota
	FieldTimestamp
	FieldReaction
	FieldContact
)

func (f Field) String() string {
	switch f {
	case FieldHMD:
		return "hmd"
	case FieldTimestamp:
		return "timestamp"
	case FieldReaction:
		return "reaction"
	case FieldContact:
		return "contact"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

type Label struct {
	Field Field
	Text  string
	Pos   image.Point
	Color color.Color
}

// Annotator burns one trial's telemetry into its frames.
// It owns the reaction latch, so offsets must be annotated in order.
type Annotator struct {
	rec      trial.Record
	win      trial.Window
	latch    *Latch
	renderer *Renderer
	next     int
}

func NewAnnotator(rec trial.Record, win trial.Window, r *Renderer) *Annotator {
	return &Annotator{
		rec:      rec,
		win:      win,
		latch:    NewLatch(rec.FrameEnd),
		renderer: r,
	}
}

func (a *Annotator) Record() trial.Record {
	return a.rec
}

// Labels returns the text drawn at offset, advancing the latch.
func (a *Annotator) Labels(offset int) ([]Label, error) {
	if offset != a.next {
		return nil, fmt.Errorf("annotator for %s: offset %d out of order, expected %d", a.rec.HMD, offset, a.next)
	}
	a.next++

	frame := a.win.Frame(a.rec, offset)
	millis := a.win.Millis(offset)

	labels := []Label{
		{Field: FieldHMD, Text: a.rec.HMD, Pos: config.PosHMD, Color: config.ColorText},
		{Field: FieldTimestamp, Text: fmt.Sprintf("Time: %.3f", millis), Pos: config.PosTimestamp, Color: config.ColorText},
	}
	if mtp, ok := a.latch.Observe(frame, millis); ok {
		labels = append(labels, Label{Field: FieldReaction, Text: fmt.Sprintf("MtP: %.3f", mtp), Pos: config.PosReaction, Color: config.ColorReaction})
	}
	if frame >= a.rec.FrameStart {
		labels = append(labels, Label{Field: FieldContact, Text: config.TextContact, Pos: config.PosContact, Color: config.ColorContact})
	}
	return labels, nil
}

// Annotate draws offset's labels on a copy of src.
func (a *Annotator) Annotate(src image.Image, offset int) (*image.RGBA, error) {
	labels, err := a.Labels(offset)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	a.renderer.Draw(dst, labels)
	return dst, nil
}
