package montage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

var (
	ErrGridOverflow      = errors.New("too many trials for configured grid")
	ErrFrameSizeMismatch = errors.New("frame size mismatch")
)

// Grid assigns trials to cells in row-major order.
type Grid struct {
	Rows    int
	Columns int
}

func NewGrid(rows, columns int) Grid {
	return Grid{Rows: rows, Columns: columns}
}

func (g Grid) Capacity() int {
	return g.Rows * g.Columns
}

func (g Grid) Cell(index int) (row, col int) {
	return index / g.Columns, index % g.Columns
}

func (g Grid) Fit(n int) error {
	if n > g.Capacity() {
		return fmt.Errorf("%w: %d trials, %dx%d grid holds %d", ErrGridOverflow, n, g.Rows, g.Columns, g.Capacity())
	}
	return nil
}

// Compositor tiles one frame per trial into a canvas.
// The cell size is fixed by the first frame it ever sees.
type Compositor struct {
	grid Grid
	cell image.Point
}

func NewCompositor(g Grid) *Compositor {
	return &Compositor{grid: g}
}

func (c *Compositor) CellSize() image.Point {
	return c.cell
}

func (c *Compositor) CanvasSize() image.Point {
	return image.Pt(c.cell.X*c.grid.Columns, c.cell.Y*c.grid.Rows)
}

// Compose pastes frames[i] into cell i of a fresh black canvas.
func (c *Compositor) Compose(frames []image.Image) (*image.RGBA, error) {
	if err := c.grid.Fit(len(frames)); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, errors.New("nothing to compose")
	}
	if c.cell == (image.Point{}) {
		c.cell = frames[0].Bounds().Size()
	}

	size := c.CanvasSize()
	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i, f := range frames {
		b := f.Bounds()
		if b.Size() != c.cell {
			return nil, fmt.Errorf("%w: trial %d is %dx%d, cells are %dx%d", ErrFrameSizeMismatch, i, b.Dx(), b.Dy(), c.cell.X, c.cell.Y)
		}
		row, col := c.grid.Cell(i)
		at := image.Pt(col*c.cell.X, row*c.cell.Y)
		draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(c.cell)}, f, b.Min, draw.Src)
	}
	return canvas, nil
}
