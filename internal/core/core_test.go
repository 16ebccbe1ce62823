package core

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/go-trialreel/internal/config"
	"github.com/1F47E/go-trialreel/internal/meta"
	"github.com/1F47E/go-trialreel/internal/montage"
	"github.com/1F47E/go-trialreel/internal/storage"
)

const (
	cellW = 64
	cellH = 48
)

var (
	colorA = color.RGBA{200, 40, 40, 255}
	colorB = color.RGBA{40, 40, 200, 255}
)

type fixture struct {
	dir      string
	table    string
	settings config.Settings
}

// two trials: A spans 3 frames, B spans 2, window -2/+2 gives 7 steps
func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	writeFrames(t, filepath.Join(dir, "a"), 98, 104, colorA)
	writeFrames(t, filepath.Join(dir, "b"), 198, 204, colorB)

	table := filepath.Join(dir, "animate.csv")
	rows := []string{
		"frame start,frame end,HMD,filename",
		fmt.Sprintf(`100,103,A,"%s"`, filepath.Join(dir, "a", "{:04d}.png")),
		fmt.Sprintf(`200,202,B,%s`, filepath.Join(dir, "b", "%04d.png")),
	}
	require.NoError(t, os.WriteFile(table, []byte(strings.Join(rows, "\n")+"\n"), 0o644))

	return fixture{
		dir:   dir,
		table: table,
		settings: config.Settings{
			Before:        -2,
			After:         2,
			FrameRate:     120,
			Rows:          2,
			Columns:       3,
			OutputDir:     filepath.Join(dir, "out"),
			OutputPattern: "anim_%05d.png",
			FontSize:      10,
			Workers:       2,
			MissingFrames: config.MissingFramesError,
		},
	}
}

func writeFrames(t *testing.T, dir string, from, to int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i := from; i <= to; i++ {
		img := image.NewRGBA(image.Rect(0, 0, cellW, cellH))
		draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%04d.png", i)))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
}

func newTestCore(t *testing.T, s config.Settings) *Core {
	t.Helper()
	c, err := NewCore(context.Background(), s, WithProgressOutput(io.Discard))
	require.NoError(t, err)
	return c
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRender(t *testing.T) {
	fx := newFixture(t)
	c := newTestCore(t, fx.settings)

	m, err := c.Render(fx.table)
	require.NoError(t, err)

	assert.Equal(t, 7, m.Window.FullLength)
	assert.Equal(t, 3, m.Window.MaxSpan)
	require.Len(t, m.Frames, 7)
	assert.True(t, m.IsOk())
	assert.Equal(t, meta.Grid{Rows: 2, Columns: 3, CellWidth: cellW, CellHeight: cellH}, m.Grid)
	require.Len(t, m.Trials, 2)
	assert.Equal(t, "A", m.Trials[0].HMD)
	assert.Equal(t, 0, m.Trials[0].Column)
	assert.Equal(t, 1, m.Trials[1].Column)

	for i, f := range m.Frames {
		assert.Equal(t, fmt.Sprintf("anim_%05d.png", i), f.Name)
	}

	img := readPNG(t, filepath.Join(fx.settings.OutputDir, "anim_00006.png"))
	assert.Equal(t, image.Rect(0, 0, 3*cellW, 2*cellH), img.Bounds())

	// bottom-right pixels of each cell are clear of text
	assertColor(t, colorA, img.At(cellW-1, cellH-1))
	assertColor(t, colorB, img.At(2*cellW-1, cellH-1))
	assertColor(t, color.RGBA{0, 0, 0, 255}, img.At(3*cellW-1, 2*cellH-1))

	assert.FileExists(t, filepath.Join(fx.settings.OutputDir, config.PathManifest))

	n, err := c.Verify()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func assertColor(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()
	r, g, b, a := got.RGBA()
	assert.Equal(t, want, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
}

func TestRenderMissingFrame(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "a", "0102.png")))

	_, err := newTestCore(t, fx.settings).Render(fx.table)
	assert.ErrorIs(t, err, storage.ErrMissingFrame)
}

func TestRenderHoldMissingFrame(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "a", "0102.png")))
	fx.settings.MissingFrames = config.MissingFramesHold

	m, err := newTestCore(t, fx.settings).Render(fx.table)
	require.NoError(t, err)
	assert.Len(t, m.Frames, 7)
	assert.Equal(t, 1, m.Trials[0].Held)
	assert.Equal(t, 0, m.Trials[1].Held)
}

func TestRenderHoldNeedsFirstFrame(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "b", "0198.png")))
	fx.settings.MissingFrames = config.MissingFramesHold

	_, err := newTestCore(t, fx.settings).Render(fx.table)
	assert.ErrorIs(t, err, storage.ErrMissingFrame)
}

func TestRenderGridOverflow(t *testing.T) {
	fx := newFixture(t)
	fx.settings.Rows = 1
	fx.settings.Columns = 1

	_, err := newTestCore(t, fx.settings).Render(fx.table)
	assert.ErrorIs(t, err, montage.ErrGridOverflow)
	assert.NoDirExists(t, fx.settings.OutputDir)
}

func TestRenderFrameSizeMismatch(t *testing.T) {
	fx := newFixture(t)
	small := image.NewRGBA(image.Rect(0, 0, cellW/2, cellH))
	f, err := os.Create(filepath.Join(fx.dir, "b", "0200.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, small))
	require.NoError(t, f.Close())

	_, err = newTestCore(t, fx.settings).Render(fx.table)
	assert.ErrorIs(t, err, montage.ErrFrameSizeMismatch)
}

func TestVerifyTampered(t *testing.T) {
	fx := newFixture(t)
	c := newTestCore(t, fx.settings)
	_, err := c.Render(fx.table)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(fx.settings.OutputDir, "anim_00003.png"), []byte("garbage"), 0o644))
	n, err := c.Verify()
	assert.ErrorIs(t, err, meta.ErrChecksumMismatch)
	assert.Equal(t, 3, n)
}

func TestEncodeFrameCount(t *testing.T) {
	fx := newFixture(t)
	c := newTestCore(t, fx.settings)
	_, err := c.Render(fx.table)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(fx.settings.OutputDir, "anim_00006.png")))
	_, err = c.Encode()
	assert.ErrorIs(t, err, ErrFrameCount)
}

func TestEncodeFrameCountSubdirPattern(t *testing.T) {
	fx := newFixture(t)
	fx.settings.OutputPattern = "frames/anim_%05d.png"
	c := newTestCore(t, fx.settings)
	m, err := c.Render(fx.table)
	require.NoError(t, err)
	assert.Equal(t, "frames/anim_00000.png", m.Frames[0].Name)

	n, err := c.Verify()
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	require.NoError(t, os.Remove(filepath.Join(fx.settings.OutputDir, "frames", "anim_00006.png")))
	_, err = c.Encode()
	assert.ErrorIs(t, err, ErrFrameCount)
}

func TestEncodeVerifyNeedLocalRender(t *testing.T) {
	fx := newFixture(t)
	fx.settings.S3.Bucket = "renders"
	c := newTestCore(t, fx.settings)

	_, err := c.Encode()
	assert.ErrorIs(t, err, ErrNotLocal)
	_, err = c.Verify()
	assert.ErrorIs(t, err, ErrNotLocal)
}

func TestEncodeWithoutRender(t *testing.T) {
	fx := newFixture(t)
	_, err := newTestCore(t, fx.settings).Encode()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInspect(t *testing.T) {
	fx := newFixture(t)
	win, trials, err := newTestCore(t, fx.settings).Inspect(fx.table)
	require.NoError(t, err)

	assert.Equal(t, 7, win.FullLength)
	require.Len(t, trials, 2)
	assert.Equal(t, filepath.Join(fx.dir, "a", "0098.png"), trials[0].FirstFrame)
	assert.Equal(t, filepath.Join(fx.dir, "a", "0104.png"), trials[0].LastFrame)
	assert.Equal(t, filepath.Join(fx.dir, "b", "0204.png"), trials[1].LastFrame)
	assert.True(t, trials[0].MtPVisible)
	assert.Equal(t, 0, trials[1].Row)
	assert.Equal(t, 1, trials[1].Column)
	assert.Contains(t, trials[1].Print(), "HMD: B")
}
