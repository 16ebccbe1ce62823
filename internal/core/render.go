package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/1F47E/go-trialreel/internal/config"
	"github.com/1F47E/go-trialreel/internal/job"
	"github.com/1F47E/go-trialreel/internal/logger"
	"github.com/1F47E/go-trialreel/internal/meta"
	"github.com/1F47E/go-trialreel/internal/montage"
	"github.com/1F47E/go-trialreel/internal/overlay"
	"github.com/1F47E/go-trialreel/internal/progress"
	"github.com/1F47E/go-trialreel/internal/storage"
	"github.com/1F47E/go-trialreel/internal/trial"
)

// track is one trial's state across time steps.
// Only one worker touches a track per step.
type track struct {
	rec       trial.Record
	pattern   storage.Pattern
	annotator *overlay.Annotator
	last      image.Image
	held      int
}

// Render streams the montage: every time step reads one frame per trial,
// annotates, composes and writes it before the next step starts.
// 1. load trials and check they fit the grid
// 2. compute the shared window
// 3. per step: annotate by workers, compose, save
// 4. save the manifest
func (c *Core) Render(tablePath string) (*meta.Manifest, error) {
	log := logger.Scope("core render")
	start := time.Now()

	records, err := trial.Load(tablePath)
	if err != nil {
		return nil, err
	}
	grid := montage.NewGrid(c.settings.Rows, c.settings.Columns)
	if err := grid.Fit(len(records)); err != nil {
		return nil, err
	}
	win, err := trial.NewWindow(c.settings.Before, c.settings.After, c.settings.FrameRate, records)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d trials, %d frames per trial (max span %d)", len(records), win.FullLength, win.MaxSpan)

	tracks := make([]*track, len(records))
	for i, rec := range records {
		p, err := storage.ParsePattern(rec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("trial %d (%s): %w", i, rec.HMD, err)
		}
		if !win.ReachesEnd(rec) {
			log.Warnf("Trial %d (%s): reaction frame %d is outside the window, MtP will not be shown", i, rec.HMD, rec.FrameEnd)
		}
		tracks[i] = &track{
			rec:       rec,
			pattern:   p,
			annotator: overlay.NewAnnotator(rec, win, c.renderer),
		}
	}

	sink, err := c.frameSink()
	if err != nil {
		return nil, err
	}
	log.Infof("Writing frames to %s", sink.Location())

	m := meta.New()
	m.Pattern = c.pattern.String()
	m.Window = meta.Window{
		Before:     win.Before,
		After:      win.After,
		FrameRate:  win.FrameRate,
		MaxSpan:    win.MaxSpan,
		FullLength: win.FullLength,
	}

	comp := montage.NewCompositor(grid)
	bar := progress.New(win.FullLength, "Rendering...", c.progress)
	annotate := func(ctx context.Context, j job.Annotate) (image.Image, error) {
		return c.annotate(tracks[j.Trial], win, j.Offset)
	}
	for t := 0; t < win.FullLength; t++ {
		if err := c.ctx.Err(); err != nil {
			return nil, err
		}
		frames, err := c.worker.Run(c.ctx, job.Step(len(tracks), t), annotate)
		if err != nil {
			return nil, err
		}
		canvas, err := comp.Compose(frames)
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", t, err)
		}
		entry, err := sink.SaveFrame(c.ctx, t, canvas)
		if err != nil {
			return nil, fmt.Errorf("cannot save frame %d: %w", t, err)
		}
		m.AddFrame(entry.Name, entry.Checksum)
		bar.Add(1)
	}
	bar.Finish()

	cell := comp.CellSize()
	m.Grid = meta.Grid{Rows: grid.Rows, Columns: grid.Columns, CellWidth: cell.X, CellHeight: cell.Y}
	for i, tr := range tracks {
		row, col := grid.Cell(i)
		m.Trials = append(m.Trials, meta.TrialEntry{
			HMD:        tr.rec.HMD,
			FrameStart: tr.rec.FrameStart,
			FrameEnd:   tr.rec.FrameEnd,
			Row:        row,
			Column:     col,
			Held:       tr.held,
		})
	}

	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		return nil, err
	}
	if err := sink.PutObject(c.ctx, config.PathManifest, &buf); err != nil {
		return nil, fmt.Errorf("cannot save manifest: %w", err)
	}

	log.Infof("Rendered %d frames in %s", len(m.Frames), time.Since(start).Round(time.Millisecond))
	return m, nil
}

func (c *Core) annotate(tr *track, win trial.Window, offset int) (image.Image, error) {
	path := tr.pattern.Path(win.Frame(tr.rec, offset))
	src, err := storage.FrameRead(path)
	if err != nil {
		if !errors.Is(err, storage.ErrMissingFrame) || c.settings.MissingFrames != config.MissingFramesHold || tr.last == nil {
			return nil, err
		}
		logger.Scope("core render").Warnf("%s: %s missing, holding previous frame", tr.rec.HMD, path)
		tr.held++
		src = tr.last
	}
	tr.last = src
	return tr.annotator.Annotate(src, offset)
}
