package core

import (
	"fmt"

	"github.com/1F47E/go-trialreel/internal/montage"
	"github.com/1F47E/go-trialreel/internal/storage"
	"github.com/1F47E/go-trialreel/internal/trial"
)

type TrialSummary struct {
	Index      int
	Record     trial.Record
	Row        int
	Column     int
	FirstFrame string
	LastFrame  string
	MtPVisible bool
}

func (s TrialSummary) Print() string {
	return fmt.Sprintf("#%d [%d,%d] %s  frames %s .. %s  MtP shown: %t",
		s.Index, s.Row, s.Column, s.Record.Print(), s.FirstFrame, s.LastFrame, s.MtPVisible)
}

// Inspect resolves the window and cell of every trial without reading images.
func (c *Core) Inspect(tablePath string) (trial.Window, []TrialSummary, error) {
	records, err := trial.Load(tablePath)
	if err != nil {
		return trial.Window{}, nil, err
	}
	grid := montage.NewGrid(c.settings.Rows, c.settings.Columns)
	if err := grid.Fit(len(records)); err != nil {
		return trial.Window{}, nil, err
	}
	win, err := trial.NewWindow(c.settings.Before, c.settings.After, c.settings.FrameRate, records)
	if err != nil {
		return trial.Window{}, nil, err
	}

	res := make([]TrialSummary, 0, len(records))
	for i, rec := range records {
		p, err := storage.ParsePattern(rec.Pattern)
		if err != nil {
			return win, nil, fmt.Errorf("trial %d (%s): %w", i, rec.HMD, err)
		}
		row, col := grid.Cell(i)
		res = append(res, TrialSummary{
			Index:      i,
			Record:     rec,
			Row:        row,
			Column:     col,
			FirstFrame: p.Path(win.Frame(rec, 0)),
			LastFrame:  p.Path(win.Frame(rec, win.FullLength-1)),
			MtPVisible: win.ReachesEnd(rec),
		})
	}
	return win, res, nil
}
