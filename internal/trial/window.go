package trial

import (
	"errors"
	"fmt"
)

var ErrEmptyWindow = errors.New("empty frame window")

// Window is the shared frame range every trial is rendered over.
// Offsets run over [0, FullLength); offset 0 is Before frames relative to FrameStart.
type Window struct {
	Before     int
	After      int
	FrameRate  float64
	MaxSpan    int
	FullLength int
}

func NewWindow(before, after int, fps float64, records []Record) (Window, error) {
	if len(records) == 0 {
		return Window{}, ErrNoTrials
	}
	if fps <= 0 {
		return Window{}, fmt.Errorf("frame rate must be positive, got %v", fps)
	}
	maxSpan := records[0].Span()
	for _, r := range records[1:] {
		if s := r.Span(); s > maxSpan {
			maxSpan = s
		}
	}
	w := Window{
		Before:     before,
		After:      after,
		FrameRate:  fps,
		MaxSpan:    maxSpan,
		FullLength: -before + maxSpan + after,
	}
	if w.FullLength <= 0 {
		return w, fmt.Errorf("%w: before=%d after=%d max span=%d", ErrEmptyWindow, before, after, maxSpan)
	}
	return w, nil
}

// Frame is the absolute source frame index shown at offset.
func (w Window) Frame(r Record, offset int) int {
	return r.FrameStart + w.Before + offset
}

// Millis is the elapsed time at offset relative to the contact frame.
func (w Window) Millis(offset int) float64 {
	return float64(offset+w.Before) / w.FrameRate * 1000
}

// ReachesEnd reports whether the window ever shows r's reaction frame.
func (w Window) ReachesEnd(r Record) bool {
	first := w.Frame(r, 0)
	return r.FrameEnd >= first && r.FrameEnd < first+w.FullLength
}
