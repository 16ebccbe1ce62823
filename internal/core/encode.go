package core

import (
	"fmt"

	"github.com/1F47E/go-trialreel/internal/logger"
	"github.com/1F47E/go-trialreel/internal/storage"
	"github.com/1F47E/go-trialreel/internal/video"
)

// Encode hands a rendered local sequence to ffmpeg.
// The frames on disk must match the manifest before the encoder runs.
func (c *Core) Encode() (string, error) {
	log := logger.Scope("core encode")

	m, err := c.readManifest()
	if err != nil {
		return "", err
	}
	if !m.IsOk() {
		return "", fmt.Errorf("%w: manifest is incomplete (%d/%d)", ErrFrameCount, len(m.Frames), m.Window.FullLength)
	}
	pattern, err := storage.ParsePattern(m.Pattern)
	if err != nil {
		return "", err
	}
	files, err := storage.ScanFrames(c.settings.OutputDir, pattern)
	if err != nil {
		return "", err
	}
	if len(files) != len(m.Frames) {
		return "", fmt.Errorf("%w: %d on disk, %d in manifest", ErrFrameCount, len(files), len(m.Frames))
	}
	log.Debugf("Encoding %d frames: %s", len(files), m.Print())

	v := c.settings.Video
	err = video.EncodeFrames(c.ctx, video.Options{
		Dir:       c.settings.OutputDir,
		Layout:    pattern.Layout(),
		FrameRate: v.FrameRate,
		Codec:     v.Codec,
		CRF:       v.CRF,
		Bitrate:   v.Bitrate,
		Out:       v.Out,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding frames into video: %w", err)
	}
	return v.Out, nil
}
