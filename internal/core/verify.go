package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/1F47E/go-trialreel/internal/logger"
)

// Verify re-reads every written frame and compares it with the manifest checksums.
func (c *Core) Verify() (int, error) {
	log := logger.Scope("core verify")

	m, err := c.readManifest()
	if err != nil {
		return 0, err
	}
	if !m.IsOk() {
		return 0, fmt.Errorf("%w: manifest is incomplete (%d/%d)", ErrFrameCount, len(m.Frames), m.Window.FullLength)
	}
	for i, f := range m.Frames {
		if err := c.ctx.Err(); err != nil {
			return i, err
		}
		data, err := os.ReadFile(filepath.Join(c.settings.OutputDir, f.Name))
		if err != nil {
			return i, err
		}
		if err := m.Validate(i, data); err != nil {
			return i, err
		}
		log.Debugf("Frame %s ok", f.Name)
	}
	return len(m.Frames), nil
}
