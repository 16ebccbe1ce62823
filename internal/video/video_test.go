package video

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgs(t *testing.T) {
	o := Options{
		Dir:       "animation",
		Layout:    "anim_%05d.png",
		FrameRate: 2,
		Codec:     "libvpx",
		CRF:       10,
		Bitrate:   "1M",
		Out:       "output.webm",
	}
	assert.Equal(t, []string{
		"-y", "-framerate", "2",
		"-i", filepath.Join("animation", "anim_%05d.png"),
		"-c:v", "libvpx", "-crf", "10", "-b:v", "1M",
		"output.webm",
	}, Args(o))

	o.CRF = 0
	o.Bitrate = ""
	assert.Equal(t, []string{
		"-y", "-framerate", "2",
		"-i", filepath.Join("animation", "anim_%05d.png"),
		"-c:v", "libvpx",
		"output.webm",
	}, Args(o))
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 5))
}
