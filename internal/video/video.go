package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/1F47E/go-trialreel/internal/logger"
)

type Options struct {
	Dir       string
	Layout    string // printf frame name, anim_%05d.png
	FrameRate int
	Codec     string
	CRF       int
	Bitrate   string
	Out       string
}

// Args is the ffmpeg command line for a numbered frame sequence
func Args(o Options) []string {
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(o.FrameRate),
		"-i", filepath.Join(o.Dir, o.Layout),
		"-c:v", o.Codec,
	}
	if o.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(o.CRF))
	}
	if o.Bitrate != "" {
		args = append(args, "-b:v", o.Bitrate)
	}
	return append(args, o.Out)
}

// call ffmpeg to encode frames into video
func EncodeFrames(ctx context.Context, o Options) error {
	args := Args(o)
	logger.Log.Debugf("Running ffmpeg command: ffmpeg %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(string(out), 5))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
