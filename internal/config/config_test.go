package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, -20, s.Before)
	assert.Equal(t, 20, s.After)
	assert.Equal(t, 120.0, s.FrameRate)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 3, s.Columns)
	assert.Equal(t, "anim_%05d.png", s.OutputPattern)
	assert.Equal(t, MissingFramesError, s.MissingFrames)
	assert.Equal(t, "libvpx", s.Video.Codec)
	assert.Empty(t, s.S3.Bucket)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FRAME_RATE=60\nGRID_COLUMNS=4\nMISSING_FRAMES=hold\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("FRAME_RATE")
		os.Unsetenv("GRID_COLUMNS")
		os.Unsetenv("MISSING_FRAMES")
	})

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60.0, s.FrameRate)
	assert.Equal(t, 4, s.Columns)
	assert.Equal(t, MissingFramesHold, s.MissingFrames)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "zero frame rate", key: "FRAME_RATE", val: "0"},
		{name: "empty grid", key: "GRID_ROWS", val: "0"},
		{name: "unknown policy", key: "MISSING_FRAMES", val: "blank"},
		{name: "not a number", key: "WINDOW_BEFORE", val: "abc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
