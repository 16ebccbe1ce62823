package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var ErrMissingFrame = errors.New("missing frame image")

// FrameRead decodes a png or jpeg source frame.
func FrameRead(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFrame, path)
		}
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("cannot decode frame %s: %w", path, err)
	}
	return img, nil
}

// EncodeFrame returns the png bytes written for a composite frame.
func EncodeFrame(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("cannot encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func CreateFramesDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating frames dir: %w", err)
	}
	return nil
}

// ScanFrames lists the files under dir produced by pattern, sorted by name.
// A directory part of the pattern is resolved against dir.
func ScanFrames(dir string, p Pattern) ([]string, error) {
	match, err := p.matcher()
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, filepath.Dir(p.layout))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !match.MatchString(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames matching %s in %s", p, dir)
	}
	sort.Strings(files)
	return files, nil
}

var verb = regexp.MustCompile(`%0?\d*d`)

func (p Pattern) matcher() (*regexp.Regexp, error) {
	base := filepath.Base(p.layout)
	loc := verb.FindStringIndex(base)
	if loc == nil {
		return nil, fmt.Errorf("pattern %s has no frame index in its file name", p)
	}
	unescape := func(s string) string { return regexp.QuoteMeta(strings.ReplaceAll(s, "%%", "%")) }
	return regexp.Compile("^" + unescape(base[:loc[0]]) + `\d+` + unescape(base[loc[1]:]) + "$")
}
