package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/1F47E/go-trialreel/internal/logger"
	"github.com/1F47E/go-trialreel/internal/meta"
)

// Sink receives the numbered composite frames and the run manifest.
type Sink interface {
	SaveFrame(ctx context.Context, idx int, img image.Image) (meta.FrameEntry, error)
	PutObject(ctx context.Context, name string, data io.Reader) error
	Location() string
}

// LocalSink writes frames into a directory.
type LocalSink struct {
	dir     string
	pattern Pattern
}

func NewLocalSink(dir string, pattern Pattern) (*LocalSink, error) {
	if err := CreateFramesDir(dir); err != nil {
		return nil, err
	}
	return &LocalSink{dir: dir, pattern: pattern}, nil
}

func (s *LocalSink) SaveFrame(ctx context.Context, idx int, img image.Image) (meta.FrameEntry, error) {
	if err := ctx.Err(); err != nil {
		return meta.FrameEntry{}, err
	}
	data, err := EncodeFrame(img)
	if err != nil {
		return meta.FrameEntry{}, err
	}
	name := s.pattern.Path(idx)
	if err := s.PutObject(ctx, name, bytes.NewReader(data)); err != nil {
		return meta.FrameEntry{}, err
	}
	return meta.FrameEntry{Name: name, Checksum: meta.Checksum(data)}, nil
}

func (s *LocalSink) PutObject(_ context.Context, name string, data io.Reader) error {
	path := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", path, err)
	}
	logger.Scope("local sink").Debugf("Saved %s", path)
	return nil
}

func (s *LocalSink) Location() string {
	return s.dir
}
