package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/1F47E/go-trialreel/internal/config"
	"github.com/1F47E/go-trialreel/internal/meta"
	"github.com/1F47E/go-trialreel/internal/overlay"
	"github.com/1F47E/go-trialreel/internal/storage"
	"github.com/1F47E/go-trialreel/internal/workers"
)

var (
	ErrFrameCount = errors.New("frame count does not match manifest")
	ErrNotLocal   = errors.New("encode and verify need a local render, S3_BUCKET is set")
)

type Core struct {
	ctx      context.Context
	settings config.Settings
	pattern  storage.Pattern
	renderer *overlay.Renderer
	sink     storage.Sink
	worker   *workers.Pool
	progress io.Writer
}

type Option func(*Core)

// WithProgressOutput redirects the progress bar, io.Discard silences it.
func WithProgressOutput(w io.Writer) Option {
	return func(c *Core) { c.progress = w }
}

// WithSink replaces the sink picked from settings.
func WithSink(s storage.Sink) Option {
	return func(c *Core) { c.sink = s }
}

func NewCore(ctx context.Context, s config.Settings, opts ...Option) (*Core, error) {
	pattern, err := storage.ParsePattern(s.OutputPattern)
	if err != nil {
		return nil, fmt.Errorf("OUTPUT_PATTERN: %w", err)
	}
	renderer, err := overlay.NewRenderer(s.FontPath, s.FontSize)
	if err != nil {
		return nil, err
	}
	c := &Core{
		ctx:      ctx,
		settings: s,
		pattern:  pattern,
		renderer: renderer,
		worker:   workers.NewPool(s.Workers),
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// sink is created lazily so inspect, encode and verify never touch the output location
func (c *Core) frameSink() (storage.Sink, error) {
	if c.sink != nil {
		return c.sink, nil
	}
	var err error
	if c.settings.S3.Bucket != "" {
		s3 := c.settings.S3
		c.sink, err = storage.NewS3Sink(c.ctx, storage.S3SinkConfig{
			Bucket:          s3.Bucket,
			Prefix:          s3.Prefix,
			EndpointURL:     s3.EndpointURL,
			Region:          s3.Region,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
		}, c.pattern)
	} else {
		c.sink, err = storage.NewLocalSink(c.settings.OutputDir, c.pattern)
	}
	return c.sink, err
}

func (c *Core) readManifest() (*meta.Manifest, error) {
	if c.settings.S3.Bucket != "" {
		return nil, ErrNotLocal
	}
	f, err := os.Open(filepath.Join(c.settings.OutputDir, config.PathManifest))
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest, render first: %w", err)
	}
	defer f.Close()
	return meta.Parse(f)
}
