package config

import (
	"fmt"
	"image"
	"image/color"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// NOTE: overlay layout is fixed, positions are top-left corners of the text
const (
	FontDPI = 72

	TextContact = "Contact!"

	PathManifest = "manifest.yaml"
)

var (
	PosHMD       = image.Pt(50, 0)
	PosTimestamp = image.Pt(50, 50)
	PosReaction  = image.Pt(50, 100)
	PosContact   = image.Pt(50, 150)

	ColorText     = color.RGBA{0, 0, 0, 255}
	ColorReaction = color.RGBA{255, 0, 0, 255}
	ColorContact  = color.RGBA{255, 255, 255, 255}
)

// Missing frame policies
const (
	MissingFramesError = "error"
	MissingFramesHold  = "hold"
)

type Settings struct {
	Before    int     `env:"WINDOW_BEFORE" envDefault:"-20"`
	After     int     `env:"WINDOW_AFTER" envDefault:"20"`
	FrameRate float64 `env:"FRAME_RATE" envDefault:"120"`

	Rows    int `env:"GRID_ROWS" envDefault:"2"`
	Columns int `env:"GRID_COLUMNS" envDefault:"3"`

	OutputDir     string `env:"OUTPUT_DIR" envDefault:"animation"`
	OutputPattern string `env:"OUTPUT_PATTERN" envDefault:"anim_%05d.png"`

	FontPath string  `env:"FONT_PATH"`
	FontSize float64 `env:"FONT_SIZE" envDefault:"50"`

	Workers       int    `env:"WORKERS" envDefault:"0"`
	MissingFrames string `env:"MISSING_FRAMES" envDefault:"error"`

	Video VideoSettings
	S3    S3Settings
}

type VideoSettings struct {
	FrameRate int    `env:"VIDEO_FRAMERATE" envDefault:"2"`
	Codec     string `env:"VIDEO_CODEC" envDefault:"libvpx"`
	CRF       int    `env:"VIDEO_CRF" envDefault:"10"`
	Bitrate   string `env:"VIDEO_BITRATE" envDefault:"1M"`
	Out       string `env:"VIDEO_OUT" envDefault:"output.webm"`
}

// S3 sink is used instead of OutputDir when Bucket is set
type S3Settings struct {
	Bucket          string `env:"S3_BUCKET"`
	Prefix          string `env:"S3_PREFIX" envDefault:"animation"`
	EndpointURL     string `env:"S3_ENDPOINT_URL"`
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Load reads the optional env file first, then parses the environment.
func Load(envFile string) (Settings, error) {
	var s Settings
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return s, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	}
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("error parsing config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.FrameRate <= 0 {
		return fmt.Errorf("FRAME_RATE must be positive, got %v", s.FrameRate)
	}
	if s.Rows <= 0 || s.Columns <= 0 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", s.Rows, s.Columns)
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("FONT_SIZE must be positive, got %v", s.FontSize)
	}
	switch s.MissingFrames {
	case MissingFramesError, MissingFramesHold:
	default:
		return fmt.Errorf("MISSING_FRAMES must be %q or %q, got %q", MissingFramesError, MissingFramesHold, s.MissingFrames)
	}
	return nil
}
