package meta

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrChecksumMismatch = errors.New("frame checksum mismatch")

// Manifest describes one rendered montage sequence.
// It is written next to the frames so encode and verify can run later.
type Manifest struct {
	CreatedAt time.Time    `yaml:"created_at"`
	Window    Window       `yaml:"window"`
	Grid      Grid         `yaml:"grid"`
	Pattern   string       `yaml:"pattern"`
	Trials    []TrialEntry `yaml:"trials"`
	Frames    []FrameEntry `yaml:"frames"`
}

type Window struct {
	Before     int     `yaml:"before"`
	After      int     `yaml:"after"`
	FrameRate  float64 `yaml:"frame_rate"`
	MaxSpan    int     `yaml:"max_span"`
	FullLength int     `yaml:"full_length"`
}

type Grid struct {
	Rows       int `yaml:"rows"`
	Columns    int `yaml:"columns"`
	CellWidth  int `yaml:"cell_width"`
	CellHeight int `yaml:"cell_height"`
}

type TrialEntry struct {
	HMD        string `yaml:"hmd"`
	FrameStart int    `yaml:"frame_start"`
	FrameEnd   int    `yaml:"frame_end"`
	Row        int    `yaml:"row"`
	Column     int    `yaml:"column"`
	Held       int    `yaml:"held_frames,omitempty"`
}

type FrameEntry struct {
	Name     string `yaml:"name"`
	Checksum uint64 `yaml:"checksum"`
}

func New() *Manifest {
	return &Manifest{CreatedAt: time.Now().UTC()}
}

func (m *Manifest) AddFrame(name string, checksum uint64) {
	m.Frames = append(m.Frames, FrameEntry{Name: name, Checksum: checksum})
}

// IsOk reports whether the manifest covers a complete sequence.
func (m *Manifest) IsOk() bool {
	return m.Window.FullLength > 0 && len(m.Frames) == m.Window.FullLength
}

func (m *Manifest) Print() string {
	return fmt.Sprintf("Trials: %d, Frames: %d/%d, Grid: %dx%d of %dx%d, Created: %s",
		len(m.Trials), len(m.Frames), m.Window.FullLength,
		m.Grid.Rows, m.Grid.Columns, m.Grid.CellWidth, m.Grid.CellHeight,
		m.CreatedAt.Local().Format(time.RFC822))
}

func (m *Manifest) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("cannot encode manifest: %w", err)
	}
	return enc.Close()
}

func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("cannot decode manifest: %w", err)
	}
	return &m, nil
}

// Validate checks data against the checksum recorded for frame idx.
func (m *Manifest) Validate(idx int, data []byte) error {
	if idx < 0 || idx >= len(m.Frames) {
		return fmt.Errorf("frame %d not in manifest", idx)
	}
	f := m.Frames[idx]
	if sum := Checksum(data); sum != f.Checksum {
		return fmt.Errorf("%w: %s has %016x, manifest %016x", ErrChecksumMismatch, f.Name, sum, f.Checksum)
	}
	return nil
}

func Checksum(data []byte) uint64 {
	hasher := fnv.New64a()
	// fnv never returns a write error
	_, _ = hasher.Write(data)
	return hasher.Sum64()
}
