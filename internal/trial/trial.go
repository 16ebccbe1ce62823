package trial

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1F47E/go-trialreel/internal/logger"
)

// Header names of the trials table
const (
	ColFrameStart = "frame start"
	ColFrameEnd   = "frame end"
	ColHMD        = "HMD"
	ColFilename   = "filename"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrMalformedRow  = errors.New("malformed row")
	ErrNoTrials      = errors.New("no trials in table")
)

// Record is one recorded trial.
// FrameStart is the contact frame, FrameEnd the reaction frame.
type Record struct {
	FrameStart int
	FrameEnd   int
	HMD        string
	Pattern    string
}

func (r Record) Span() int {
	return r.FrameEnd - r.FrameStart
}

func (r Record) Print() string {
	return fmt.Sprintf("HMD: %s, Start: %d, End: %d, Span: %d, Pattern: %s", r.HMD, r.FrameStart, r.FrameEnd, r.Span(), r.Pattern)
}

func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open trials table: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a header row and one trial per following row, keeping row order.
func Parse(r io.Reader) ([]Record, error) {
	log := logger.Scope("trial loader")

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// stray quotes around patterns are stripped later
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoTrials
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		log.Debugf("Loaded trial %d: %s", len(records), rec.Print())
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoTrials
	}
	return records, nil
}

type columns struct {
	start, end, hmd, filename int
}

func columnIndex(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		// BOM is left by some spreadsheet exports
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.TrimSpace(h)] = i
	}
	var c columns
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{ColFrameStart, &c.start},
		{ColFrameEnd, &c.end},
		{ColHMD, &c.hmd},
		{ColFilename, &c.filename},
	} {
		i, ok := idx[col.name]
		if !ok {
			return c, fmt.Errorf("%w: %q", ErrMissingColumn, col.name)
		}
		*col.dst = i
	}
	return c, nil
}

func parseRow(row []string, c columns) (Record, error) {
	var rec Record
	get := func(i int, name string) (string, error) {
		if i >= len(row) {
			return "", fmt.Errorf("%w: no value for %q", ErrMalformedRow, name)
		}
		return strings.TrimSpace(row[i]), nil
	}

	start, err := get(c.start, ColFrameStart)
	if err != nil {
		return rec, err
	}
	if rec.FrameStart, err = strconv.Atoi(start); err != nil {
		return rec, fmt.Errorf("%w: %q is not a frame number: %v", ErrMalformedRow, ColFrameStart, err)
	}
	end, err := get(c.end, ColFrameEnd)
	if err != nil {
		return rec, err
	}
	if rec.FrameEnd, err = strconv.Atoi(end); err != nil {
		return rec, fmt.Errorf("%w: %q is not a frame number: %v", ErrMalformedRow, ColFrameEnd, err)
	}
	if rec.HMD, err = get(c.hmd, ColHMD); err != nil {
		return rec, err
	}
	pattern, err := get(c.filename, ColFilename)
	if err != nil {
		return rec, err
	}
	rec.Pattern = strings.Trim(pattern, `"`)
	return rec, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
