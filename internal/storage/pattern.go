package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// str.format style placeholders used in trial tables:
// {}, {0}, {:d}, {:05}, {:05d}, {0:05d}
var formatField = regexp.MustCompile(`\{0?(?::(0?\d*)d?)?\}`)

// Pattern turns a frame index into a file path.
type Pattern struct {
	raw    string
	layout string
}

// ParsePattern accepts either one {} placeholder or one printf integer verb.
func ParsePattern(raw string) (Pattern, error) {
	escape := func(s string) string { return strings.ReplaceAll(s, "%", "%%") }

	if matches := formatField.FindAllStringSubmatchIndex(raw, -1); len(matches) > 0 {
		if len(matches) != 1 {
			return Pattern{}, fmt.Errorf("pattern %q must hold exactly one frame index placeholder, found %d", raw, len(matches))
		}
		m := matches[0]
		width := ""
		if m[2] >= 0 {
			width = raw[m[2]:m[3]]
		}
		layout := escape(raw[:m[0]]) + "%" + width + "d" + escape(raw[m[1]:])
		return Pattern{raw: raw, layout: layout}, nil
	}

	bare := strings.ReplaceAll(raw, "%%", "")
	if n := strings.Count(bare, "%"); n != 1 {
		return Pattern{}, fmt.Errorf("pattern %q must hold exactly one frame index, found %d", raw, n)
	}
	if !verb.MatchString(bare) {
		return Pattern{}, fmt.Errorf("pattern %q frame index must be an integer verb like %%05d", raw)
	}
	return Pattern{raw: raw, layout: raw}, nil
}

func (p Pattern) Path(frame int) string {
	return fmt.Sprintf(p.layout, frame)
}

func (p Pattern) String() string {
	return p.raw
}

// Layout is the printf form, which is also what ffmpeg reads.
func (p Pattern) Layout() string {
	return p.layout
}
