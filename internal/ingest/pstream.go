// Package ingest parses P-stream and O-stream files into the in-memory
// sequences consumed by the alignment engine.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNonMonotonic marks a P-stream whose timestamps are not strictly
// increasing. The engine treats stream ordering as a precondition, so
// the violation is surfaced here at ingest time.
var ErrNonMonotonic = errors.New("pstream timestamps must be strictly increasing")

// timestampRE recognises the timestamp grammar. The grammar is
// intentionally permissive to interoperate with a variety of datasets:
// ISO-8601 strings, HH:MM:SS strings and plain floating point seconds
// since the Unix epoch.
var timestampRE = regexp.MustCompile(
	`^\s*(?:` +
		`(?P<iso>\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)` +
		`|(?P<hms>\d{2}:\d{2}:\d{2}(?:\.\d+)?)` +
		`|(?P<float>\d+(?:\.\d+)?)` +
		`)\s*$`)

// ParseTimestamp parses one timestamp token into seconds since the Unix
// epoch. Bare HH:MM:SS tokens are anchored to today's UTC date.
func ParseTimestamp(token string) (float64, error) {
	m := timestampRE.FindStringSubmatch(token)
	if m == nil {
		return 0, fmt.Errorf("unrecognised timestamp %q", token)
	}
	iso := m[timestampRE.SubexpIndex("iso")]
	hms := m[timestampRE.SubexpIndex("hms")]
	flt := m[timestampRE.SubexpIndex("float")]

	switch {
	case iso != "":
		layout := "2006-01-02T15:04:05"
		switch {
		case strings.ContainsAny(iso, "Z+") || strings.Count(iso, "-") > 2:
			layout = time.RFC3339Nano
		case strings.Contains(iso, "."):
			layout = "2006-01-02T15:04:05.999999999"
		}
		ts, err := time.Parse(layout, iso)
		if err != nil {
			return 0, fmt.Errorf("unrecognised timestamp %q: %w", token, err)
		}
		return float64(ts.UnixNano()) / float64(time.Second), nil

	case hms != "":
		layout := "15:04:05"
		if strings.Contains(hms, ".") {
			layout = "15:04:05.999999999"
		}
		clock, err := time.Parse(layout, hms)
		if err != nil {
			return 0, fmt.Errorf("unrecognised timestamp %q: %w", token, err)
		}
		now := time.Now().UTC()
		ts := time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
		return float64(ts.UnixNano()) / float64(time.Second), nil

	default:
		return strconv.ParseFloat(flt, 64)
	}
}

// PStream is an ordered pressure measurement sequence with strictly
// increasing timestamps (seconds since epoch). Construction validates
// the ordering; afterwards the stream is treated as immutable.
type PStream struct {
	Times     []float64
	Pressures []float64
}

// Len returns the number of samples.
func (p *PStream) Len() int { return len(p.Times) }

// NewPStream validates parallel timestamp/pressure slices.
func NewPStream(times, pressures []float64) (*PStream, error) {
	if len(times) != len(pressures) {
		return nil, fmt.Errorf("timestamps length %d does not match pressures length %d", len(times), len(pressures))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w: index %d (%g) follows %g", ErrNonMonotonic, i, times[i], times[i-1])
		}
	}
	return &PStream{Times: times, Pressures: pressures}, nil
}

// ReadPStream parses a line-oriented P-stream: one record per line,
// timestamp then pressure, separated by a comma or whitespace. Blank
// lines and '#' comments are skipped.
func ReadPStream(r io.Reader) (*PStream, error) {
	var times, pressures []float64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var fields []string
		if strings.Contains(line, ",") {
			fields = strings.Split(line, ",")
		} else {
			fields = strings.Fields(line)
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected timestamp and pressure, got %q", lineNo, line)
		}

		ts, err := ParseTimestamp(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		pressure, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pressure %q: %w", lineNo, fields[1], err)
		}
		times = append(times, ts)
		pressures = append(pressures, pressure)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pstream: %w", err)
	}
	return NewPStream(times, pressures)
}

// LoadPStream reads a P-stream file from disk.
func LoadPStream(path string) (*PStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pstream file: %w", err)
	}
	defer f.Close()
	s, err := ReadPStream(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
