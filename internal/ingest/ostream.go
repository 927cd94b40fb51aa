package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/echopress-data/echopress/internal/align"
)

// OStream is one capture-window record: per-sample timestamps, one or
// more observation channels and any extra metadata the file carried.
type OStream struct {
	SessionID  string
	Timestamps []float64
	Channels   [][]float64 // [sample][channel]
	Meta       map[string]interface{}
}

// Window reduces the record to its alignment window.
func (o *OStream) Window() align.Window {
	return align.StampsWindow(o.Timestamps)
}

// Channel returns one observation channel as a column.
func (o *OStream) Channel(k int) ([]float64, error) {
	if len(o.Channels) == 0 {
		return nil, fmt.Errorf("ostream %q has no channels", o.SessionID)
	}
	if k < 0 || k >= len(o.Channels[0]) {
		return nil, fmt.Errorf("channel index %d out of range (have %d)", k, len(o.Channels[0]))
	}
	out := make([]float64, len(o.Channels))
	for i, row := range o.Channels {
		out[i] = row[k]
	}
	return out, nil
}

// LoadOStream loads an O-stream file, dispatching on the extension:
//
//   - .json: an object with session_id, timestamps and channels keys;
//     extra keys are preserved in Meta.
//   - .csv: a header row with session_id and timestamp columns followed
//     by one column per channel.
func LoadOStream(path string) (*OStream, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".ndjson", ".txt":
		return loadOStreamJSON(path)
	case ".csv":
		return loadOStreamCSV(path)
	}
	return nil, fmt.Errorf("unsupported O-stream file format %q", filepath.Ext(path))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadOStreamJSON(path string) (*OStream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ostream file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}

	out := &OStream{SessionID: stem(path), Meta: map[string]interface{}{}}
	if v, ok := raw["session_id"]; ok {
		if err := json.Unmarshal(v, &out.SessionID); err != nil {
			return nil, fmt.Errorf("%s: invalid session_id: %w", path, err)
		}
	}
	if v, ok := raw["timestamps"]; ok {
		if err := json.Unmarshal(v, &out.Timestamps); err != nil {
			return nil, fmt.Errorf("%s: invalid timestamps: %w", path, err)
		}
	}
	if v, ok := raw["channels"]; ok {
		if err := json.Unmarshal(v, &out.Channels); err != nil {
			// Accept a flat single-channel array as well.
			var flat []float64
			if err2 := json.Unmarshal(v, &flat); err2 != nil {
				return nil, fmt.Errorf("%s: invalid channels: %w", path, err)
			}
			out.Channels = make([][]float64, len(flat))
			for i, f := range flat {
				out.Channels[i] = []float64{f}
			}
		}
	}
	for key, v := range raw {
		switch key {
		case "session_id", "timestamps", "channels":
			continue
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err == nil {
			out.Meta[key] = val
		}
	}
	return out, nil
}

func loadOStreamCSV(path string) (*OStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ostream file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: CSV file must have a header row: %w", path, err)
	}

	tsCol := -1
	sidCol := -1
	var channelCols []int
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "timestamp":
			tsCol = i
		case "session_id":
			sidCol = i
		default:
			channelCols = append(channelCols, i)
		}
	}
	if tsCol < 0 {
		return nil, fmt.Errorf("%s: CSV header is missing a timestamp column", path)
	}

	out := &OStream{SessionID: stem(path), Meta: map[string]interface{}{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row must not silently truncate the stream: the
			// midpoint would shift and the record would align wrongly.
			return nil, fmt.Errorf("%s: malformed CSV row: %w", path, err)
		}
		if sidCol >= 0 && out.SessionID == stem(path) && row[sidCol] != "" {
			out.SessionID = row[sidCol]
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(row[tsCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid timestamp %q: %w", path, row[tsCol], err)
		}
		channels := make([]float64, len(channelCols))
		for k, col := range channelCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid value %q in column %s: %w", path, row[col], header[col], err)
			}
			channels[k] = v
		}
		out.Timestamps = append(out.Timestamps, ts)
		out.Channels = append(out.Channels, channels)
	}
	return out, nil
}
