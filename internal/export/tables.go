// Package export materialises alignment output as flat tables: the
// in-memory signal/file/pressure-map registries and the per-midpoint CSV
// consumed downstream.
package export

import (
	"fmt"
	"sort"
)

// Key is the composite primary key shared by all tables.
type Key struct {
	SID       string
	FileStamp string
	Idx       int
}

func (k Key) less(o Key) bool {
	if k.SID != o.SID {
		return k.SID < o.SID
	}
	if k.FileStamp != o.FileStamp {
		return k.FileStamp < o.FileStamp
	}
	return k.Idx < o.Idx
}

// SignalRow is one oscillator sample with optional alignment annotations.
type SignalRow struct {
	Key
	Value          float64
	AlignmentError *float64
	DerivLo        *float64
	DerivHi        *float64
}

// Signals stores oscillator samples keyed by (sid, file_stamp, idx).
type Signals struct {
	rows map[Key]SignalRow
}

// NewSignals returns an empty table.
func NewSignals() *Signals { return &Signals{rows: map[Key]SignalRow{}} }

// Add inserts a row; duplicate primary keys are an error.
func (s *Signals) Add(row SignalRow) error {
	if _, ok := s.rows[row.Key]; ok {
		return fmt.Errorf("duplicate primary key %+v", row.Key)
	}
	s.rows[row.Key] = row
	return nil
}

// Len returns the number of rows.
func (s *Signals) Len() int { return len(s.rows) }

// Get looks a row up by key.
func (s *Signals) Get(k Key) (SignalRow, bool) {
	row, ok := s.rows[k]
	return row, ok
}

// Records returns the rows sorted by key for deterministic output.
func (s *Signals) Records() []SignalRow {
	out := make([]SignalRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out
}

// OscFileRow associates a sample key with its source file path.
type OscFileRow struct {
	Key
	Path string
}

// OscFiles maps sample keys to the files they were read from.
type OscFiles struct {
	rows map[Key]OscFileRow
}

// NewOscFiles returns an empty table.
func NewOscFiles() *OscFiles { return &OscFiles{rows: map[Key]OscFileRow{}} }

// Add inserts a row; duplicate primary keys are an error.
func (s *OscFiles) Add(row OscFileRow) error {
	if _, ok := s.rows[row.Key]; ok {
		return fmt.Errorf("duplicate primary key %+v", row.Key)
	}
	s.rows[row.Key] = row
	return nil
}

// Len returns the number of rows.
func (s *OscFiles) Len() int { return len(s.rows) }

// Records returns the rows sorted by key.
func (s *OscFiles) Records() []OscFileRow {
	out := make([]OscFileRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out
}

// File2PressureRow maps a sample key to its pressure label.
type File2PressureRow struct {
	Key
	PressureLabel string
}

// File2PressureMap links samples to pressure labels.
type File2PressureMap struct {
	rows map[Key]File2PressureRow
}

// NewFile2PressureMap returns an empty table.
func NewFile2PressureMap() *File2PressureMap {
	return &File2PressureMap{rows: map[Key]File2PressureRow{}}
}

// Add inserts a row; duplicate primary keys are an error.
func (s *File2PressureMap) Add(row File2PressureRow) error {
	if _, ok := s.rows[row.Key]; ok {
		return fmt.Errorf("duplicate primary key %+v", row.Key)
	}
	s.rows[row.Key] = row
	return nil
}

// Len returns the number of rows.
func (s *File2PressureMap) Len() int { return len(s.rows) }

// Records returns the rows sorted by key.
func (s *File2PressureMap) Records() []File2PressureRow {
	out := make([]File2PressureRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out
}

// TallRow is one consolidated record merging all three tables on their
// shared key. Absent columns stay nil.
type TallRow struct {
	Key
	Path           *string
	Value          *float64
	AlignmentError *float64
	DerivLo        *float64
	DerivHi        *float64
	PressureLabel  *string
}

// TallExport merges the tables into one consolidated, key-sorted list.
// Sorting makes the output deterministic for testing and downstream
// processing.
func TallExport(signals *Signals, files *OscFiles, mappings *File2PressureMap) []TallRow {
	keys := map[Key]bool{}
	for k := range signals.rows {
		keys[k] = true
	}
	for k := range files.rows {
		keys[k] = true
	}
	for k := range mappings.rows {
		keys[k] = true
	}

	sorted := make([]Key, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	out := make([]TallRow, 0, len(sorted))
	for _, k := range sorted {
		row := TallRow{Key: k}
		if f, ok := files.rows[k]; ok {
			path := f.Path
			row.Path = &path
		}
		if s, ok := signals.rows[k]; ok {
			value := s.Value
			row.Value = &value
			row.AlignmentError = s.AlignmentError
			row.DerivLo = s.DerivLo
			row.DerivHi = s.DerivHi
		}
		if m, ok := mappings.rows[k]; ok {
			label := m.PressureLabel
			row.PressureLabel = &label
		}
		out = append(out, row)
	}
	return out
}
