package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Suffix registries for dataset scanning. CSV files default to the
// O-stream side unless their stem matches a configured P-stream pattern.
var (
	pstreamExtensions = map[string]bool{".pstream": true, ".p": true, ".ps": true}
	ostreamExtensions = map[string]bool{".ostream": true, ".o": true, ".os": true, ".json": true, ".csv": true}
)

// Indexer walks a dataset directory and builds registries of available
// P-stream and O-stream files keyed by session id (the file stem). It is
// agnostic to the exact dataset layout.
type Indexer struct {
	Root string
	// PStreamCSVPatterns marks CSV stems (substring match, case
	// insensitive) that hold pressure data rather than observations.
	PStreamCSVPatterns []string

	pstreams map[string][]string
	ostreams map[string][]string
}

// NewIndexer scans root and returns the populated index.
func NewIndexer(root string, pstreamCSVPatterns ...string) (*Indexer, error) {
	ix := &Indexer{Root: root, PStreamCSVPatterns: pstreamCSVPatterns}
	if err := ix.Scan(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Scan rebuilds the registries from the filesystem.
func (ix *Indexer) Scan() error {
	ix.pstreams = map[string][]string{}
	ix.ostreams = map[string][]string{}

	err := filepath.WalkDir(ix.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		sid := stem(path)
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case ix.isPStreamCSV(path):
			ix.pstreams[sid] = append(ix.pstreams[sid], path)
		case pstreamExtensions[ext]:
			ix.pstreams[sid] = append(ix.pstreams[sid], path)
		case ostreamExtensions[ext]:
			ix.ostreams[sid] = append(ix.ostreams[sid], path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan dataset root %s: %w", ix.Root, err)
	}
	return nil
}

func (ix *Indexer) isPStreamCSV(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	s := strings.ToLower(stem(path))
	for _, p := range ix.PStreamCSVPatterns {
		if strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Sessions returns the sorted session identifiers known to the indexer.
func (ix *Indexer) Sessions() []string {
	seen := map[string]bool{}
	for sid := range ix.pstreams {
		seen[sid] = true
	}
	for sid := range ix.ostreams {
		seen[sid] = true
	}
	out := make([]string, 0, len(seen))
	for sid := range seen {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}

// PStreams returns P-stream files for a session (possibly empty).
func (ix *Indexer) PStreams(sessionID string) []string { return ix.pstreams[sessionID] }

// OStreams returns O-stream files for a session (possibly empty).
func (ix *Indexer) OStreams(sessionID string) []string { return ix.ostreams[sessionID] }

// FirstPStream returns the first P-stream file for a session.
func (ix *Indexer) FirstPStream(sessionID string) (string, bool) {
	files := ix.pstreams[sessionID]
	if len(files) == 0 {
		return "", false
	}
	return files[0], true
}

// FirstOStream returns the first O-stream file for a session.
func (ix *Indexer) FirstOStream(sessionID string) (string, bool) {
	files := ix.ostreams[sessionID]
	if len(files) == 0 {
		return "", false
	}
	return files[0], true
}
