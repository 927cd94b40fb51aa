// Package adapters hosts the pluggable cycle-segmentation and transform
// library. An adapter maps a raw observation signal into a
// cycle-synchronous representation (layer 1) and applies named signal
// transforms to the mapped cycles (layer 2).
package adapters

import (
	"fmt"
	"sort"
	"sync"

	"github.com/echopress-data/echopress/internal/sigutil"
)

// Adapter is the two-layer transform contract.
type Adapter interface {
	// Name identifies the adapter in the registry.
	Name() string
	// Layer1 segments signal into a cycle-synchronous [cycle][sample]
	// matrix using the sampling frequency fs and fundamental f0 (Hz).
	Layer1(signal []float64, fs, f0 float64) ([][]float64, error)
	// Layer2 applies the adapter's transforms to the mapped cycles and
	// returns named output matrices.
	Layer2(cycles [][]float64, fs float64) (map[string][][]float64, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Adapter{}
)

// Register adds an adapter to the registry, replacing any previous
// adapter of the same name.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[a.Name()] = a
}

// Get retrieves an adapter by name.
func Get(name string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q (have %v)", name, Available())
	}
	return a, nil
}

// Available returns the sorted registered adapter names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CycleSynchronousMap segments signal into (nCycles, cycleLen) slices
// where cycleLen = fs/f0. Trailing samples that do not fill a whole cycle
// are dropped.
func CycleSynchronousMap(signal []float64, fs, f0 float64) ([][]float64, error) {
	if f0 <= 0 || fs <= 0 {
		return nil, fmt.Errorf("fs and f0 must be positive, got fs=%g f0=%g", fs, f0)
	}
	cycleLen := int(fs / f0)
	if cycleLen <= 0 {
		return nil, fmt.Errorf("cycle length must be positive (fs=%g f0=%g)", fs, f0)
	}
	spans, err := sigutil.Spans(len(signal), cycleLen, cycleLen)
	if err != nil {
		return nil, fmt.Errorf("signal of %d samples too short for a single cycle of %d: %w", len(signal), cycleLen, err)
	}
	out := make([][]float64, len(spans))
	for c, span := range spans {
		out[c] = signal[span.Start:span.End]
	}
	return out, nil
}

// builtin is a single-transform adapter over the shared cycle map.
type builtin struct {
	name      string
	outputKey string
	transform func(cycles [][]float64) [][]float64
}

func (b builtin) Name() string { return b.name }

func (b builtin) Layer1(signal []float64, fs, f0 float64) ([][]float64, error) {
	return CycleSynchronousMap(signal, fs, f0)
}

func (b builtin) Layer2(cycles [][]float64, fs float64) (map[string][][]float64, error) {
	if len(cycles) == 0 {
		return nil, fmt.Errorf("no cycles to transform")
	}
	return map[string][][]float64{b.outputKey: b.transform(cycles)}, nil
}

func init() {
	Register(builtin{name: "fts", outputKey: "spectrum", transform: FTSpectrum})
	Register(builtin{name: "hte", outputKey: "envelope", transform: HilbertEnvelope})
	Register(builtin{name: "wcv", outputKey: "energies", transform: WaveletEnergies})
	Register(builtin{name: "mfcc", outputKey: "mfcc", transform: func(cycles [][]float64) [][]float64 {
		return MFCC(cycles, DefaultMFCCCoeffs)
	}})
}
