package adapters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleSynchronousMap(t *testing.T) {
	signal := make([]float64, 10)
	for i := range signal {
		signal[i] = float64(i)
	}

	// fs=4, f0=1 -> cycle length 4, two whole cycles, trailing samples
	// dropped.
	cycles, err := CycleSynchronousMap(signal, 4, 1)
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, []float64{0, 1, 2, 3}, cycles[0])
	assert.Equal(t, []float64{4, 5, 6, 7}, cycles[1])
}

func TestCycleSynchronousMapErrors(t *testing.T) {
	_, err := CycleSynchronousMap([]float64{1, 2}, 4, 1)
	assert.Error(t, err) // too short for one cycle

	_, err = CycleSynchronousMap([]float64{1, 2}, 0, 1)
	assert.Error(t, err)

	_, err = CycleSynchronousMap([]float64{1, 2}, 4, 0)
	assert.Error(t, err)
}

// A pure sinusoid at bin k concentrates its spectrum magnitude there.
func TestFTSpectrumPeak(t *testing.T) {
	const n = 64
	cycle := make([]float64, n)
	for i := range cycle {
		cycle[i] = math.Sin(2 * math.Pi * 4 * float64(i) / n)
	}

	spec := FTSpectrum([][]float64{cycle})
	require.Len(t, spec, 1)
	require.Len(t, spec[0], n/2+1)

	peak := 0
	for i, v := range spec[0] {
		if v > spec[0][peak] {
			peak = i
		}
	}
	assert.Equal(t, 4, peak)
}

// The envelope of a pure sinusoid is its amplitude.
func TestHilbertEnvelope(t *testing.T) {
	const n = 128
	cycle := make([]float64, n)
	for i := range cycle {
		cycle[i] = 3 * math.Sin(2*math.Pi*8*float64(i)/n)
	}

	env := HilbertEnvelope([][]float64{cycle})
	require.Len(t, env, 1)
	for i := 4; i < n-4; i++ {
		assert.InDelta(t, 3.0, env[0][i], 0.05, "index %d", i)
	}
}

func TestWaveletEnergies(t *testing.T) {
	// A constant cycle has zero detail energy.
	constant := []float64{2, 2, 2, 2}
	// An alternating cycle has zero approximation energy.
	alternating := []float64{1, -1, 1, -1}

	out := WaveletEnergies([][]float64{constant, alternating})
	require.Len(t, out, 2)
	assert.Equal(t, []float64{8, 0}, out[0])
	assert.Equal(t, []float64{0, 2}, out[1])
}

func TestWaveletEnergiesOddLength(t *testing.T) {
	out := WaveletEnergies([][]float64{{1, 1, 5}})
	require.Len(t, out, 1)
	assert.Equal(t, []float64{1, 0}, out[0])
}

func TestMFCCShape(t *testing.T) {
	cycle := make([]float64, 32)
	for i := range cycle {
		cycle[i] = math.Sin(2 * math.Pi * 3 * float64(i) / 32)
	}
	out := MFCC([][]float64{cycle}, 13)
	require.Len(t, out, 1)
	assert.Len(t, out[0], 13)
}

func TestRegistry(t *testing.T) {
	names := Available()
	assert.Contains(t, names, "fts")
	assert.Contains(t, names, "hte")
	assert.Contains(t, names, "wcv")
	assert.Contains(t, names, "mfcc")

	a, err := Get("fts")
	require.NoError(t, err)
	assert.Equal(t, "fts", a.Name())

	_, err = Get("nope")
	assert.Error(t, err)
}

func TestBuiltinAdapterEndToEnd(t *testing.T) {
	a, err := Get("wcv")
	require.NoError(t, err)

	signal := make([]float64, 100)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * float64(i) / 20)
	}

	cycles, err := a.Layer1(signal, 20, 1)
	require.NoError(t, err)
	require.Len(t, cycles, 5)

	outputs, err := a.Layer2(cycles, 20)
	require.NoError(t, err)
	energies, ok := outputs["energies"]
	require.True(t, ok)
	assert.Len(t, energies, 5)

	_, err = a.Layer2(nil, 20)
	assert.Error(t, err)
}
