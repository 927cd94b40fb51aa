package adapters

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultMFCCCoeffs is the number of cepstral coefficients kept by the
// mfcc adapter.
const DefaultMFCCCoeffs = 13

// FTSpectrum returns the magnitude Fourier spectrum for each cycle
// (n/2+1 bins per cycle).
func FTSpectrum(cycles [][]float64) [][]float64 {
	if len(cycles) == 0 {
		return nil
	}
	fft := fourier.NewFFT(len(cycles[0]))
	out := make([][]float64, len(cycles))
	for c, cycle := range cycles {
		coeffs := fft.Coefficients(nil, cycle)
		mags := make([]float64, len(coeffs))
		for i, v := range coeffs {
			mags[i] = cmplx.Abs(v)
		}
		out[c] = mags
	}
	return out
}

// HilbertEnvelope returns the Hilbert envelope of each cycle, using an
// FFT-based analytic signal.
func HilbertEnvelope(cycles [][]float64) [][]float64 {
	if len(cycles) == 0 {
		return nil
	}
	n := len(cycles[0])
	fft := fourier.NewCmplxFFT(n)

	// Analytic-signal multiplier: keep DC (and Nyquist for even n),
	// double the positive frequencies, zero the negative ones.
	h := make([]float64, n)
	if n%2 == 0 {
		h[0], h[n/2] = 1, 1
		for i := 1; i < n/2; i++ {
			h[i] = 2
		}
	} else {
		h[0] = 1
		for i := 1; i < (n+1)/2; i++ {
			h[i] = 2
		}
	}

	out := make([][]float64, len(cycles))
	seq := make([]complex128, n)
	for c, cycle := range cycles {
		for i, v := range cycle {
			seq[i] = complex(v, 0)
		}
		coeffs := fft.Coefficients(nil, seq)
		for i := range coeffs {
			coeffs[i] *= complex(h[i], 0)
		}
		analytic := fft.Sequence(nil, coeffs)
		env := make([]float64, n)
		for i, v := range analytic {
			// Sequence is the unnormalised inverse transform.
			env[i] = cmplx.Abs(v) / float64(n)
		}
		out[c] = env
	}
	return out
}

// WaveletEnergies returns the single-level Haar approximation and detail
// energies for each cycle as a two-column matrix. Odd-length cycles drop
// their final sample.
func WaveletEnergies(cycles [][]float64) [][]float64 {
	out := make([][]float64, len(cycles))
	for c, cycle := range cycles {
		n := len(cycle)
		if n%2 == 1 {
			n--
		}
		var energyA, energyD float64
		for i := 0; i < n; i += 2 {
			a := (cycle[i] + cycle[i+1]) / 2
			d := (cycle[i] - cycle[i+1]) / 2
			energyA += a * a
			energyD += d * d
		}
		out[c] = []float64{energyA, energyD}
	}
	return out
}

// MFCC computes a small cepstral approximation per cycle: log-magnitude
// spectrum followed by a direct type-II DCT, keeping nCoeffs
// coefficients.
func MFCC(cycles [][]float64, nCoeffs int) [][]float64 {
	logMags := FTSpectrum(cycles)
	if len(logMags) == 0 {
		return nil
	}
	for _, row := range logMags {
		for i, v := range row {
			row[i] = math.Log(v + 1e-12)
		}
	}

	n := len(logMags[0])
	k := nCoeffs
	if k > n {
		k = n
	}
	// Type-II DCT matrix: D[m][j] = cos(pi*(j+0.5)*m/n).
	dct := make([][]float64, k)
	for m := 0; m < k; m++ {
		dct[m] = make([]float64, n)
		for j := 0; j < n; j++ {
			dct[m][j] = math.Cos(math.Pi * (float64(j) + 0.5) * float64(m) / float64(n))
		}
	}

	out := make([][]float64, len(logMags))
	for c, row := range logMags {
		coeffs := make([]float64, k)
		for m := 0; m < k; m++ {
			var sum float64
			for j := 0; j < n; j++ {
				sum += row[j] * dct[m][j]
			}
			coeffs[m] = sum
		}
		out[c] = coeffs
	}
	return out
}
