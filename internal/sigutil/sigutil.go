// Package sigutil provides small signal helpers shared by the adapters
// and export layers.
package sigutil

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Span marks a half-open [Start, End) slice of a sequence.
type Span struct {
	Start, End int
}

// Spans enumerates sliding windows of the given size over n samples,
// advancing by step each iteration.
func Spans(n, size, step int) ([]Span, error) {
	if size <= 0 || step <= 0 {
		return nil, fmt.Errorf("size and step must be positive, got size=%d step=%d", size, step)
	}
	if size > n {
		return nil, fmt.Errorf("window size %d larger than data length %d", size, n)
	}
	var out []Span
	for start := 0; start+size <= n; start += step {
		out = append(out, Span{Start: start, End: start + size})
	}
	return out, nil
}

// RMS returns the root-mean-square of data.
func RMS(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("data must not be empty")
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data))), nil
}

// MovingAverage computes the simple moving average; the result has
// len(data)-window+1 elements.
func MovingAverage(data []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if window > len(data) {
		return nil, fmt.Errorf("window %d larger than data length %d", window, len(data))
	}
	out := make([]float64, 0, len(data)-window+1)
	total := floats.Sum(data[:window])
	out = append(out, total/float64(window))
	for i := window; i < len(data); i++ {
		total += data[i] - data[i-window]
		out = append(out, total/float64(window))
	}
	return out, nil
}
