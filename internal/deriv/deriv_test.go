package deriv

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentralDifferenceLinearRamp(t *testing.T) {
	est, err := NewEstimator(CentralDifference, 3, 0)
	require.NoError(t, err)

	out, err := est.Estimate([]float64{0, 10, 20, 30, 40}, 1)
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, 10.0, v, "index %d", i)
	}
}

func TestLinearRampExactForAllMethods(t *testing.T) {
	series := []float64{0, 10, 20, 30, 40, 50, 60}
	for _, method := range []Method{CentralDifference, LocalLinear, SavitzkyGolay} {
		est, err := NewEstimator(method, 5, 0)
		require.NoError(t, err)
		out, err := est.Estimate(series, 0.5)
		require.NoError(t, err)
		for i, v := range out {
			assert.InDelta(t, 20.0, v, 1e-9, "%s index %d", method, i)
		}
	}
}

// All three methods must approximate cos(t) from a fine sampling of
// sin(t) within 1e-3 at interior indices for windows 3, 5 and 7.
func TestSineDerivativeAccuracy(t *testing.T) {
	const (
		dt = 1e-3
		n  = 1000
	)
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Sin(float64(i) * dt)
	}

	for _, method := range []Method{CentralDifference, LocalLinear, SavitzkyGolay} {
		for _, w := range []int{3, 5, 7} {
			est, err := NewEstimator(method, w, 0)
			require.NoError(t, err)
			out, err := est.Estimate(series, dt)
			require.NoError(t, err)
			for i := w; i < n-w; i++ {
				want := math.Cos(float64(i) * dt)
				if math.Abs(out[i]-want) > 1e-3 {
					t.Fatalf("%s W=%d index %d: got %g want %g", method, w, i, out[i], want)
				}
			}
		}
	}
}

// A window spanning the whole series is valid input; the boundary
// stencils must clamp rather than read past the end.
func TestWindowEqualsSeriesLength(t *testing.T) {
	series := []float64{0, 10, 20, 30, 40}
	for _, method := range []Method{CentralDifference, LocalLinear, SavitzkyGolay} {
		est, err := NewEstimator(method, len(series), 0)
		require.NoError(t, err)
		out, err := est.Estimate(series, 1)
		require.NoError(t, err, "%s", method)
		require.Len(t, out, len(series))
		for i, v := range out {
			assert.InDelta(t, 10.0, v, 1e-9, "%s index %d", method, i)
		}
	}
}

func TestNearFullWindowFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{5, 6, 7} {
		series := make([]float64, n)
		for i := range series {
			series[i] = rng.NormFloat64()
		}
		for _, method := range []Method{CentralDifference, LocalLinear, SavitzkyGolay} {
			est, err := NewEstimator(method, 5, 0)
			require.NoError(t, err)
			out, err := est.Estimate(series, 0.5)
			require.NoError(t, err)
			for i, v := range out {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0),
					"%s n=%d index %d not finite", method, n, i)
			}
		}
	}
}

func TestEveryIndexFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	series := make([]float64, 50)
	for i := range series {
		series[i] = rng.NormFloat64()
	}

	for _, method := range []Method{CentralDifference, LocalLinear, SavitzkyGolay} {
		for _, w := range []int{3, 7, 11} {
			est, err := NewEstimator(method, w, 0)
			require.NoError(t, err)
			out, err := est.Estimate(series, 0.1)
			require.NoError(t, err)
			require.Len(t, out, len(series))
			for i, v := range out {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s W=%d index %d not finite", method, w, i)
			}
		}
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name      string
		method    Method
		window    int
		polyOrder int
	}{
		{"zero window", CentralDifference, 0, 0},
		{"even window", CentralDifference, 4, 0},
		{"negative window", LocalLinear, -3, 0},
		{"polyorder equals window", SavitzkyGolay, 3, 3},
		{"polyorder above window", SavitzkyGolay, 3, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEstimator(tc.method, tc.window, tc.polyOrder)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestWindowExceedsSeries(t *testing.T) {
	est, err := NewEstimator(CentralDifference, 7, 0)
	require.NoError(t, err)
	_, err = est.Estimate([]float64{1, 2, 3}, 1)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNonPositiveSpacing(t *testing.T) {
	est, err := NewEstimator(CentralDifference, 3, 0)
	require.NoError(t, err)
	_, err = est.Estimate([]float64{1, 2, 3}, 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"central_difference", "local_linear", "savitzky_golay"} {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, Method(name), m)
	}
	_, err := ParseMethod("spline")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGradient(t *testing.T) {
	// Non-uniform timestamps, quadratic series p = t^2 -> dp/dt = 2t for
	// the central two-point scheme.
	times := []float64{0, 1, 3, 6}
	series := make([]float64, len(times))
	for i, ts := range times {
		series[i] = ts * ts
	}

	out, err := Gradient(series, times)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.InDelta(t, 1.0, out[0], 1e-12)
	// Two-point central gradient of t^2 over [t-a, t+b] is exactly 2t
	// plus the asymmetry term; check against the closed form.
	assert.InDelta(t, (9.0-0.0)/3.0, out[1], 1e-12)
	assert.InDelta(t, (36.0-1.0)/5.0, out[2], 1e-12)
	assert.InDelta(t, (36.0-9.0)/3.0, out[3], 1e-12)
}

func TestGradientValidation(t *testing.T) {
	var verr *ValidationError

	_, err := Gradient([]float64{1}, []float64{0})
	assert.ErrorAs(t, err, &verr)

	_, err = Gradient([]float64{1, 2}, []float64{0})
	assert.ErrorAs(t, err, &verr)
}
