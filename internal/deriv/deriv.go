// Package deriv estimates first derivatives of uniformly sampled series.
//
// All estimators operate on an odd window of W consecutive samples and
// produce a finite value at every index: samples near the boundaries fall
// back to one-sided schemes or inward-shifted windows instead of yielding
// NaN. The method set is closed; callers resolve an Estimator once from
// configuration and reuse it.
package deriv

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Method identifies one of the supported derivative estimation schemes.
type Method string

// Supported methods.
const (
	CentralDifference Method = "central_difference"
	LocalLinear       Method = "local_linear"
	SavitzkyGolay     Method = "savitzky_golay"
)

// DefaultPolyOrder is the polynomial order used by SavitzkyGolay when the
// caller does not set one.
const DefaultPolyOrder = 2

// ParseMethod validates a method name from configuration.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case CentralDifference, LocalLinear, SavitzkyGolay:
		return Method(s), nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown derivative method %q", s)}
}

// ValidationError reports an infeasible window or method parameter. It
// always signals caller misuse and is never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Estimator is a resolved derivative configuration. The zero value is not
// usable; construct via NewEstimator.
type Estimator struct {
	Method    Method
	Window    int
	PolyOrder int
}

// NewEstimator validates and returns a resolved estimator. polyOrder is
// only consulted for SavitzkyGolay; pass 0 to use DefaultPolyOrder.
func NewEstimator(method Method, window, polyOrder int) (Estimator, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return Estimator{}, err
	}
	if polyOrder == 0 {
		polyOrder = DefaultPolyOrder
	}
	e := Estimator{Method: method, Window: window, PolyOrder: polyOrder}
	if window < 1 {
		return Estimator{}, errValidation("window must be positive, got %d", window)
	}
	if window%2 == 0 {
		return Estimator{}, errValidation("window must be odd, got %d", window)
	}
	if method == SavitzkyGolay {
		if polyOrder < 1 {
			return Estimator{}, errValidation("polyorder must be >= 1, got %d", polyOrder)
		}
		if polyOrder >= window {
			return Estimator{}, errValidation("polyorder %d must be less than window %d", polyOrder, window)
		}
	}
	return e, nil
}

// Estimate returns the derivative of series sampled at uniform spacing dt.
// The result has the same length as series and every element is finite.
func (e Estimator) Estimate(series []float64, dt float64) ([]float64, error) {
	n := len(series)
	if e.Window > n {
		return nil, errValidation("window %d exceeds series length %d", e.Window, n)
	}
	if dt <= 0 {
		return nil, errValidation("spacing must be positive, got %g", dt)
	}
	// Re-run parameter validation so a hand-built Estimator cannot bypass it.
	if _, err := NewEstimator(e.Method, e.Window, e.PolyOrder); err != nil {
		return nil, err
	}

	switch e.Method {
	case CentralDifference:
		return centralDifference(series, dt, e.Window), nil
	case LocalLinear:
		return localLinear(series, dt, e.Window), nil
	case SavitzkyGolay:
		return savitzkyGolay(series, dt, e.Window, e.PolyOrder), nil
	}
	return nil, errValidation("unknown derivative method %q", e.Method)
}

// centralDifference uses a symmetric half-window stencil in the interior
// and a one-sided difference near the edges. The one-sided stencil spans
// window-1 samples where the series allows it and clamps to the last
// index otherwise, so a window equal to the series length stays in range.
func centralDifference(series []float64, dt float64, window int) []float64 {
	n := len(series)
	half := window / 2
	span := float64(window-1) * dt
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case i < half:
			far := i + window - 1
			if far > n-1 {
				far = n - 1
			}
			out[i] = (series[far] - series[i]) / (float64(far-i) * dt)
		case i >= n-half:
			near := i - window + 1
			if near < 0 {
				near = 0
			}
			out[i] = (series[i] - series[near]) / (float64(i-near) * dt)
		default:
			out[i] = (series[i+half] - series[i-half]) / span
		}
	}
	return out
}

// localLinear fits a degree-1 least-squares line over exactly window
// consecutive samples, shifting the window inward at the boundaries, and
// returns the fitted slope.
func localLinear(series []float64, dt float64, window int) []float64 {
	n := len(series)
	half := window / 2
	out := make([]float64, n)
	xs := make([]float64, window)
	for i := 0; i < n; i++ {
		start := clampWindowStart(i-half, n, window)
		for k := 0; k < window; k++ {
			xs[k] = float64(start+k) * dt
		}
		coeffs := polyFit(xs, series[start:start+window], 1)
		out[i] = coeffs[1]
	}
	return out
}

// savitzkyGolay fits a degree-polyOrder polynomial over the window and
// evaluates its analytic derivative at the sample position. Boundary
// windows shift inward so edge indices still use a full window; evaluating
// the fit at the true sample position reproduces boundary-extrapolating
// behaviour.
func savitzkyGolay(series []float64, dt float64, window, polyOrder int) []float64 {
	n := len(series)
	half := window / 2
	out := make([]float64, n)
	xs := make([]float64, window)
	for i := 0; i < n; i++ {
		start := clampWindowStart(i-half, n, window)
		// Centre the abscissa on the evaluation point for conditioning.
		for k := 0; k < window; k++ {
			xs[k] = float64(start+k-i) * dt
		}
		coeffs := polyFit(xs, series[start:start+window], polyOrder)
		out[i] = coeffs[1]
	}
	return out
}

func clampWindowStart(start, n, window int) int {
	if start < 0 {
		return 0
	}
	if start > n-window {
		return n - window
	}
	return start
}

// polyFit returns least-squares polynomial coefficients c[0..degree] such
// that y ≈ c[0] + c[1]x + ... + c[degree]x^degree. The design matrix is
// solved via QR decomposition.
func polyFit(xs, ys []float64, degree int) []float64 {
	rows := len(xs)
	cols := degree + 1
	a := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		v := 1.0
		for c := 0; c < cols; c++ {
			a.Set(r, c, v)
			v *= xs[r]
		}
	}
	b := mat.NewDense(rows, 1, nil)
	for r := 0; r < rows; r++ {
		b.Set(r, 0, ys[r])
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		// Degenerate design matrices cannot occur for distinct abscissae,
		// which the callers guarantee; fall back to a zero polynomial.
		return make([]float64, cols)
	}
	coeffs := make([]float64, cols)
	for c := 0; c < cols; c++ {
		coeffs[c] = sol.At(c, 0)
	}
	return coeffs
}

// Gradient returns the two-point numerical gradient of series at the given
// (not necessarily uniform) timestamps: central differences in the
// interior, one-sided differences at the ends. It is the engine-level
// fallback when a configured window is infeasible.
func Gradient(series, times []float64) ([]float64, error) {
	n := len(series)
	if n != len(times) {
		return nil, errValidation("series length %d does not match timestamps length %d", n, len(times))
	}
	if n < 2 {
		return nil, errValidation("gradient requires at least two samples, got %d", n)
	}
	out := make([]float64, n)
	out[0] = (series[1] - series[0]) / (times[1] - times[0])
	out[n-1] = (series[n-1] - series[n-2]) / (times[n-1] - times[n-2])
	for i := 1; i < n-1; i++ {
		out[i] = (series[i+1] - series[i-1]) / (times[i+1] - times[i-1])
	}
	return out, nil
}
