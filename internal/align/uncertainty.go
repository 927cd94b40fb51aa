package align

import "math"

// The pressure uncertainty model bounds the error introduced by matching
// an O-stream midpoint to a non-coincident pressure sample:
//
//	|ΔP| <= κ · |dp/dt| · E_align
//
// The helpers are pure; the only failure mode of the slice forms is a
// length mismatch between the operands.

// Bound returns κ·|dpdt|·eAlign. The result is always non-negative.
func Bound(dpdt, eAlign, kappa float64) float64 {
	return kappa * math.Abs(dpdt) * eAlign
}

// Bounds returns the symmetric interval (-b, +b) with b = Bound(...).
func Bounds(dpdt, eAlign, kappa float64) (lo, hi float64) {
	b := Bound(dpdt, eAlign, kappa)
	return -b, b
}

// BoundSlice broadcasts a single alignment error over a derivative series.
func BoundSlice(dpdt []float64, eAlign, kappa float64) []float64 {
	out := make([]float64, len(dpdt))
	for i, d := range dpdt {
		out[i] = Bound(d, eAlign, kappa)
	}
	return out
}

// BoundSlices computes element-wise bounds for paired derivative and
// alignment-error series.
func BoundSlices(dpdt, eAlign []float64, kappa float64) ([]float64, error) {
	if len(dpdt) != len(eAlign) {
		return nil, errValidation("dp_dt length %d does not match E_align length %d", len(dpdt), len(eAlign))
	}
	out := make([]float64, len(dpdt))
	for i := range dpdt {
		out[i] = Bound(dpdt[i], eAlign[i], kappa)
	}
	return out, nil
}

// WithinBound reports whether an observed pressure change satisfies the
// uncertainty bound.
func WithinBound(deltaP, dpdt, eAlign, kappa float64) bool {
	return math.Abs(deltaP) <= Bound(dpdt, eAlign, kappa)
}
