// Package align matches capture-window midpoints against a pressure
// stream and derives error-bounded pressure estimates.
//
// The package is split into the nearest-neighbour Aligner, the
// uncertainty bound helpers, and the Engine that orchestrates both with
// the derivative estimators from internal/deriv. Everything operates on
// fully materialised in-memory slices and is safe to run concurrently
// over different records because no call mutates shared state.
package align

import (
	"fmt"
	"math"
	"sort"
)

// TieBreak selects between two pressure timestamps that are exactly
// equidistant from a query midpoint.
type TieBreak string

// Tie-break policies. Earliest picks the predecessor, Latest the successor.
const (
	TieEarliest TieBreak = "earliest"
	TieLatest   TieBreak = "latest"
)

// ParseTieBreak validates a tie-break name from configuration.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case TieEarliest, TieLatest:
		return TieBreak(s), nil
	}
	return "", errValidation("unknown tie_breaker %q", s)
}

// RejectedIndex is the sentinel mapping for a match rejected by the
// quality gate under strict policy.
const RejectedIndex = -1

// ValidationError reports caller misuse (malformed streams or
// configuration). It propagates uncaught and is never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func errValidation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Match is the outcome of one nearest-neighbour query.
type Match struct {
	// Index into the pressure timestamps, or RejectedIndex when the
	// quality gate rejected the match under strict policy.
	Index int
	// Err is the exact absolute difference between the midpoint and the
	// matched timestamp. It is populated even for rejected matches.
	Err float64
	// Exceeded reports that Err was greater than the configured OMax.
	Exceeded bool
}

// Rejected reports whether the match carries the rejection sentinel.
func (m Match) Rejected() bool { return m.Index == RejectedIndex }

// Violation records one quality-gate breach during batch matching.
type Violation struct {
	// Seq is the position of the offending midpoint in the batch.
	Seq      int
	Midpoint float64
	// Index is the nearest timestamp found regardless of policy.
	Index int
	Err   float64
	OMax  float64
}

func (v Violation) String() string {
	return fmt.Sprintf("midpoint %g: alignment error %g exceeds O_max %g (nearest index %d)",
		v.Midpoint, v.Err, v.OMax, v.Index)
}

// Aligner performs deterministic nearest-neighbour matching over sorted
// pressure timestamps. The zero value matches with the earliest tie-break
// and a disabled quality gate.
type Aligner struct {
	// TieBreak resolves exact-equidistance ties.
	TieBreak TieBreak
	// OMax is the maximum tolerable alignment error. +Inf disables the
	// gate.
	OMax float64
	// Strict controls the gate outcome: when true an over-tolerance
	// match is rejected (sentinel mapping); when false it is kept and
	// only flagged.
	Strict bool
}

// NewAligner validates the policy values and returns an Aligner.
func NewAligner(tie TieBreak, oMax float64, strict bool) (Aligner, error) {
	if tie == "" {
		tie = TieEarliest
	}
	if _, err := ParseTieBreak(string(tie)); err != nil {
		return Aligner{}, err
	}
	if oMax < 0 {
		return Aligner{}, errValidation("O_max must be non-negative, got %g", oMax)
	}
	return Aligner{TieBreak: tie, OMax: oMax, Strict: strict}, nil
}

// gated reports whether the quality gate is active.
func (a Aligner) gated() bool { return !math.IsInf(a.OMax, 1) }

// Align returns the match for one midpoint. times must be sorted in
// strictly increasing order; that precondition belongs to the caller and
// is not re-derived here.
func (a Aligner) Align(times []float64, midpoint float64) (Match, error) {
	if len(times) == 0 {
		return Match{}, errValidation("pressure stream timestamps required")
	}

	idx := nearestIndex(times, midpoint, a.TieBreak)
	m := Match{Index: idx, Err: math.Abs(times[idx] - midpoint)}
	if a.gated() && m.Err > a.OMax {
		m.Exceeded = true
		if a.Strict {
			m.Index = RejectedIndex
		}
	}
	return m, nil
}

// AlignBatch matches many independent midpoints against one pressure
// stream. A gate breach on one midpoint never aborts the others;
// breaches accumulate in the returned violations list in input order.
func (a Aligner) AlignBatch(times, midpoints []float64) ([]Match, []Violation, error) {
	if len(times) == 0 {
		return nil, nil, errValidation("pressure stream timestamps required")
	}
	matches := make([]Match, len(midpoints))
	var violations []Violation
	for i, m := range midpoints {
		match, err := a.Align(times, m)
		if err != nil {
			return nil, nil, err
		}
		matches[i] = match
		if match.Exceeded {
			violations = append(violations, Violation{
				Seq:      i,
				Midpoint: m,
				Index:    nearestIndex(times, m, a.TieBreak),
				Err:      match.Err,
				OMax:     a.OMax,
			})
		}
	}
	return matches, violations, nil
}

// nearestIndex locates the timestamp closest to m in O(log n). Midpoints
// before the first timestamp clamp to index 0 and after the last to the
// final index; there is no extrapolation.
func nearestIndex(times []float64, m float64, tie TieBreak) int {
	j := sort.SearchFloat64s(times, m)
	switch {
	case j == 0:
		return 0
	case j == len(times):
		return len(times) - 1
	}
	dPrev := m - times[j-1]
	dNext := times[j] - m
	switch {
	case dPrev < dNext:
		return j - 1
	case dNext < dPrev:
		return j
	case tie == TieLatest:
		return j
	default:
		return j - 1
	}
}
