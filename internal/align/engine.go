package align

import (
	"github.com/echopress-data/echopress/internal/deriv"
)

// State is the terminal outcome for one O-stream record.
type State string

// Terminal states. Every record ends in exactly one of these.
const (
	StateAligned     State = "ALIGNED"
	StateWarning     State = "ALIGNED_WITH_WARNING"
	StateRejected    State = "REJECTED"
	fallbackGradient       = "fallback_gradient"
)

// Diagnostics records the policy values used for one alignment decision,
// sufficient to reproduce it.
type Diagnostics struct {
	TieBreak TieBreak `json:"tie_breaker"`
	OMax     float64  `json:"o_max"`
	// Method is the derivative method actually used, or
	// "fallback_gradient" when the window was infeasible.
	Method string  `json:"method"`
	WEff   int     `json:"w_eff"`
	Kappa  float64 `json:"kappa"`
	// FallbackGradient marks the explicit two-point gradient
	// substitution; it is never inferred from other fields.
	FallbackGradient bool `json:"fallback_gradient"`
	// OMaxExceeded marks a quality-gate breach (under either policy).
	OMaxExceeded bool `json:"o_max_exceeded"`
}

// Result is one alignment outcome.
type Result struct {
	State State
	// Index maps into the pressure stream, or RejectedIndex.
	Index int
	// EAlign is the exact |midpoint - matched timestamp|.
	EAlign float64
	// DpDt is the local pressure derivative at the matched sample. Zero
	// for rejected records, where no derivative is computed.
	DpDt float64
	// DeltaP is the symmetric pressure uncertainty, always >= 0.
	DeltaP float64
	// BoundLo and BoundHi are (-DeltaP, +DeltaP).
	BoundLo, BoundHi float64
	Diagnostics      Diagnostics
}

// Rejected reports whether the record ended in StateRejected.
func (r Result) Rejected() bool { return r.State == StateRejected }

// BatchResult aggregates the independent outcomes of a batch alignment.
type BatchResult struct {
	Results    []Result
	Violations []Violation
}

// Counts summarises batch outcomes for reporting.
type Counts struct {
	Aligned  int
	Warnings int
	Rejected int
}

// Counts tallies the terminal states across the batch.
func (b BatchResult) Counts() Counts {
	var c Counts
	for _, r := range b.Results {
		switch r.State {
		case StateAligned:
			c.Aligned++
		case StateWarning:
			c.Warnings++
		case StateRejected:
			c.Rejected++
		}
	}
	return c
}

// Engine orchestrates matching, derivative estimation and uncertainty
// propagation for O-stream records. It is stateless between calls;
// independent invocations may run in parallel sharing one read-only
// pressure stream.
type Engine struct {
	cfg     Config
	aligner Aligner
}

// NewEngine validates cfg and returns an engine bound to it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	aligner, err := NewAligner(cfg.TieBreak, cfg.OMax, cfg.Strict)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, aligner: aligner}, nil
}

// Config returns the resolved configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// AlignWindow aligns one O-stream record described by its window.
func (e *Engine) AlignWindow(times, pressures []float64, w Window) (Result, error) {
	m, err := w.Midpoint()
	if err != nil {
		return Result{}, err
	}
	return e.Align(times, pressures, m)
}

// Align aligns one midpoint against the pressure stream. times must be
// strictly increasing and pressures must run parallel to it.
func (e *Engine) Align(times, pressures []float64, midpoint float64) (Result, error) {
	if err := checkStreams(times, pressures); err != nil {
		return Result{}, err
	}
	match, err := e.aligner.Align(times, midpoint)
	if err != nil {
		return Result{}, err
	}
	return e.finish(times, pressures, match)
}

// AlignBatch aligns many independent midpoints against one pressure
// stream. Quality-gate outcomes are independent: a rejection contributes
// a REJECTED result and a recorded violation without aborting the batch.
func (e *Engine) AlignBatch(times, pressures, midpoints []float64) (BatchResult, error) {
	if err := checkStreams(times, pressures); err != nil {
		return BatchResult{}, err
	}
	matches, violations, err := e.aligner.AlignBatch(times, midpoints)
	if err != nil {
		return BatchResult{}, err
	}
	out := BatchResult{Violations: violations, Results: make([]Result, len(matches))}
	for i, match := range matches {
		r, err := e.finish(times, pressures, match)
		if err != nil {
			return BatchResult{}, err
		}
		out.Results[i] = r
	}
	return out, nil
}

// checkStreams enforces the engine preconditions that are cheap to state:
// parallel slices and at least two samples (no derivative is definable
// with fewer).
func checkStreams(times, pressures []float64) error {
	if len(times) != len(pressures) {
		return errValidation("timestamps length %d does not match pressures length %d", len(times), len(pressures))
	}
	if len(times) < 2 {
		return errValidation("pressure stream requires at least two samples, got %d", len(times))
	}
	return nil
}

// finish runs the derivative and uncertainty stages for one match.
func (e *Engine) finish(times, pressures []float64, match Match) (Result, error) {
	diag := Diagnostics{
		TieBreak:     e.cfg.TieBreak,
		OMax:         e.cfg.OMax,
		Method:       string(e.cfg.Method),
		Kappa:        e.cfg.Kappa,
		OMaxExceeded: match.Exceeded,
	}

	if match.Rejected() {
		// Strict gate: stop before any derivative or uncertainty work.
		return Result{
			State:       StateRejected,
			Index:       RejectedIndex,
			EAlign:      match.Err,
			Diagnostics: diag,
		}, nil
	}

	wEff, fallback := e.effectiveWindow(len(times))
	diag.WEff = wEff
	if fallback {
		diag.FallbackGradient = true
		diag.Method = fallbackGradient
	}

	dpdt, err := e.derivativeAt(times, pressures, match.Index, wEff, fallback)
	if err != nil {
		return Result{}, err
	}

	lo, hi := Bounds(dpdt, match.Err, e.cfg.Kappa)
	state := StateAligned
	if match.Exceeded {
		state = StateWarning
	}
	return Result{
		State:       state,
		Index:       match.Index,
		EAlign:      match.Err,
		DpDt:        dpdt,
		DeltaP:      hi,
		BoundLo:     lo,
		BoundHi:     hi,
		Diagnostics: diag,
	}, nil
}

// effectiveWindow shrinks the configured W to what the stream can
// support, honouring the estimators' odd-window parity constraint and
// the Savitzky-Golay order constraint. When the result drops below the
// minimum usable window the two-point gradient substitutes.
func (e *Engine) effectiveWindow(n int) (wEff int, fallback bool) {
	wEff = e.cfg.Window
	if wEff > n {
		wEff = n
	}
	if wEff%2 == 0 {
		wEff--
	}
	if wEff < 3 {
		return wEff, true
	}
	if e.cfg.Method == deriv.SavitzkyGolay && e.cfg.PolyOrder >= wEff {
		return wEff, true
	}
	return wEff, false
}

// derivativeAt estimates dp/dt at the matched index. The windowed
// estimators assume uniform spacing; dt is taken as the mean pressure
// sampling period. The gradient fallback uses the true timestamps.
func (e *Engine) derivativeAt(times, pressures []float64, idx, wEff int, fallback bool) (float64, error) {
	if fallback {
		g, err := deriv.Gradient(pressures, times)
		if err != nil {
			return 0, err
		}
		return g[idx], nil
	}
	est, err := deriv.NewEstimator(e.cfg.Method, wEff, e.cfg.PolyOrder)
	if err != nil {
		return 0, err
	}
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	d, err := est.Estimate(pressures, dt)
	if err != nil {
		return 0, err
	}
	return d[idx], nil
}
