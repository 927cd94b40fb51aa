package align

import (
	"math"

	"github.com/echopress-data/echopress/internal/deriv"
)

// Config is the fully resolved engine configuration. It is immutable once
// built and the engine never inspects "unset" values; the cascading
// optional layer lives in internal/config, which acts as the builder.
type Config struct {
	// TieBreak resolves exact-equidistance ties.
	TieBreak TieBreak
	// OMax is the maximum tolerable alignment error in seconds. +Inf
	// disables the quality gate.
	OMax float64
	// Strict rejects over-tolerance matches instead of flagging them.
	Strict bool
	// Window is the configured derivative window W.
	Window int
	// PolyOrder is the Savitzky-Golay polynomial order.
	PolyOrder int
	// Kappa converts |dp/dt|·E_align into a pressure bound.
	Kappa float64
	// Method selects the derivative estimator.
	Method deriv.Method
}

// DefaultConfig returns the engine defaults: earliest tie-break, gate
// disabled, W=5, κ=1, central differences.
func DefaultConfig() Config {
	return Config{
		TieBreak:  TieEarliest,
		OMax:      math.Inf(1),
		Strict:    false,
		Window:    5,
		PolyOrder: deriv.DefaultPolyOrder,
		Kappa:     1,
		Method:    deriv.CentralDifference,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if _, err := ParseTieBreak(string(c.TieBreak)); err != nil {
		return err
	}
	if c.OMax < 0 {
		return errValidation("O_max must be non-negative, got %g", c.OMax)
	}
	if c.Window < 1 {
		return errValidation("W must be at least 1, got %d", c.Window)
	}
	if c.Kappa < 0 {
		return errValidation("kappa must be non-negative, got %g", c.Kappa)
	}
	if _, err := deriv.ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.Method == deriv.SavitzkyGolay && c.PolyOrder < 1 {
		return errValidation("polyorder must be >= 1, got %d", c.PolyOrder)
	}
	return nil
}
