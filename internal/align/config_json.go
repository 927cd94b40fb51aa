package align

import (
	"encoding/json"
	"math"

	"github.com/echopress-data/echopress/internal/deriv"
)

// configJSON is the wire shape of Config. O_max is nullable because JSON
// has no representation for the +Inf that disables the gate.
type configJSON struct {
	TieBreak  TieBreak `json:"tie_breaker"`
	OMax      *float64 `json:"o_max"`
	Strict    bool     `json:"reject_over_o_max"`
	Window    int      `json:"w"`
	PolyOrder int      `json:"polyorder"`
	Kappa     float64  `json:"kappa"`
	Method    string   `json:"method"`
}

// MarshalJSON encodes the configuration with a null o_max when the
// quality gate is disabled.
func (c Config) MarshalJSON() ([]byte, error) {
	out := configJSON{
		TieBreak:  c.TieBreak,
		Strict:    c.Strict,
		Window:    c.Window,
		PolyOrder: c.PolyOrder,
		Kappa:     c.Kappa,
		Method:    string(c.Method),
	}
	if !math.IsInf(c.OMax, 1) {
		oMax := c.OMax
		out.OMax = &oMax
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire shape, mapping a null or absent o_max
// back to the disabled gate.
func (c *Config) UnmarshalJSON(data []byte) error {
	var in configJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.TieBreak = in.TieBreak
	c.Strict = in.Strict
	c.Window = in.Window
	c.PolyOrder = in.PolyOrder
	c.Kappa = in.Kappa
	c.Method = deriv.Method(in.Method)
	if in.OMax == nil {
		c.OMax = math.Inf(1)
	} else {
		c.OMax = *in.OMax
	}
	return nil
}
