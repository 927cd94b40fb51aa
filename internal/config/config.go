// Package config loads the session configuration file and resolves it
// into the fully specified engine configuration. Fields omitted from the
// JSON keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/echopress-data/echopress/internal/align"
	"github.com/echopress-data/echopress/internal/calib"
	"github.com/echopress-data/echopress/internal/deriv"
)

// SessionConfig represents the root configuration for one processing
// session. All fields are optional in the JSON; the Get* methods provide
// the fallback defaults.
type SessionConfig struct {
	// Calibration params
	Alpha         []float64 `json:"alpha,omitempty"`
	Beta          []float64 `json:"beta,omitempty"`
	ScalarChannel *int      `json:"scalar_channel,omitempty"`

	// Alignment params
	TieBreaker     *string  `json:"tie_breaker,omitempty"`
	OMax           *float64 `json:"o_max,omitempty"`
	RejectOverOMax *bool    `json:"reject_over_o_max,omitempty"`

	// Derivative params
	W         *int     `json:"w,omitempty"`
	PolyOrder *int     `json:"polyorder,omitempty"`
	Method    *string  `json:"method,omitempty"`
	Kappa     *float64 `json:"kappa,omitempty"`

	// Adapter params
	Adapter *string  `json:"adapter,omitempty"`
	FS      *float64 `json:"fs,omitempty"`
	F0      *float64 `json:"f0,omitempty"`
}

// EmptySessionConfig returns a SessionConfig with all fields set to nil.
func EmptySessionConfig() *SessionConfig {
	return &SessionConfig{}
}

// LoadSessionConfig loads a SessionConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySessionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *SessionConfig) Validate() error {
	if c.TieBreaker != nil {
		if _, err := align.ParseTieBreak(*c.TieBreaker); err != nil {
			return err
		}
	}
	if c.OMax != nil && *c.OMax < 0 {
		return fmt.Errorf("o_max must be non-negative, got %g", *c.OMax)
	}
	// Any W >= 1 is accepted here; the engine's effective-window step
	// owns the odd-parity adjustment.
	if c.W != nil && *c.W < 1 {
		return fmt.Errorf("w must be at least 1, got %d", *c.W)
	}
	if c.PolyOrder != nil && *c.PolyOrder < 1 {
		return fmt.Errorf("polyorder must be at least 1, got %d", *c.PolyOrder)
	}
	if c.Method != nil {
		if _, err := deriv.ParseMethod(*c.Method); err != nil {
			return err
		}
	}
	if c.Kappa != nil && *c.Kappa < 0 {
		return fmt.Errorf("kappa must be non-negative, got %g", *c.Kappa)
	}
	if len(c.Alpha) != len(c.Beta) {
		return fmt.Errorf("alpha has %d channels but beta has %d", len(c.Alpha), len(c.Beta))
	}
	if c.ScalarChannel != nil && *c.ScalarChannel < 0 {
		return fmt.Errorf("scalar_channel must be non-negative, got %d", *c.ScalarChannel)
	}
	if c.FS != nil && *c.FS <= 0 {
		return fmt.Errorf("fs must be positive, got %g", *c.FS)
	}
	if c.F0 != nil && *c.F0 <= 0 {
		return fmt.Errorf("f0 must be positive, got %g", *c.F0)
	}
	return nil
}

// GetTieBreaker returns the tie_breaker value or the default.
func (c *SessionConfig) GetTieBreaker() align.TieBreak {
	if c.TieBreaker == nil {
		return align.TieEarliest
	}
	return align.TieBreak(*c.TieBreaker)
}

// GetOMax returns the o_max value, or +Inf (gate disabled).
func (c *SessionConfig) GetOMax() float64 {
	if c.OMax == nil {
		return math.Inf(1)
	}
	return *c.OMax
}

// GetRejectOverOMax returns the reject_over_o_max value or the default.
func (c *SessionConfig) GetRejectOverOMax() bool {
	if c.RejectOverOMax == nil {
		return false // default: flag, don't reject
	}
	return *c.RejectOverOMax
}

// GetW returns the w value or the default.
func (c *SessionConfig) GetW() int {
	if c.W == nil {
		return 5
	}
	return *c.W
}

// GetPolyOrder returns the polyorder value or the default.
func (c *SessionConfig) GetPolyOrder() int {
	if c.PolyOrder == nil {
		return deriv.DefaultPolyOrder
	}
	return *c.PolyOrder
}

// GetMethod returns the derivative method or the default.
func (c *SessionConfig) GetMethod() deriv.Method {
	if c.Method == nil {
		return deriv.CentralDifference
	}
	return deriv.Method(*c.Method)
}

// GetKappa returns the kappa value or the default.
func (c *SessionConfig) GetKappa() float64 {
	if c.Kappa == nil {
		return 1
	}
	return *c.Kappa
}

// GetScalarChannel returns the scalar_channel value or the default.
func (c *SessionConfig) GetScalarChannel() int {
	if c.ScalarChannel == nil {
		return 0
	}
	return *c.ScalarChannel
}

// GetAdapter returns the adapter name or the default.
func (c *SessionConfig) GetAdapter() string {
	if c.Adapter == nil {
		return "fts"
	}
	return *c.Adapter
}

// GetFS returns the sampling frequency or the default.
func (c *SessionConfig) GetFS() float64 {
	if c.FS == nil {
		return 1000
	}
	return *c.FS
}

// GetF0 returns the fundamental frequency or the default.
func (c *SessionConfig) GetF0() float64 {
	if c.F0 == nil {
		return 50
	}
	return *c.F0
}

// Resolve builds the fully specified engine configuration from the
// cascading optionals.
func (c *SessionConfig) Resolve() (align.Config, error) {
	cfg := align.Config{
		TieBreak:  c.GetTieBreaker(),
		OMax:      c.GetOMax(),
		Strict:    c.GetRejectOverOMax(),
		Window:    c.GetW(),
		PolyOrder: c.GetPolyOrder(),
		Kappa:     c.GetKappa(),
		Method:    c.GetMethod(),
	}
	if err := cfg.Validate(); err != nil {
		return align.Config{}, err
	}
	return cfg, nil
}

// Calibration returns the per-channel calibration coefficients, defaulting
// to the identity transform for a single channel when unset.
func (c *SessionConfig) Calibration() calib.Coefficients {
	if len(c.Alpha) == 0 {
		return calib.Coefficients{Alpha: []float64{1}, Beta: []float64{0}}
	}
	return calib.Coefficients{Alpha: c.Alpha, Beta: c.Beta}
}
