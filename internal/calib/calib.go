// Package calib maps raw transducer voltages to pressure values using
// per-channel affine calibration coefficients.
package calib

import "fmt"

// Coefficients holds the affine calibration such that
// pressure = Alpha[k]*voltage + Beta[k] for channel k.
type Coefficients struct {
	Alpha []float64
	Beta  []float64
}

// Validate checks the coefficient tables agree in length.
func (c Coefficients) Validate() error {
	if len(c.Alpha) != len(c.Beta) {
		return fmt.Errorf("alpha has %d coefficients but beta has %d", len(c.Alpha), len(c.Beta))
	}
	return nil
}

// Channels returns the number of calibrated channels.
func (c Coefficients) Channels() int { return len(c.Alpha) }

func (c Coefficients) coeffs(channel int) (a, b float64, err error) {
	if err := c.Validate(); err != nil {
		return 0, 0, err
	}
	if channel < 0 || channel >= len(c.Alpha) {
		return 0, 0, fmt.Errorf("channel index %d out of range (have %d)", channel, len(c.Alpha))
	}
	return c.Alpha[channel], c.Beta[channel], nil
}

// Apply calibrates one voltage reading on the given channel.
func (c Coefficients) Apply(voltage float64, channel int) (float64, error) {
	a, b, err := c.coeffs(channel)
	if err != nil {
		return 0, err
	}
	return a*voltage + b, nil
}

// ApplySlice calibrates a sequence of voltage readings on one channel.
func (c Coefficients) ApplySlice(voltages []float64, channel int) ([]float64, error) {
	a, b, err := c.coeffs(channel)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(voltages))
	for i, v := range voltages {
		out[i] = a*v + b
	}
	return out, nil
}
