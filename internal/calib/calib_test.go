package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	c := Coefficients{Alpha: []float64{2, 3}, Beta: []float64{1, -1}}

	p, err := c.Apply(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 11.0, p)

	p, err = c.Apply(5, 1)
	require.NoError(t, err)
	assert.Equal(t, 14.0, p)
}

func TestApplySlice(t *testing.T) {
	c := Coefficients{Alpha: []float64{0.5}, Beta: []float64{100}}
	out, err := c.ApplySlice([]float64{0, 2, 4}, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, out)
}

func TestChannelOutOfRange(t *testing.T) {
	c := Coefficients{Alpha: []float64{1}, Beta: []float64{0}}

	_, err := c.Apply(1, 1)
	assert.Error(t, err)

	_, err = c.ApplySlice([]float64{1}, -1)
	assert.Error(t, err)
}

func TestMismatchedCoefficients(t *testing.T) {
	c := Coefficients{Alpha: []float64{1, 2}, Beta: []float64{0}}
	assert.Error(t, c.Validate())

	_, err := c.Apply(1, 0)
	assert.Error(t, err)
}
