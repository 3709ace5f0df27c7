package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabulatedLoad(t *testing.T) {
	l, err := NewTabulatedLoad([]float64{9.43, 10.47, 18.85}, []float64{2.47, 2.73, 3.77})
	require.NoError(t, err)

	require.Len(t, l.Speeds, 4)
	assert.InDelta(t, 27.23, l.Speeds[3], 1e-9)
	assert.InDelta(t, 4.81, l.Torques[3], 1e-9)

	assert.InDelta(t, 2.73, l.Torque(10.47), 1e-9)
	assert.InDelta(t, 3.77+(22-18.85)/(27.23-18.85)*1.04, l.Torque(22), 1e-9)
	// 范围外取端点值
	assert.InDelta(t, 2.47, l.Torque(1), 1e-9)
	assert.InDelta(t, 4.81, l.Torque(100), 1e-9)
}

func TestTabulatedLoad_Invalid(t *testing.T) {
	_, err := NewTabulatedLoad([]float64{1}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewTabulatedLoad([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewTabulatedLoad([]float64{2, 1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadFunc(t *testing.T) {
	var l LoadCurve = LoadFunc(func(w float64) float64 { return 2 * w })
	assert.Equal(t, 10.0, l.Torque(5))
	assert.Equal(t, 7.0, FlatLoad(7).Torque(100))
}
