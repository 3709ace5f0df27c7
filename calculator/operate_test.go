package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlade_SolveFlatLoad(t *testing.T) {
	b := designedBlade(t, DefaultConfig())

	tests := []struct {
		load  float64
		speed float64
	}{
		{270, 15.75},
		{240, 17.66},
		{150, 23.79},
	}
	prev := 0.0
	for _, tt := range tests {
		eq, err := b.Solve(10, FlatLoad(tt.load), 14)
		require.NoError(t, err)
		assert.InDelta(t, tt.speed, eq.RotorSpeed, 0.05)
		assert.Equal(t, tt.load, eq.LoadTorque)
		assert.LessOrEqual(t, eq.Torque, tt.load/3)
		assert.Greater(t, eq.LastStep, 0.0)

		// 上一步仍有扭矩盈余
		before, err := b.Simulate(10, eq.RotorSpeed-eq.LastStep)
		require.NoError(t, err)
		assert.Greater(t, before, tt.load/3)

		// 负载越小，平衡转速越高
		assert.Greater(t, eq.RotorSpeed, prev)
		prev = eq.RotorSpeed
	}
}

func TestBlade_SolveAlreadyBalanced(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	eq, err := b.Solve(8, FlatLoad(240), 14)
	require.NoError(t, err)
	assert.Equal(t, 14.0, eq.RotorSpeed)
	assert.Equal(t, 1, eq.Passes)
	assert.Equal(t, 0.0, eq.LastStep)
	assert.InDelta(t, 51.70, eq.Torque, 0.5)
}

func TestBlade_SolveBisection(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	eq, err := b.SolveWith(Bisection{Low: 14, High: 30, Tolerance: 0.01, MaxPasses: 100}, 10, FlatLoad(240), 14)
	require.NoError(t, err)
	assert.InDelta(t, 17.656, eq.RotorSpeed, 0.02)
	assert.Equal(t, 13, eq.Passes)
	assert.LessOrEqual(t, eq.Torque, 80.0)
	assert.LessOrEqual(t, eq.LastStep, 0.01)

	step, err := b.Solve(10, FlatLoad(240), 14)
	require.NoError(t, err)
	assert.InDelta(t, step.RotorSpeed, eq.RotorSpeed, 0.05)
}

func TestBlade_SolveSearcherFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Searcher = SearchBisection
	cfg.BisectionHigh = 30
	b := designedBlade(t, cfg)
	eq, err := b.Solve(10, FlatLoad(240), 14)
	require.NoError(t, err)
	assert.InDelta(t, 17.656, eq.RotorSpeed, 0.02)

	b.SetSearcher(nil)
	eq, err = b.Solve(10, FlatLoad(240), 14)
	require.NoError(t, err)
	assert.InDelta(t, 17.656, eq.RotorSpeed, 0.02)
}

func TestBlade_SolveTabulatedLoad(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	load, err := NewTabulatedLoad(
		[]float64{9.43, 10.47, 18.85},
		[]float64{2.47 * 40, 2.73 * 40, 3.77 * 40},
	)
	require.NoError(t, err)

	eq, err := b.Solve(10, load, 14)
	require.NoError(t, err)
	assert.InDelta(t, 22.69, eq.RotorSpeed, 0.05)
	assert.InDelta(t, load.Torque(eq.RotorSpeed), eq.LoadTorque, 1e-9)
	assert.LessOrEqual(t, eq.Torque, eq.LoadTorque/3)
}

func TestBlade_SolveInvalid(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	_, err := b.Solve(10, nil, 14)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = b.Solve(10, FlatLoad(240), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBlade_Operate(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	p, err := b.Operate(10, 14)
	require.NoError(t, err)
	assert.InDelta(t, 3*p.Torque, p.RotorTorque, 1e-9)
	assert.InDelta(t, p.RotorTorque*14, p.Power, 1e-9)
	available := 0.5 * 1.225 * math.Pi * b.Radius * b.Radius * 1000
	assert.InDelta(t, p.Power/available, p.PowerCoefficient, 1e-12)
	assert.Greater(t, p.PowerCoefficient, 0.3)
	assert.Less(t, p.PowerCoefficient, 16.0/27)
}

func TestBlade_Sweep(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	curve, err := b.Sweep(10, 14, 24, 6)
	require.NoError(t, err)
	require.Len(t, curve, 6)
	assert.Equal(t, 14.0, curve[0].RotorSpeed)
	assert.Equal(t, 24.0, curve[5].RotorSpeed)
	for _, p := range curve {
		assert.Equal(t, 10.0, p.WindSpeed)
		assert.Greater(t, p.Torque, 0.0)
	}

	_, err = b.Sweep(10, 14, 24, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = b.Sweep(10, 24, 14, 6)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = b.WindSweep(14, 0, 10, 6)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
