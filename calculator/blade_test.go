package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotor/airfoil"
)

// 三叶片，10 m/s、14 rad/s 下单叶片扭矩 100 N·m
func designedBlade(t testing.TB, cfg Config) *Blade {
	b, err := NewBlade(testPolar(t), 3, cfg)
	require.NoError(t, err)
	require.NoError(t, b.Design(10, 100, 14))
	return b
}

func TestBlade_Design(t *testing.T) {
	cfg := DefaultConfig()
	b := designedBlade(t, cfg)

	assert.InDelta(t, 2.2431, b.Radius, 0.01)
	assert.LessOrEqual(t, math.Abs(b.Torque/100-1), cfg.DesignTolerance)
	require.Len(t, b.Elements, cfg.Elements)
	assert.Equal(t, 0.0, b.Elements[0].R1)
	assert.InDelta(t, b.Radius, b.Elements[len(b.Elements)-1].R2, 1e-12)

	total := 0.0
	for i, e := range b.Elements {
		g := e.Geometry()
		assert.Greater(t, g.Chord, 0.0)
		assert.Equal(t, TorqueSolved, e.State())
		if i > 0 {
			prev := b.Elements[i-1].Geometry()
			assert.Equal(t, prev.R2, g.R1)
			assert.Less(t, g.Twist, prev.Twist)
		}
		sol, err := e.Solution()
		require.NoError(t, err)
		total += sol.Torque
	}
	assert.InDelta(t, b.Torque, total, 1e-9)

	history := b.History()
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, b.Radius, last.Radius)
	assert.Equal(t, len(history), last.Pass)
}

func TestBlade_DesignDamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rescale = RescaleDamped
	b := designedBlade(t, cfg)
	assert.InDelta(t, 2.2392, b.Radius, 0.01)
	assert.LessOrEqual(t, math.Abs(b.Torque/100-1), cfg.DesignTolerance)
	assert.Greater(t, len(b.History()), 2)
}

func TestBlade_PassesAfterEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rescale = RescaleDamped
	cfg.HistoryLength = 8
	b := designedBlade(t, cfg)

	history := b.History()
	require.Len(t, history, 8)
	assert.Greater(t, b.Passes(), len(history))
	assert.Equal(t, history[len(history)-1].Pass, b.Passes())
	assert.Equal(t, b.Passes()-7, history[0].Pass)

	fresh, err := NewBlade(testPolar(t), 3, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Passes())
}

func TestBlade_DesignWorkers(t *testing.T) {
	single := DefaultConfig()
	single.Workers = 1
	parallel := DefaultConfig()
	parallel.Workers = 4

	a := designedBlade(t, single)
	b := designedBlade(t, parallel)
	assert.Equal(t, a.Radius, b.Radius)
	assert.Equal(t, a.Torque, b.Torque)
	assert.Equal(t, a.Geometry(), b.Geometry())
}

func TestBlade_DesignInvalid(t *testing.T) {
	b, err := NewBlade(testPolar(t), 3, DefaultConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, b.Design(0, 100, 14), ErrInvalidInput)
	assert.ErrorIs(t, b.Design(10, -1, 14), ErrInvalidInput)

	_, err = NewBlade(nil, 3, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewBlade(testPolar(t), 0, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBlade_DesignNonConvergence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDesignPasses = 1
	cfg.DesignTolerance = 1e-12
	b, err := NewBlade(testPolar(t), 3, cfg)
	require.NoError(t, err)

	err = b.Design(10, 100, 14)
	require.ErrorIs(t, err, ErrNonConvergence)
	var de *DesignError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "design", de.Stage)
	assert.Equal(t, 1, de.Pass)
	assert.Empty(t, b.Elements)
}

func TestBlade_DesignElementFailure(t *testing.T) {
	b, err := NewBlade(narrowPolar(t), 3, DefaultConfig())
	require.NoError(t, err)

	err = b.Design(10, 100, 14)
	var de *DesignError
	require.True(t, errors.As(err, &de))
	var ee *ElementError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 0.0, ee.R1)
}

// 线性两点曲线的升阻比单调，最优攻角落在端点，叶根攻角超出曲线范围
func TestBlade_DesignTwoPointPolar(t *testing.T) {
	tables := []struct {
		name  string
		table airfoil.Table
	}{
		{"constant ratio", airfoil.Table{Alpha: []float64{0, 10 * deg}, Cl: []float64{0.5, 1.0}, Cd: []float64{0.01, 0.02}}},
		{"optimum at upper end", airfoil.Table{Alpha: []float64{0, 10 * deg}, Cl: []float64{0.5, 1.2}, Cd: []float64{0.01, 0.015}}},
		{"wide range", airfoil.Table{Alpha: []float64{-10 * deg, 20 * deg}, Cl: []float64{-0.3, 1.4}, Cd: []float64{0.02, 0.03}}},
	}
	for _, tt := range tables {
		for _, seed := range []string{SeedBetz, SeedUniform} {
			t.Run(tt.name+"/"+seed, func(t *testing.T) {
				polar, err := airfoil.NewPolar(tt.table)
				require.NoError(t, err)
				cfg := DefaultConfig()
				cfg.Seed = seed
				b, err := NewBlade(polar, 3, cfg)
				require.NoError(t, err)

				err = b.Design(10, 100, 14)
				require.ErrorIs(t, err, airfoil.ErrLookupOutOfRange)
				var ee *ElementError
				require.True(t, errors.As(err, &ee))
				var de *DesignError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, 1, de.Pass)
				assert.Empty(t, b.Elements)
			})
		}
	}
}

func TestBlade_SimulateBeforeDesign(t *testing.T) {
	b, err := NewBlade(testPolar(t), 3, DefaultConfig())
	require.NoError(t, err)
	_, err = b.Simulate(10, 14)
	assert.ErrorIs(t, err, ErrUnsolved)
	_, err = b.Solve(10, FlatLoad(240), 14)
	assert.ErrorIs(t, err, ErrUnsolved)
}

func TestBlade_SimulateDesignPoint(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	torque, err := b.Simulate(10, 14)
	require.NoError(t, err)
	assert.InDelta(t, 99.93, torque, 1)
	assert.InDelta(t, b.Torque, torque, 0.05)
}

func TestBlade_WindSweepMonotonic(t *testing.T) {
	b := designedBlade(t, DefaultConfig())
	curve, err := b.WindSweep(14, 5, 14, 10)
	require.NoError(t, err)
	require.Len(t, curve, 10)
	assert.Equal(t, 5.0, curve[0].WindSpeed)
	assert.Equal(t, 14.0, curve[9].WindSpeed)
	for i := 1; i < len(curve); i++ {
		assert.Greater(t, curve[i].Torque, curve[i-1].Torque)
	}
}

func TestRestoreBlade(t *testing.T) {
	cfg := DefaultConfig()
	b := designedBlade(t, cfg)
	want, err := b.Simulate(9, 13)
	require.NoError(t, err)

	restored, err := RestoreBlade(b.Polar, b.BladeCount, b.Radius, b.Geometry(), cfg)
	require.NoError(t, err)
	got, err := restored.Simulate(9, 13)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	g := b.Geometry()
	g[3].R1 += 0.01
	_, err = RestoreBlade(b.Polar, b.BladeCount, b.Radius, g, cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = RestoreBlade(b.Polar, b.BladeCount, b.Radius, nil, cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func BenchmarkBlade_Design(b *testing.B) {
	cfg := DefaultConfig()
	blade, err := NewBlade(testPolar(b), 3, cfg)
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = blade.Design(10, 100, 14)
	}
}
