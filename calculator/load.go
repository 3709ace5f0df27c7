package calculator

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// LoadCurve 外部负载：转速 rad/s -> 所需阻力矩 N·m（整个转子）
type LoadCurve interface {
	Torque(rotorSpeed float64) float64
}

// FlatLoad 恒定阻力矩
type FlatLoad float64

func (f FlatLoad) Torque(float64) float64 { return float64(f) }

// LoadFunc 函数形式的负载曲线
type LoadFunc func(rotorSpeed float64) float64

func (f LoadFunc) Torque(rotorSpeed float64) float64 { return f(rotorSpeed) }

// TabulatedLoad 发电机实测阻力矩曲线，末端按最后两点外推一个点，范围外取端点值
type TabulatedLoad struct {
	Speeds  []float64
	Torques []float64

	curve interp.PiecewiseLinear
}

func NewTabulatedLoad(speeds, torques []float64) (*TabulatedLoad, error) {
	n := len(speeds)
	if n < 2 || len(torques) != n {
		return nil, fmt.Errorf("%w: load curve needs matching speed/torque samples, got %d/%d", ErrInvalidInput, n, len(torques))
	}
	for i := 1; i < n; i++ {
		if speeds[i] <= speeds[i-1] {
			return nil, fmt.Errorf("%w: load speeds not strictly increasing at %d", ErrInvalidInput, i)
		}
	}
	xs := append(append([]float64(nil), speeds...), 2*speeds[n-1]-speeds[n-2])
	ys := append(append([]float64(nil), torques...), 2*torques[n-1]-torques[n-2])

	l := &TabulatedLoad{Speeds: xs, Torques: ys}
	if err := l.curve.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return l, nil
}

func (l *TabulatedLoad) Torque(rotorSpeed float64) float64 {
	return l.curve.Predict(rotorSpeed)
}
