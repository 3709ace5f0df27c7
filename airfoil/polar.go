package airfoil

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// 最优攻角扫描步长 0.1°
const ScanStep = math.Pi / 1800

var (
	ErrLookupOutOfRange = errors.New("airfoil: angle of attack out of tabulated range")
	ErrInvalidPolar     = errors.New("airfoil: invalid polar table")
	ErrZeroDrag         = errors.New("airfoil: drag coefficient is zero or changes sign")
	ErrGridMismatch     = errors.New("airfoil: alpha grids differ")
	ErrNoBracket        = errors.New("airfoil: reynolds number not bracketed")
)

// Polar 某一雷诺数、Ncrit 下的升阻力曲线
type Polar struct {
	Reynolds float64
	Ncrit    float64

	alpha []float64 // 攻角，弧度，严格递增
	cl    []float64
	cd    []float64

	minAlpha float64
	maxAlpha float64

	lift interp.PiecewiseLinear
	drag interp.PiecewiseLinear

	once       sync.Once
	optimal    float64
	optimalErr error
}

// NewPolar 校验并构建曲线，构建后不可修改
func NewPolar(t Table) (*Polar, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	p := &Polar{
		Reynolds: t.Reynolds,
		Ncrit:    t.Ncrit,
		alpha:    append([]float64(nil), t.Alpha...),
		cl:       append([]float64(nil), t.Cl...),
		cd:       append([]float64(nil), t.Cd...),
	}
	p.minAlpha = p.alpha[0]
	p.maxAlpha = p.alpha[len(p.alpha)-1]
	if err := p.lift.Fit(p.alpha, p.cl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolar, err)
	}
	if err := p.drag.Fit(p.alpha, p.cd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolar, err)
	}
	return p, nil
}

func (p *Polar) MinAlpha() float64 { return p.minAlpha }

func (p *Polar) MaxAlpha() float64 { return p.maxAlpha }

// Table 返回曲线数据的拷贝
func (p *Polar) Table() Table {
	return Table{
		Reynolds: p.Reynolds,
		Ncrit:    p.Ncrit,
		Alpha:    append([]float64(nil), p.alpha...),
		Cl:       append([]float64(nil), p.cl...),
		Cd:       append([]float64(nil), p.cd...),
	}
}

func (p *Polar) checkRange(alpha float64) error {
	if math.IsNaN(alpha) || alpha < p.minAlpha || alpha > p.maxAlpha {
		return fmt.Errorf("%w: alpha %.6f rad not in [%.6f, %.6f]", ErrLookupOutOfRange, alpha, p.minAlpha, p.maxAlpha)
	}
	return nil
}

// LiftCoefficient 升力系数，不外推
func (p *Polar) LiftCoefficient(alpha float64) (float64, error) {
	if err := p.checkRange(alpha); err != nil {
		return 0, err
	}
	return p.lift.Predict(alpha), nil
}

// DragCoefficient 阻力系数，不外推
func (p *Polar) DragCoefficient(alpha float64) (float64, error) {
	if err := p.checkRange(alpha); err != nil {
		return 0, err
	}
	return p.drag.Predict(alpha), nil
}

// Coefficients 同时查询升力和阻力系数
func (p *Polar) Coefficients(alpha float64) (cl, cd float64, err error) {
	if err = p.checkRange(alpha); err != nil {
		return 0, 0, err
	}
	return p.lift.Predict(alpha), p.drag.Predict(alpha), nil
}

// NormalComponent 法向力系数 Cl·cos(phi) + Cd·sin(phi)
func (p *Polar) NormalComponent(alpha, phi float64) (float64, error) {
	cl, cd, err := p.Coefficients(alpha)
	if err != nil {
		return 0, err
	}
	return Normal(cl, cd, phi), nil
}

// TangentialComponent 切向力系数 Cl·sin(phi) - Cd·cos(phi)
func (p *Polar) TangentialComponent(alpha, phi float64) (float64, error) {
	cl, cd, err := p.Coefficients(alpha)
	if err != nil {
		return 0, err
	}
	return Tangential(cl, cd, phi), nil
}

func Normal(cl, cd, phi float64) float64 {
	return cl*math.Cos(phi) + cd*math.Sin(phi)
}

func Tangential(cl, cd, phi float64) float64 {
	return cl*math.Sin(phi) - cd*math.Cos(phi)
}

// OptimalAlpha 升阻比最大的攻角，首次调用时计算并缓存
func (p *Polar) OptimalAlpha() (float64, error) {
	p.once.Do(func() {
		p.optimal, p.optimalErr = p.scanOptimal()
	})
	return p.optimal, p.optimalErr
}

func (p *Polar) scanOptimal() (float64, error) {
	grid := p.ScanGrid()
	ratio := make([]float64, len(grid))
	negative := p.drag.Predict(grid[0]) < 0
	for i, a := range grid {
		cl, cd := p.lift.Predict(a), p.drag.Predict(a)
		if cd == 0 || (cd < 0) != negative {
			return 0, fmt.Errorf("%w: cd=%g at alpha %.6f rad", ErrZeroDrag, cd, a)
		}
		ratio[i] = cl / cd
	}
	return grid[floats.MaxIdx(ratio)], nil
}

// ScanGrid 最优攻角扫描网格 min + k·ScanStep，不超过 max
func (p *Polar) ScanGrid() []float64 {
	n := int(math.Floor((p.maxAlpha-p.minAlpha)/ScanStep+1e-9)) + 1
	grid := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		a := p.minAlpha + float64(k)*ScanStep
		if a > p.maxAlpha {
			a = p.maxAlpha
		}
		grid = append(grid, a)
	}
	return grid
}
