package calculator

import (
	"fmt"
	"math"

	"rotor/airfoil"
)

// 叶素求解状态
type State uint8

const (
	Unsolved       State = iota
	GeometrySolved       // 诱导因子已收敛
	TorqueSolved         // 扭矩、功率已计算
)

func (s State) String() string {
	switch s {
	case GeometrySolved:
		return "geometry-solved"
	case TorqueSolved:
		return "torque-solved"
	default:
		return "unsolved"
	}
}

// 松弛步长最多减半次数
const maxStepHalving = 30

// Geometry 叶素的成型几何，设计完成后冻结
type Geometry struct {
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	Chord float64 `json:"chord"`
	Twist float64 `json:"twist"`
	// 设计工况下收敛的诱导因子，作为再仿真的初值
	Axial   float64 `json:"axial"`
	Angular float64 `json:"angular"`
}

// Solution 当前工况下的求解结果
type Solution struct {
	SpeedRatio       float64 `json:"speed_ratio"`
	Axial            float64 `json:"axial"`
	Angular          float64 `json:"angular"`
	Chord            float64 `json:"chord"`
	Solidity         float64 `json:"solidity"`
	Alpha            float64 `json:"alpha"`
	Twist            float64 `json:"twist"`
	Inflow           float64 `json:"inflow"`
	TipLoss          float64 `json:"tip_loss"`
	Pressure         float64 `json:"pressure"`
	Torque           float64 `json:"torque"`
	PowerCoefficient float64 `json:"power_coefficient"`
	Passes           int     `json:"passes"`
	Residual         float64 `json:"residual"`
}

// Element 叶片上的一个环形叶素
type Element struct {
	R1, R2      float64
	Radius      float64 // 中径
	BladeCount  int
	RotorRadius float64

	WindSpeed  float64
	RotorSpeed float64

	polar *airfoil.Polar
	cfg   *Config

	geometry Geometry
	built    bool

	state State
	sol   Solution
	tan   float64 // 最后一轮的切向力系数
}

func NewElement(r1, r2, rotorRadius float64, bladeCount int, polar *airfoil.Polar, cfg *Config) (*Element, error) {
	switch {
	case polar == nil || cfg == nil:
		return nil, fmt.Errorf("%w: nil polar or config", ErrInvalidInput)
	case bladeCount < 1:
		return nil, fmt.Errorf("%w: blade count %d", ErrInvalidInput, bladeCount)
	case rotorRadius <= 0:
		return nil, fmt.Errorf("%w: rotor radius %g", ErrInvalidInput, rotorRadius)
	case r1 < 0 || r1 >= r2:
		return nil, fmt.Errorf("%w: element bounds [%g, %g]", ErrInvalidInput, r1, r2)
	case r2 > rotorRadius*(1+1e-12):
		return nil, fmt.Errorf("%w: element outer radius %g beyond rotor radius %g", ErrInvalidInput, r2, rotorRadius)
	}
	return &Element{
		R1:          r1,
		R2:          r2,
		Radius:      (r1 + r2) / 2,
		BladeCount:  bladeCount,
		RotorRadius: rotorRadius,
		polar:       polar,
		cfg:         cfg,
	}, nil
}

// 从已保存的几何恢复叶素
func restoreElement(g Geometry, rotorRadius float64, bladeCount int, polar *airfoil.Polar, cfg *Config) (*Element, error) {
	e, err := NewElement(g.R1, g.R2, rotorRadius, bladeCount, polar, cfg)
	if err != nil {
		return nil, err
	}
	if g.Chord <= 0 || math.IsNaN(g.Twist) {
		return nil, fmt.Errorf("%w: chord %g twist %g", ErrInvalidInput, g.Chord, g.Twist)
	}
	e.geometry = g
	e.built = true
	return e, nil
}

func (e *Element) State() State { return e.state }

func (e *Element) Geometry() Geometry { return e.geometry }

// Solution 仅在 TorqueSolved 状态下有效
func (e *Element) Solution() (Solution, error) {
	if e.state != TorqueSolved {
		return Solution{}, e.fail(ErrUnsolved, 0, 0)
	}
	return e.sol, nil
}

// Reset 工况变化后回到未求解状态
func (e *Element) Reset(windSpeed, rotorSpeed float64) {
	e.WindSpeed = windSpeed
	e.RotorSpeed = rotorSpeed
	e.state = Unsolved
	e.sol = Solution{}
}

// Design 设计工况下求解：确定扭角并按 Betz 最优分布计算弦长，收敛后冻结几何
func (e *Element) Design(windSpeed, rotorSpeed float64) error {
	if err := e.checkSpeeds(windSpeed, rotorSpeed); err != nil {
		return err
	}
	e.Reset(windSpeed, rotorSpeed)
	e.built = false

	optimal, err := e.polar.OptimalAlpha()
	if err != nil {
		return e.fail(err, 0, 0)
	}
	lambda := rotorSpeed * e.Radius / windSpeed
	e.geometry = Geometry{R1: e.R1, R2: e.R2, Twist: math.Atan2(2, 3*lambda) - optimal}

	a, ap := 1.0/3, e.cfg.InitialAngularInduction
	if e.cfg.Seed != SeedUniform {
		if a, ap, err = e.betzSeed(lambda, optimal); err != nil {
			return e.fail(err, 0, 0)
		}
	}
	if err = e.converge(lambda, a, ap, true); err != nil {
		return err
	}
	e.geometry.Chord = e.sol.Chord
	e.geometry.Axial = e.sol.Axial
	e.geometry.Angular = e.sol.Angular
	e.built = true
	e.finalize()
	return nil
}

// Simulate 几何不变，在新工况下重新求解诱导因子
func (e *Element) Simulate(windSpeed, rotorSpeed float64) error {
	if !e.built {
		return e.fail(fmt.Errorf("%w: element has no built geometry", ErrUnsolved), 0, 0)
	}
	if err := e.checkSpeeds(windSpeed, rotorSpeed); err != nil {
		return err
	}
	e.Reset(windSpeed, rotorSpeed)
	lambda := rotorSpeed * e.Radius / windSpeed
	if err := e.converge(lambda, e.geometry.Axial, e.geometry.Angular, false); err != nil {
		return err
	}
	e.finalize()
	return nil
}

func (e *Element) checkSpeeds(windSpeed, rotorSpeed float64) error {
	if !(windSpeed > 0) || !(rotorSpeed > 0) || math.IsInf(windSpeed, 0) || math.IsInf(rotorSpeed, 0) {
		return e.fail(fmt.Errorf("%w: wind speed %g, rotor speed %g", ErrInvalidInput, windSpeed, rotorSpeed), 0, 0)
	}
	return nil
}

// 闭式解 phi = 2/3·atan(1/λ) 在最优攻角下给出的诱导因子
func (e *Element) betzSeed(lambda, optimal float64) (float64, float64, error) {
	phi := 2.0 / 3 * math.Atan2(1, lambda)
	cl, cd, err := e.polar.Coefficients(optimal)
	if err != nil {
		return 0, 0, err
	}
	if math.Abs(cl) < e.cfg.Epsilon {
		return 0, 0, fmt.Errorf("%w: zero lift at optimal alpha", ErrSingularGeometry)
	}
	chord := 8 * math.Pi * e.Radius * (1 - math.Cos(phi)) / (float64(e.BladeCount) * cl)
	p, err := e.induction(phi, chord, airfoil.Normal(cl, cd, phi), airfoil.Tangential(cl, cd, phi))
	if err != nil {
		return 0, 0, err
	}
	return p.axial, p.angular, nil
}

type passResult struct {
	phi, alpha float64
	cl, ct     float64
	chord      float64
	solidity   float64
	tipLoss    float64
	axial      float64
	angular    float64
}

// 一轮不动点迭代
func (e *Element) pass(lambda, a, ap float64, design bool) (passResult, error) {
	den := lambda * (1 + ap)
	if math.Abs(den) < e.cfg.Epsilon {
		return passResult{}, fmt.Errorf("%w: λ(1+a')=%g", ErrSingularGeometry, den)
	}
	phi := math.Atan((1 - a) / den)
	if math.Sin(phi) < e.cfg.Epsilon {
		return passResult{}, fmt.Errorf("%w: inflow angle %g", ErrSingularGeometry, phi)
	}
	alpha := phi - e.geometry.Twist
	cl, cd, err := e.polar.Coefficients(alpha)
	if err != nil {
		return passResult{}, err
	}
	chord := e.geometry.Chord
	if design {
		if math.Abs(cl) < e.cfg.Epsilon {
			return passResult{}, fmt.Errorf("%w: zero lift at alpha %g", ErrSingularGeometry, alpha)
		}
		chord = 8 * math.Pi * e.Radius * (1 - math.Cos(phi)) / (float64(e.BladeCount) * cl)
	}
	ct := airfoil.Tangential(cl, cd, phi)
	p, err := e.induction(phi, chord, airfoil.Normal(cl, cd, phi), ct)
	if err != nil {
		return passResult{}, err
	}
	p.alpha, p.cl, p.ct = alpha, cl, ct
	return p, nil
}

// 动量-叶素平衡给出的诱导因子，含 Prandtl 叶尖损失
func (e *Element) induction(phi, chord, cn, ct float64) (passResult, error) {
	b := float64(e.BladeCount)
	sin, cos := math.Sin(phi), math.Cos(phi)
	if math.Abs(sin) < e.cfg.Epsilon {
		return passResult{}, fmt.Errorf("%w: sin(phi)=%g", ErrSingularGeometry, sin)
	}
	sigma := b * chord / (2 * math.Pi * e.Radius)
	f := b * (e.RotorRadius - e.Radius) / (2 * e.Radius * sin)
	tipLoss := 2 / math.Pi * math.Acos(math.Exp(-f))
	if !(tipLoss > e.cfg.Epsilon) {
		return passResult{}, fmt.Errorf("%w: tip loss factor %g", ErrSingularGeometry, tipLoss)
	}
	axialDen := 4*tipLoss*sin*sin + sigma*cn
	angularDen := 4*tipLoss*sin*cos - sigma*ct
	if math.Abs(axialDen) < e.cfg.Epsilon {
		return passResult{}, fmt.Errorf("%w: axial denominator %g", ErrSingularGeometry, axialDen)
	}
	if math.Abs(angularDen) < e.cfg.Epsilon {
		return passResult{}, fmt.Errorf("%w: angular denominator %g", ErrSingularGeometry, angularDen)
	}
	return passResult{
		phi:      phi,
		chord:    chord,
		solidity: sigma,
		tipLoss:  tipLoss,
		axial:    sigma * cn / axialDen,
		angular:  sigma * ct / angularDen,
	}, nil
}

// 松弛不动点迭代，a、a' 的相对变化都不超过容差时收敛
func (e *Element) converge(lambda, a, ap float64, design bool) error {
	tol := e.cfg.InductionTolerance
	residual := math.Inf(1)
	for n := 1; n <= e.cfg.MaxInductionPasses; n++ {
		p, err := e.pass(lambda, a, ap, design)
		if err != nil {
			return e.fail(err, n, residual)
		}
		residual = math.Max(e.relChange(p.axial, a), e.relChange(p.angular, ap))

		// 步长减半直到 a < 1 且 a' > -1
		step := e.cfg.Relaxation
		nextA, nextAp := a+step*(p.axial-a), ap+step*(p.angular-ap)
		for i := 0; !(nextA < 1 && nextAp > -1); i++ {
			if i == maxStepHalving {
				return e.fail(fmt.Errorf("%w: induction left physical range (a=%g, a'=%g)", ErrSingularGeometry, p.axial, p.angular), n, residual)
			}
			step /= 2
			nextA, nextAp = a+step*(p.axial-a), ap+step*(p.angular-ap)
		}
		a, ap = nextA, nextAp

		if residual <= tol {
			e.sol = Solution{
				SpeedRatio: lambda,
				Axial:      a,
				Angular:    ap,
				Chord:      p.chord,
				Solidity:   p.solidity,
				Alpha:      p.alpha,
				Twist:      e.geometry.Twist,
				Inflow:     p.phi,
				TipLoss:    p.tipLoss,
				Passes:     n,
				Residual:   residual,
			}
			e.tan = p.ct
			e.state = GeometrySolved
			return nil
		}
	}
	return e.fail(ErrNonConvergence, e.cfg.MaxInductionPasses, residual)
}

func (e *Element) relChange(next, prev float64) float64 {
	if math.Abs(next) < e.cfg.Epsilon {
		return math.Abs(next - prev)
	}
	return math.Abs(next-prev) / math.Abs(next)
}

// 切向压力、扭矩与功率系数
func (e *Element) finalize() {
	s := &e.sol
	v := e.WindSpeed
	rho := e.cfg.AirDensity
	sin := math.Sin(s.Inflow)
	s.Pressure = 0.5 * rho * s.Chord * v * v * (1 - s.Axial) * (1 - s.Axial) / (sin * sin) * e.tan
	s.Torque = s.Pressure * (e.R2 - e.R1) * e.Radius
	area := math.Pi * (e.R2*e.R2 - e.R1*e.R1)
	available := 0.5 * rho * area * v * v * v
	s.PowerCoefficient = s.Torque * e.RotorSpeed / available
	e.state = TorqueSolved
}

func (e *Element) fail(err error, pass int, residual float64) error {
	return &ElementError{R1: e.R1, R2: e.R2, Pass: pass, Residual: residual, Err: err}
}
