package calculator

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"rotor/airfoil"
	"rotor/deque"
)

// DesignPass 半径设计的一轮记录
type DesignPass struct {
	Pass   int     `json:"pass"`
	Radius float64 `json:"radius"`
	Torque float64 `json:"torque"`
	Ratio  float64 `json:"ratio"` // 扭矩 / 目标扭矩
}

// Blade 叶片：翼型、叶片数、半径以及等宽划分的叶素
type Blade struct {
	Polar      *airfoil.Polar
	BladeCount int
	Radius     float64
	Torque     float64 // 单叶片扭矩

	// 设计工况
	WindSpeed    float64
	RotorSpeed   float64
	TargetTorque float64

	Elements []*Element

	cfg      Config
	pool     *executor
	history  deque.Deque[DesignPass]
	searcher Searcher
}

func NewBlade(polar *airfoil.Polar, bladeCount int, cfg Config) (*Blade, error) {
	if polar == nil {
		return nil, fmt.Errorf("%w: nil polar", ErrInvalidInput)
	}
	if bladeCount < 1 {
		return nil, fmt.Errorf("%w: blade count %d", ErrInvalidInput, bladeCount)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Blade{
		Polar:      polar,
		BladeCount: bladeCount,
		cfg:        cfg,
		pool:       newExecutor(cfg.Workers),
		history:    deque.NewArrDeque[DesignPass](cfg.HistoryLength),
	}
	b.searcher = b.defaultSearcher()
	return b, nil
}

// RestoreBlade 由已保存的几何恢复叶片，可直接仿真
func RestoreBlade(polar *airfoil.Polar, bladeCount int, radius float64, geometry []Geometry, cfg Config) (*Blade, error) {
	b, err := NewBlade(polar, bladeCount, cfg)
	if err != nil {
		return nil, err
	}
	if radius <= 0 || len(geometry) == 0 {
		return nil, fmt.Errorf("%w: radius %g with %d elements", ErrInvalidInput, radius, len(geometry))
	}
	b.Radius = radius
	b.Elements = make([]*Element, len(geometry))
	for i, g := range geometry {
		if i > 0 && math.Abs(g.R1-geometry[i-1].R2) > 1e-9*radius {
			return nil, fmt.Errorf("%w: gap between element %d and %d", ErrInvalidInput, i-1, i)
		}
		if b.Elements[i], err = restoreElement(g, radius, bladeCount, polar, &b.cfg); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Blade) Config() Config { return b.cfg }

// SetSearcher 替换工况搜索策略
func (b *Blade) SetSearcher(s Searcher) {
	if s == nil {
		s = b.defaultSearcher()
	}
	b.searcher = s
}

func (b *Blade) defaultSearcher() Searcher {
	if b.cfg.Searcher == SearchBisection {
		return Bisection{High: b.cfg.BisectionHigh, Tolerance: b.cfg.SearchTolerance, MaxPasses: b.cfg.MaxSearchPasses}
	}
	return StepSearch{Step: b.cfg.SearchStep, MaxPasses: b.cfg.MaxSearchPasses}
}

// Geometry 各叶素的成型几何
func (b *Blade) Geometry() []Geometry {
	res := make([]Geometry, len(b.Elements))
	for i, e := range b.Elements {
		res[i] = e.Geometry()
	}
	return res
}

// History 最近的半径设计记录
func (b *Blade) History() []DesignPass {
	return b.history.Slice()
}

// Passes 最近一次设计用掉的轮数，记录被淘汰后仍然准确
func (b *Blade) Passes() int {
	if b.history.IsEmpty() {
		return 0
	}
	return b.history.Get(b.history.Size() - 1).Pass
}

// Design 搜索使单叶片扭矩达到 targetTorque 的半径，设计工况为 (windSpeed, rotorSpeed)
func (b *Blade) Design(windSpeed, targetTorque, rotorSpeed float64) error {
	if !(windSpeed > 0) || !(targetTorque > 0) || !(rotorSpeed > 0) {
		return fmt.Errorf("%w: wind speed %g, target torque %g, rotor speed %g", ErrInvalidInput, windSpeed, targetTorque, rotorSpeed)
	}
	cfg := b.cfg
	power := targetTorque * rotorSpeed
	radius := math.Sqrt(2 * power * float64(b.BladeCount) / (cfg.CpGuess * cfg.AirDensity * math.Pi * math.Pow(windSpeed, 3)))
	b.history.Clear()

	for n := 1; n <= cfg.MaxDesignPasses; n++ {
		elements, err := b.partition(radius)
		if err != nil {
			return &DesignError{Stage: "design", Pass: n, Radius: radius, Speed: rotorSpeed, Err: err}
		}
		torque, cost, err := b.solveElements(elements, func(e *Element) error {
			return e.Design(windSpeed, rotorSpeed)
		})
		if err != nil {
			return &DesignError{Stage: "design", Pass: n, Radius: radius, Speed: rotorSpeed, Err: err}
		}
		ratio := torque / targetTorque
		b.history.AddLast(DesignPass{Pass: n, Radius: radius, Torque: torque, Ratio: ratio})
		log.WithFields(log.Fields{
			"pass":   n,
			"radius": radius,
			"torque": torque,
			"ratio":  ratio,
			"cost":   cost,
		}).Debug("半径设计迭代")

		if math.Abs(ratio-1) <= cfg.DesignTolerance {
			b.Radius, b.Torque, b.Elements = radius, torque, elements
			b.WindSpeed, b.RotorSpeed, b.TargetTorque = windSpeed, rotorSpeed, targetTorque
			log.WithFields(log.Fields{
				"radius":   radius,
				"torque":   torque,
				"passes":   n,
				"elements": len(elements),
				"blades":   b.BladeCount,
			}).Info("叶片设计完成")
			return nil
		}
		if torque <= 0 {
			return &DesignError{Stage: "design", Pass: n, Radius: radius, Speed: rotorSpeed, Torque: torque,
				Err: fmt.Errorf("%w: non-positive torque cannot be rescaled", ErrNonConvergence)}
		}
		if cfg.Rescale == RescaleDamped {
			radius = 0.8*radius*targetTorque/torque + 0.2*radius
		} else {
			radius *= math.Sqrt(targetTorque / torque)
		}
	}
	p := b.history.Get(b.history.Size() - 1)
	return &DesignError{Stage: "design", Pass: p.Pass, Radius: p.Radius, Speed: rotorSpeed, Torque: p.Torque, Err: ErrNonConvergence}
}

// 将 [0, R] 等分为 N 个叶素
func (b *Blade) partition(radius float64) ([]*Element, error) {
	n := b.cfg.Elements
	elements := make([]*Element, n)
	for i := 0; i < n; i++ {
		r1 := radius * float64(i) / float64(n)
		r2 := radius * float64(i+1) / float64(n)
		e, err := NewElement(r1, r2, radius, b.BladeCount, b.Polar, &b.cfg)
		if err != nil {
			return nil, err
		}
		elements[i] = e
	}
	return elements, nil
}

// 并行求解各叶素，按下标顺序求和
func (b *Blade) solveElements(elements []*Element, solve func(e *Element) error) (float64, int64, error) {
	cost, err := b.pool.dispatchTask(len(elements), func(i int) error {
		return solve(elements[i])
	})
	if err != nil {
		return 0, cost.Milliseconds(), err
	}
	torque := 0.0
	for _, e := range elements {
		torque += e.sol.Torque
	}
	return torque, cost.Milliseconds(), nil
}
