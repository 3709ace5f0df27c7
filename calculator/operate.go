package calculator

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// OperatingPoint 某一工况下的叶片输出
type OperatingPoint struct {
	WindSpeed        float64 `json:"wind_speed"`
	RotorSpeed       float64 `json:"rotor_speed"`
	Torque           float64 `json:"torque"`       // 单叶片扭矩
	RotorTorque      float64 `json:"rotor_torque"` // 整个转子扭矩
	Power            float64 `json:"power"`
	PowerCoefficient float64 `json:"power_coefficient"`
}

// Equilibrium 负载匹配结果
type Equilibrium struct {
	OperatingPoint
	LoadTorque float64 `json:"load_torque"`
	Passes     int     `json:"passes"`
	LastStep   float64 `json:"last_step"`
}

func (b *Blade) checkBuilt() error {
	if len(b.Elements) == 0 {
		return fmt.Errorf("%w: blade has not been designed", ErrUnsolved)
	}
	return nil
}

// Simulate 几何不变，重新求解所有叶素并返回单叶片总扭矩
func (b *Blade) Simulate(windSpeed, rotorSpeed float64) (float64, error) {
	if err := b.checkBuilt(); err != nil {
		return 0, err
	}
	torque, _, err := b.solveElements(b.Elements, func(e *Element) error {
		return e.Simulate(windSpeed, rotorSpeed)
	})
	return torque, err
}

// Operate 仿真并给出功率、功率系数
func (b *Blade) Operate(windSpeed, rotorSpeed float64) (OperatingPoint, error) {
	torque, err := b.Simulate(windSpeed, rotorSpeed)
	if err != nil {
		return OperatingPoint{}, err
	}
	return b.operatingPoint(windSpeed, rotorSpeed, torque), nil
}

func (b *Blade) operatingPoint(windSpeed, rotorSpeed, torque float64) OperatingPoint {
	rotorTorque := torque * float64(b.BladeCount)
	power := rotorTorque * rotorSpeed
	available := 0.5 * b.cfg.AirDensity * math.Pi * b.Radius * b.Radius * math.Pow(windSpeed, 3)
	return OperatingPoint{
		WindSpeed:        windSpeed,
		RotorSpeed:       rotorSpeed,
		Torque:           torque,
		RotorTorque:      rotorTorque,
		Power:            power,
		PowerCoefficient: power / available,
	}
}

// Solve 从 start 开始搜索叶片扭矩与负载平衡的转速，负载按叶片数均分
func (b *Blade) Solve(windSpeed float64, load LoadCurve, start float64) (Equilibrium, error) {
	return b.SolveWith(b.searcher, windSpeed, load, start)
}

func (b *Blade) SolveWith(s Searcher, windSpeed float64, load LoadCurve, start float64) (Equilibrium, error) {
	if err := b.checkBuilt(); err != nil {
		return Equilibrium{}, err
	}
	if load == nil || !(start > 0) {
		return Equilibrium{}, fmt.Errorf("%w: load curve and positive start speed required", ErrInvalidInput)
	}
	blades := float64(b.BladeCount)
	res, err := s.Search(func(rotorSpeed float64) (float64, float64, error) {
		torque, err := b.Simulate(windSpeed, rotorSpeed)
		return torque, load.Torque(rotorSpeed) / blades, err
	}, start)
	if err != nil {
		return Equilibrium{}, err
	}
	eq := Equilibrium{
		OperatingPoint: b.operatingPoint(windSpeed, res.RotorSpeed, res.Produced),
		LoadTorque:     res.Required * blades,
		Passes:         res.Passes,
		LastStep:       res.LastStep,
	}
	log.WithFields(log.Fields{
		"windSpeed":  windSpeed,
		"rotorSpeed": eq.RotorSpeed,
		"torque":     eq.Torque,
		"load":       eq.LoadTorque,
		"passes":     eq.Passes,
	}).Info("工况平衡点")
	return eq, nil
}

// Sweep 风速不变，转速在 [from, to] 上均匀取 n 个点
func (b *Blade) Sweep(windSpeed, from, to float64, n int) ([]OperatingPoint, error) {
	if n < 2 || !(from > 0) || !(to > from) {
		return nil, fmt.Errorf("%w: sweep [%g, %g] with %d points", ErrInvalidInput, from, to, n)
	}
	speeds := floats.Span(make([]float64, n), from, to)
	curve := make([]OperatingPoint, 0, n)
	for _, speed := range speeds {
		p, err := b.Operate(windSpeed, speed)
		if err != nil {
			return nil, err
		}
		curve = append(curve, p)
	}
	return curve, nil
}

// WindSweep 转速不变，风速在 [from, to] 上均匀取 n 个点
func (b *Blade) WindSweep(rotorSpeed, from, to float64, n int) ([]OperatingPoint, error) {
	if n < 2 || !(from > 0) || !(to > from) {
		return nil, fmt.Errorf("%w: sweep [%g, %g] with %d points", ErrInvalidInput, from, to, n)
	}
	winds := floats.Span(make([]float64, n), from, to)
	curve := make([]OperatingPoint, 0, n)
	for _, wind := range winds {
		p, err := b.Operate(wind, rotorSpeed)
		if err != nil {
			return nil, err
		}
		curve = append(curve, p)
	}
	return curve, nil
}
