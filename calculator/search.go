package calculator

import (
	"fmt"
	"math"
)

// Probe 给定转速下叶片产生的扭矩和负载要求的扭矩（单叶片）
type Probe func(rotorSpeed float64) (produced, required float64, err error)

// SearchResult 扭矩平衡点
type SearchResult struct {
	RotorSpeed float64 `json:"rotor_speed"`
	Produced   float64 `json:"produced"`
	Required   float64 `json:"required"`
	Passes     int     `json:"passes"`
	LastStep   float64 `json:"last_step"`
}

// Searcher 工况搜索策略
type Searcher interface {
	Search(probe Probe, start float64) (SearchResult, error)
}

// StepSearch 从初始转速单调向上搜索：产生扭矩大于负载时按超出百分比加速，
// 步长 min(step·(超出% + 1), 100·step)，直到产生扭矩不大于负载。
// 经验控制律，负载曲线非单调时只能找到第一个交点
type StepSearch struct {
	Step      float64
	MaxPasses int
}

func (s StepSearch) Search(probe Probe, start float64) (SearchResult, error) {
	speed := start
	last := 0.0
	produced := math.NaN()
	for n := 1; n <= s.MaxPasses; n++ {
		p, required, err := probe(speed)
		if err != nil {
			return SearchResult{}, &DesignError{Stage: "step search", Pass: n, Speed: speed, Torque: produced, Err: err}
		}
		produced = p
		if produced <= required {
			return SearchResult{RotorSpeed: speed, Produced: produced, Required: required, Passes: n, LastStep: last}, nil
		}
		last = 100 * s.Step
		if required > 0 {
			excess := 100 * (produced - required) / required
			last = math.Min(s.Step*(excess+1), 100*s.Step)
		}
		speed += last
	}
	return SearchResult{}, &DesignError{Stage: "step search", Pass: s.MaxPasses, Speed: speed, Torque: produced, Err: ErrNonConvergence}
}

// Bisection 在 [Low, High] 内二分，要求 Low 处扭矩有盈余、High 处不足。
// Low 不大于 0 时使用初始转速
type Bisection struct {
	Low       float64
	High      float64
	Tolerance float64
	MaxPasses int
}

func (b Bisection) Search(probe Probe, start float64) (SearchResult, error) {
	low, high := b.Low, b.High
	if low <= 0 {
		low = start
	}
	if !(low < high) {
		return SearchResult{}, fmt.Errorf("%w: bisection bracket [%g, %g]", ErrInvalidInput, low, high)
	}
	pLow, rLow, err := probe(low)
	if err != nil {
		return SearchResult{}, &DesignError{Stage: "bisection", Speed: low, Err: err}
	}
	if pLow <= rLow {
		return SearchResult{RotorSpeed: low, Produced: pLow, Required: rLow, Passes: 1}, nil
	}
	pHigh, rHigh, err := probe(high)
	if err != nil {
		return SearchResult{}, &DesignError{Stage: "bisection", Speed: high, Err: err}
	}
	if pHigh > rHigh {
		return SearchResult{}, &DesignError{Stage: "bisection", Pass: 2, Speed: high, Torque: pHigh,
			Err: fmt.Errorf("%w: torque still exceeds load at upper bound", ErrNonConvergence)}
	}

	res := SearchResult{RotorSpeed: high, Produced: pHigh, Required: rHigh, Passes: 2, LastStep: high - low}
	for res.Passes < b.MaxPasses && high-low > b.Tolerance {
		mid := (low + high) / 2
		p, r, err := probe(mid)
		res.Passes++
		if err != nil {
			return SearchResult{}, &DesignError{Stage: "bisection", Pass: res.Passes, Speed: mid, Err: err}
		}
		if p > r {
			low = mid
		} else {
			high = mid
			res.RotorSpeed, res.Produced, res.Required = mid, p, r
		}
		res.LastStep = high - low
	}
	if high-low > b.Tolerance {
		return SearchResult{}, &DesignError{Stage: "bisection", Pass: res.Passes, Speed: high, Torque: res.Produced, Err: ErrNonConvergence}
	}
	return res, nil
}
