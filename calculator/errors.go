package calculator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("calculator: invalid input")
	ErrSingularGeometry = errors.New("calculator: singular geometry")
	ErrNonConvergence   = errors.New("calculator: iteration did not converge")
	ErrUnsolved         = errors.New("calculator: element not solved")
)

// ElementError 叶素求解失败时的上下文
type ElementError struct {
	R1, R2   float64
	Pass     int
	Residual float64
	Err      error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element [%.4f, %.4f] pass %d residual %.3g: %v", e.R1, e.R2, e.Pass, e.Residual, e.Err)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

// DesignError 半径设计或工况搜索失败时的上下文
type DesignError struct {
	Stage  string
	Pass   int
	Radius float64
	Speed  float64
	Torque float64
	Err    error
}

func (e *DesignError) Error() string {
	return fmt.Sprintf("%s pass %d (radius %.4f, rotor speed %.4f, torque %.4f): %v",
		e.Stage, e.Pass, e.Radius, e.Speed, e.Torque, e.Err)
}

func (e *DesignError) Unwrap() error {
	return e.Err
}
