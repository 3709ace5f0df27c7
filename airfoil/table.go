package airfoil

import (
	"fmt"
	"math"
	"sort"
)

// Table 外部数据源给出的原始曲线数据，攻角单位为弧度
type Table struct {
	Reynolds float64   `json:"reynolds"`
	Ncrit    float64   `json:"ncrit"`
	Alpha    []float64 `json:"alpha"`
	Cl       []float64 `json:"cl"`
	Cd       []float64 `json:"cd"`
}

func (t Table) Validate() error {
	n := len(t.Alpha)
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidPolar, n)
	}
	if len(t.Cl) != n || len(t.Cd) != n {
		return fmt.Errorf("%w: %d alpha, %d cl, %d cd samples", ErrInvalidPolar, n, len(t.Cl), len(t.Cd))
	}
	for i := 0; i < n; i++ {
		if !finite(t.Alpha[i]) || !finite(t.Cl[i]) || !finite(t.Cd[i]) {
			return fmt.Errorf("%w: non-finite value at row %d", ErrInvalidPolar, i)
		}
		if i > 0 && t.Alpha[i] <= t.Alpha[i-1] {
			return fmt.Errorf("%w: alpha not strictly increasing at row %d", ErrInvalidPolar, i)
		}
	}
	return nil
}

// Sort 按攻角升序排列
func (t *Table) Sort() {
	idx := make([]int, len(t.Alpha))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return t.Alpha[idx[i]] < t.Alpha[idx[j]] })
	alpha := make([]float64, len(idx))
	cl := make([]float64, len(idx))
	cd := make([]float64, len(idx))
	for i, k := range idx {
		alpha[i], cl[i], cd[i] = t.Alpha[k], t.Cl[k], t.Cd[k]
	}
	t.Alpha, t.Cl, t.Cd = alpha, cl, cd
}

// Blend 两个雷诺数之间按线性权重插值，攻角网格必须完全一致
func Blend(below, above Table, reynolds float64) (Table, error) {
	if len(below.Alpha) != len(above.Alpha) {
		return Table{}, fmt.Errorf("%w: %d vs %d samples (Re %g, Re %g)", ErrGridMismatch,
			len(below.Alpha), len(above.Alpha), below.Reynolds, above.Reynolds)
	}
	for i := range below.Alpha {
		if below.Alpha[i] != above.Alpha[i] {
			return Table{}, fmt.Errorf("%w: row %d %.6f vs %.6f", ErrGridMismatch, i, below.Alpha[i], above.Alpha[i])
		}
	}
	span := above.Reynolds - below.Reynolds
	if span <= 0 || reynolds < below.Reynolds || reynolds > above.Reynolds {
		return Table{}, fmt.Errorf("%w: %g not in [%g, %g]", ErrNoBracket, reynolds, below.Reynolds, above.Reynolds)
	}
	d := (reynolds - below.Reynolds) / span
	out := Table{
		Reynolds: reynolds,
		Ncrit:    below.Ncrit,
		Alpha:    append([]float64(nil), below.Alpha...),
		Cl:       make([]float64, len(below.Alpha)),
		Cd:       make([]float64, len(below.Alpha)),
	}
	for i := range out.Alpha {
		out.Cl[i] = (1-d)*below.Cl[i] + d*above.Cl[i]
		out.Cd[i] = (1-d)*below.Cd[i] + d*above.Cd[i]
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
