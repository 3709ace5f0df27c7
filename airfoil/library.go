package airfoil

import (
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Provider 按 (雷诺数, Ncrit) 提供曲线
type Provider interface {
	Polar(reynolds, ncrit float64) (*Polar, error)
}

// Library 同一翼型在不同雷诺数、Ncrit 下的曲线集合
type Library struct {
	Name string

	mu     sync.RWMutex
	tables map[float64]map[float64]Table // ncrit -> reynolds -> table
}

func NewLibrary(name string) *Library {
	return &Library{
		Name:   name,
		tables: make(map[float64]map[float64]Table),
	}
}

// Add 加入一条曲线，相同 (Re, Ncrit) 会被覆盖
func (l *Library) Add(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byRe, ok := l.tables[t.Ncrit]
	if !ok {
		byRe = make(map[float64]Table)
		l.tables[t.Ncrit] = byRe
	}
	byRe[t.Reynolds] = t
	return nil
}

// Reynolds 某一 Ncrit 下已有的雷诺数，升序
func (l *Library) Reynolds(ncrit float64) []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]float64, 0, len(l.tables[ncrit]))
	for re := range l.tables[ncrit] {
		res = append(res, re)
	}
	sort.Float64s(res)
	return res
}

// Polar 精确匹配直接返回，否则对相邻的两个雷诺数做线性混合
func (l *Library) Polar(reynolds, ncrit float64) (*Polar, error) {
	l.mu.RLock()
	byRe, ok := l.tables[ncrit]
	if !ok {
		l.mu.RUnlock()
		return nil, fmt.Errorf("%w: no tables for ncrit %g in %q", ErrNoBracket, ncrit, l.Name)
	}
	if t, ok := byRe[reynolds]; ok {
		l.mu.RUnlock()
		return NewPolar(t)
	}
	var below, above *Table
	for re := range byRe {
		t := byRe[re]
		if re < reynolds && (below == nil || re > below.Reynolds) {
			below = &t
		}
		if re > reynolds && (above == nil || re < above.Reynolds) {
			above = &t
		}
	}
	l.mu.RUnlock()
	if below == nil || above == nil {
		return nil, fmt.Errorf("%w: reynolds %g, ncrit %g in %q", ErrNoBracket, reynolds, ncrit, l.Name)
	}

	log.WithFields(log.Fields{
		"airfoil":  l.Name,
		"reynolds": reynolds,
		"below":    below.Reynolds,
		"above":    above.Reynolds,
	}).Debug("blend polar tables")
	t, err := Blend(*below, *above, reynolds)
	if err != nil {
		return nil, err
	}
	return NewPolar(t)
}
