package calculator

import (
	"fmt"
	"math"

	"gopkg.in/ini.v1"
)

// 诱导因子初值策略
const (
	SeedBetz    = "betz"    // 闭式解 phi = 2/3·atan(1/λ) 作为初值
	SeedUniform = "uniform" // a = 1/3, a' = InitialAngularInduction
)

// 半径修正方式
const (
	RescaleSqrt   = "sqrt"   // R·sqrt(T0/T)
	RescaleDamped = "damped" // 0.8·R·T0/T + 0.2·R
)

// 工况搜索方式
const (
	SearchStep      = "step"
	SearchBisection = "bisection"
)

type Config struct {
	AirDensity float64 // 空气密度 kg/m³
	Epsilon    float64 // 奇异判定阈值

	// 叶素
	InductionTolerance      float64
	MaxInductionPasses      int
	Relaxation              float64
	InitialAngularInduction float64
	Seed                    string

	// 设计
	Elements        int
	CpGuess         float64
	DesignTolerance float64
	MaxDesignPasses int
	Rescale         string
	HistoryLength   int

	// 工况搜索
	Searcher        string
	SearchStep      float64
	MaxSearchPasses int
	BisectionHigh   float64
	SearchTolerance float64

	Workers int
}

func DefaultConfig() Config {
	return Config{
		AirDensity:              1.225,
		Epsilon:                 1e-9,
		InductionTolerance:      0.005,
		MaxInductionPasses:      500,
		Relaxation:              0.3,
		InitialAngularInduction: 0.01,
		Seed:                    SeedBetz,
		Elements:                30,
		CpGuess:                 0.45,
		DesignTolerance:         0.005,
		MaxDesignPasses:         50,
		Rescale:                 RescaleSqrt,
		HistoryLength:           64,
		Searcher:                SearchStep,
		SearchStep:              0.01,
		MaxSearchPasses:         100000,
		BisectionHigh:           200,
		SearchTolerance:         0.01,
		Workers:                 4,
	}
}

// LoadConfig 读取 ini 配置文件的 [calculator] 段
func LoadConfig(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("配置文件读取错误，请检查文件路径: %w", err)
	}
	return FromIni(file)
}

func FromIni(file *ini.File) (Config, error) {
	d := DefaultConfig()
	sec := file.Section("calculator")
	cfg := Config{
		AirDensity:              sec.Key("AirDensity").MustFloat64(d.AirDensity),
		Epsilon:                 sec.Key("Epsilon").MustFloat64(d.Epsilon),
		InductionTolerance:      sec.Key("InductionTolerance").MustFloat64(d.InductionTolerance),
		MaxInductionPasses:      sec.Key("MaxInductionPasses").MustInt(d.MaxInductionPasses),
		Relaxation:              sec.Key("Relaxation").MustFloat64(d.Relaxation),
		InitialAngularInduction: sec.Key("InitialAngularInduction").MustFloat64(d.InitialAngularInduction),
		Seed:                    sec.Key("Seed").In(d.Seed, []string{SeedBetz, SeedUniform}),
		Elements:                sec.Key("Elements").MustInt(d.Elements),
		CpGuess:                 sec.Key("CpGuess").MustFloat64(d.CpGuess),
		DesignTolerance:         sec.Key("DesignTolerance").MustFloat64(d.DesignTolerance),
		MaxDesignPasses:         sec.Key("MaxDesignPasses").MustInt(d.MaxDesignPasses),
		Rescale:                 sec.Key("Rescale").In(d.Rescale, []string{RescaleSqrt, RescaleDamped}),
		HistoryLength:           sec.Key("HistoryLength").MustInt(d.HistoryLength),
		Searcher:                sec.Key("Searcher").In(d.Searcher, []string{SearchStep, SearchBisection}),
		SearchStep:              sec.Key("SearchStep").MustFloat64(d.SearchStep),
		MaxSearchPasses:         sec.Key("MaxSearchPasses").MustInt(d.MaxSearchPasses),
		BisectionHigh:           sec.Key("BisectionHigh").MustFloat64(d.BisectionHigh),
		SearchTolerance:         sec.Key("SearchTolerance").MustFloat64(d.SearchTolerance),
		Workers:                 sec.Key("Workers").MustInt(d.Workers),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.AirDensity <= 0:
		return fmt.Errorf("%w: air density %g", ErrInvalidInput, c.AirDensity)
	case c.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon %g", ErrInvalidInput, c.Epsilon)
	case c.InductionTolerance <= 0 || c.DesignTolerance <= 0:
		return fmt.Errorf("%w: tolerances must be positive", ErrInvalidInput)
	case c.MaxInductionPasses < 1 || c.MaxDesignPasses < 1 || c.MaxSearchPasses < 1:
		return fmt.Errorf("%w: pass caps must be positive", ErrInvalidInput)
	case c.Relaxation <= 0 || c.Relaxation > 1:
		return fmt.Errorf("%w: relaxation %g not in (0, 1]", ErrInvalidInput, c.Relaxation)
	case c.Elements < 1:
		return fmt.Errorf("%w: %d elements", ErrInvalidInput, c.Elements)
	case c.CpGuess <= 0:
		return fmt.Errorf("%w: cp guess %g", ErrInvalidInput, c.CpGuess)
	case c.SearchStep <= 0:
		return fmt.Errorf("%w: search step %g", ErrInvalidInput, c.SearchStep)
	case !(c.SearchTolerance > 0):
		return fmt.Errorf("%w: search tolerance %g", ErrInvalidInput, c.SearchTolerance)
	case !(c.BisectionHigh > 0) || math.IsInf(c.BisectionHigh, 0):
		return fmt.Errorf("%w: bisection high %g", ErrInvalidInput, c.BisectionHigh)
	case !(c.InitialAngularInduction > -1) || math.IsInf(c.InitialAngularInduction, 0):
		// a' = -1 时 λ(1+a') 为零
		return fmt.Errorf("%w: initial angular induction %g", ErrInvalidInput, c.InitialAngularInduction)
	case c.HistoryLength < 1:
		return fmt.Errorf("%w: history length %d", ErrInvalidInput, c.HistoryLength)
	case c.Workers < 1:
		return fmt.Errorf("%w: %d workers", ErrInvalidInput, c.Workers)
	}
	return nil
}
