package model

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// 请求类型与对应的回复类型
const (
	TypeDesign   = "design"
	TypeSimulate = "simulate"
	TypeSolve    = "solve"
	TypeSweep    = "sweep"
	TypeChart    = "chart"
	TypeLoad     = "load"
	TypeList     = "list"
	TypeDelete   = "delete"

	TypeDesigned  = "designed"
	TypeSimulated = "simulated"
	TypeSolved    = "solved"
	TypeSwept     = "swept"
	TypeCharted   = "charted"
	TypeLoaded    = "loaded"
	TypeListed    = "listed"
	TypeDeleted   = "deleted"
	TypeError     = "error"
)

// 翼型曲线，攻角单位为度
type PolarCfg struct {
	Name     string    `json:"name"`
	Reynolds float64   `json:"reynolds"`
	Ncrit    float64   `json:"ncrit"`
	Alpha    []float64 `json:"alpha"`
	Cl       []float64 `json:"cl"`
	Cd       []float64 `json:"cd"`
}

// 设计请求：Polar 为空时按 (Reynolds, Ncrit) 从翼型库中取曲线
type DesignReq struct {
	Polar        *PolarCfg `json:"polar,omitempty"`
	Reynolds     float64   `json:"reynolds"`
	Ncrit        float64   `json:"ncrit"`
	BladeCount   int       `json:"blade_count"`
	WindSpeed    float64   `json:"wind_speed"`
	TargetTorque float64   `json:"target_torque"` // 单叶片
	RotorSpeed   float64   `json:"rotor_speed"`
	Name         string    `json:"name"`
}

type SimulateReq struct {
	WindSpeed  float64 `json:"wind_speed"`
	RotorSpeed float64 `json:"rotor_speed"`
}

// 负载曲线：Speeds 为空时视为恒定阻力矩 Torque
type LoadCfg struct {
	Torque  float64   `json:"torque"`
	Speeds  []float64 `json:"speeds"`
	Torques []float64 `json:"torques"`
}

type SolveReq struct {
	WindSpeed  float64 `json:"wind_speed"`
	StartSpeed float64 `json:"start_speed"`
	Load       LoadCfg `json:"load"`
	Searcher   string  `json:"searcher"` // step / bisection，空则用配置
	High       float64 `json:"high"`
}

// 扫描请求：Variable 为 rotor 时扫描转速，wind 时扫描风速
type SweepReq struct {
	Variable string  `json:"variable"`
	Fixed    float64 `json:"fixed"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	Points   int     `json:"points"`
}

// 曲线图请求：Format 为 png、svg 或 html
type ChartReq struct {
	SweepReq
	Format string `json:"format"`
	Series string `json:"series"` // torque / power / cp
}

type LoadReq struct {
	ID string `json:"id"`
}

// 最近保存的叶片，Limit 不大于 0 时取 20 条
type ListReq struct {
	Limit int `json:"limit"`
}

type DeleteReq struct {
	ID string `json:"id"`
}

// 叶素几何，扭角单位为度
type ElementReport struct {
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	Chord float64 `json:"chord"`
	Twist float64 `json:"twist"`
}

type BladeReport struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BladeCount   int             `json:"blade_count"`
	Radius       float64         `json:"radius"`
	Torque       float64         `json:"torque"`
	WindSpeed    float64         `json:"wind_speed"`
	RotorSpeed   float64         `json:"rotor_speed"`
	TargetTorque float64         `json:"target_torque"`
	Passes       int             `json:"passes"`
	Elements     []ElementReport `json:"elements"`
}

// 图片内容为 base64，html 为页面文本
type ChartReply struct {
	Format string `json:"format"`
	Data   string `json:"data"`
}
