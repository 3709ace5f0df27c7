package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"rotor/airfoil"
	"rotor/calculator"
	"rotor/chart"
	"rotor/model"
	"rotor/store"
)

var (
	errNoBlade = errors.New("no blade designed or loaded on this connection")
	errNoStore = errors.New("store is not configured")
)

const defaultListLimit = 20

// Env 所有连接共享的配置、翼型库和存储
type Env struct {
	Config calculator.Config
	Polars airfoil.Provider // 可为空
	Store  *store.Service   // 可为空
}

type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// Hub 单个连接的请求处理：请求依次处理，回复依次写回
type Hub struct {
	env  *Env
	conn jsonWriter

	blade   *calculator.Blade
	bladeID string
	name    string
	passes  int

	// request
	msg chan model.Msg
	// response
	reply chan model.Msg
	done  chan struct{}
}

func NewHub(env *Env, conn jsonWriter) *Hub {
	return &Hub{
		env:   env,
		conn:  conn,
		msg:   make(chan model.Msg, 10),
		reply: make(chan model.Msg, 10),
		done:  make(chan struct{}),
	}
}

func (h *Hub) handleRequest() {
	for msg := range h.msg {
		h.reply <- h.handle(msg)
	}
	close(h.reply)
}

func (h *Hub) handleResponse() {
	defer close(h.done)
	for reply := range h.reply {
		if err := h.conn.WriteJSON(&reply); err != nil {
			log.WithField("type", reply.Type).Warn("回复发送失败: ", err)
		}
	}
}

func (h *Hub) handle(msg model.Msg) model.Msg {
	var (
		content interface{}
		err     error
		typ     string
	)
	switch msg.Type {
	case model.TypeDesign:
		typ = model.TypeDesigned
		content, err = h.design(msg.Content)
	case model.TypeSimulate:
		typ = model.TypeSimulated
		content, err = h.simulate(msg.Content)
	case model.TypeSolve:
		typ = model.TypeSolved
		content, err = h.solve(msg.Content)
	case model.TypeSweep:
		typ = model.TypeSwept
		content, err = h.sweep(msg.Content)
	case model.TypeChart:
		typ = model.TypeCharted
		content, err = h.chart(msg.Content)
	case model.TypeLoad:
		typ = model.TypeLoaded
		content, err = h.load(msg.Content)
	case model.TypeList:
		typ = model.TypeListed
		content, err = h.list(msg.Content)
	case model.TypeDelete:
		typ = model.TypeDeleted
		content, err = h.remove(msg.Content)
	default:
		err = fmt.Errorf("no such type: %q", msg.Type)
	}
	if err == nil {
		var data []byte
		if data, err = json.Marshal(content); err == nil {
			return model.Msg{Type: typ, Content: string(data)}
		}
	}
	log.WithFields(log.Fields{
		"type": msg.Type,
	}).Warn("请求处理失败: ", err)
	return model.Msg{Type: model.TypeError, Content: err.Error()}
}

func (h *Hub) design(content string) (model.BladeReport, error) {
	var req model.DesignReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return model.BladeReport{}, err
	}
	polar, err := h.polar(req)
	if err != nil {
		return model.BladeReport{}, err
	}
	b, err := calculator.NewBlade(polar, req.BladeCount, h.env.Config)
	if err != nil {
		return model.BladeReport{}, err
	}
	if err = b.Design(req.WindSpeed, req.TargetTorque, req.RotorSpeed); err != nil {
		return model.BladeReport{}, err
	}
	h.blade, h.bladeID, h.name, h.passes = b, "", req.Name, b.Passes()
	if h.env.Store != nil {
		if h.bladeID, err = h.env.Store.Save(req.Name, b); err != nil {
			return model.BladeReport{}, err
		}
	}
	return h.report(), nil
}

func (h *Hub) polar(req model.DesignReq) (*airfoil.Polar, error) {
	if req.Polar != nil {
		t := airfoil.Table{
			Reynolds: req.Polar.Reynolds,
			Ncrit:    req.Polar.Ncrit,
			Alpha:    make([]float64, len(req.Polar.Alpha)),
			Cl:       req.Polar.Cl,
			Cd:       req.Polar.Cd,
		}
		for i, a := range req.Polar.Alpha {
			t.Alpha[i] = a * math.Pi / 180
		}
		return airfoil.NewPolar(t)
	}
	if h.env.Polars == nil {
		return nil, fmt.Errorf("%w: no polar given and no airfoil library configured", calculator.ErrInvalidInput)
	}
	return h.env.Polars.Polar(req.Reynolds, req.Ncrit)
}

func (h *Hub) simulate(content string) (calculator.OperatingPoint, error) {
	var req model.SimulateReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return calculator.OperatingPoint{}, err
	}
	if h.blade == nil {
		return calculator.OperatingPoint{}, errNoBlade
	}
	return h.blade.Operate(req.WindSpeed, req.RotorSpeed)
}

func (h *Hub) solve(content string) (calculator.Equilibrium, error) {
	var req model.SolveReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return calculator.Equilibrium{}, err
	}
	if h.blade == nil {
		return calculator.Equilibrium{}, errNoBlade
	}
	var load calculator.LoadCurve = calculator.FlatLoad(req.Load.Torque)
	if len(req.Load.Speeds) > 0 {
		tab, err := calculator.NewTabulatedLoad(req.Load.Speeds, req.Load.Torques)
		if err != nil {
			return calculator.Equilibrium{}, err
		}
		load = tab
	}
	cfg := h.env.Config
	switch req.Searcher {
	case "":
		return h.blade.Solve(req.WindSpeed, load, req.StartSpeed)
	case calculator.SearchStep:
		s := calculator.StepSearch{Step: cfg.SearchStep, MaxPasses: cfg.MaxSearchPasses}
		return h.blade.SolveWith(s, req.WindSpeed, load, req.StartSpeed)
	case calculator.SearchBisection:
		high := req.High
		if high <= 0 {
			high = cfg.BisectionHigh
		}
		s := calculator.Bisection{High: high, Tolerance: cfg.SearchTolerance, MaxPasses: cfg.MaxSearchPasses}
		return h.blade.SolveWith(s, req.WindSpeed, load, req.StartSpeed)
	}
	return calculator.Equilibrium{}, fmt.Errorf("%w: searcher %q", calculator.ErrInvalidInput, req.Searcher)
}

func (h *Hub) sweep(content string) ([]calculator.OperatingPoint, error) {
	var req model.SweepReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return nil, err
	}
	return h.curve(req)
}

func (h *Hub) curve(req model.SweepReq) ([]calculator.OperatingPoint, error) {
	if h.blade == nil {
		return nil, errNoBlade
	}
	switch req.Variable {
	case chart.AxisRotor, "":
		return h.blade.Sweep(req.Fixed, req.From, req.To, req.Points)
	case chart.AxisWind:
		return h.blade.WindSweep(req.Fixed, req.From, req.To, req.Points)
	}
	return nil, fmt.Errorf("%w: sweep variable %q", calculator.ErrInvalidInput, req.Variable)
}

func (h *Hub) chart(content string) (model.ChartReply, error) {
	var req model.ChartReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return model.ChartReply{}, err
	}
	curve, err := h.curve(req.SweepReq)
	if err != nil {
		return model.ChartReply{}, err
	}
	axis := req.Variable
	if axis == "" {
		axis = chart.AxisRotor
	}
	series := req.Series
	if series == "" {
		series = chart.SeriesTorque
	}
	title := h.name
	if title == "" {
		title = "叶片工况曲线"
	}

	var buf bytes.Buffer
	switch req.Format {
	case "html":
		if err = chart.RenderHTML(&buf, title, curve, axis); err != nil {
			return model.ChartReply{}, err
		}
		return model.ChartReply{Format: req.Format, Data: buf.String()}, nil
	case "", "png", "svg":
		format := req.Format
		if format == "" {
			format = "png"
		}
		if err = chart.RenderImage(&buf, format, title, curve, axis, series); err != nil {
			return model.ChartReply{}, err
		}
		return model.ChartReply{Format: format, Data: base64.StdEncoding.EncodeToString(buf.Bytes())}, nil
	}
	return model.ChartReply{}, fmt.Errorf("%w: chart format %q", calculator.ErrInvalidInput, req.Format)
}

func (h *Hub) load(content string) (model.BladeReport, error) {
	var req model.LoadReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return model.BladeReport{}, err
	}
	if h.env.Store == nil {
		return model.BladeReport{}, errNoStore
	}
	b, rec, err := h.env.Store.Load(req.ID, h.env.Config)
	if err != nil {
		return model.BladeReport{}, err
	}
	h.blade, h.bladeID, h.name, h.passes = b, rec.ID, rec.Name, rec.Passes
	return h.report(), nil
}

func (h *Hub) list(content string) ([]store.BladeRecord, error) {
	var req model.ListReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return nil, err
	}
	if h.env.Store == nil {
		return nil, errNoStore
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	return h.env.Store.Recent(req.Limit)
}

// 删除已保存的叶片，当前连接上的叶片仍可继续仿真
func (h *Hub) remove(content string) (model.DeleteReq, error) {
	var req model.DeleteReq
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return req, err
	}
	if h.env.Store == nil {
		return req, errNoStore
	}
	if err := h.env.Store.Delete(req.ID); err != nil {
		return req, err
	}
	if h.bladeID == req.ID {
		h.bladeID = ""
	}
	log.WithField("id", req.ID).Info("叶片已删除")
	return req, nil
}

func (h *Hub) report() model.BladeReport {
	b := h.blade
	r := model.BladeReport{
		ID:           h.bladeID,
		Name:         h.name,
		BladeCount:   b.BladeCount,
		Radius:       b.Radius,
		Torque:       b.Torque,
		WindSpeed:    b.WindSpeed,
		RotorSpeed:   b.RotorSpeed,
		TargetTorque: b.TargetTorque,
		Passes:       h.passes,
	}
	for _, g := range b.Geometry() {
		r.Elements = append(r.Elements, model.ElementReport{
			R1:    g.R1,
			R2:    g.R2,
			Chord: g.Chord,
			Twist: g.Twist * 180 / math.Pi,
		})
	}
	return r
}
