package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotor/calculator"
	"rotor/model"
	"rotor/store"
)

func testPolar() *model.PolarCfg {
	return &model.PolarCfg{
		Name:     "benign",
		Reynolds: 1e5,
		Ncrit:    9,
		Alpha:    []float64{-180, -90, -30, -5, 0, 8, 20, 90, 180},
		Cl:       []float64{0.2, 0.2, 0.3, 0.35, 0.5, 1.2, 1.3, 0.4, 0.2},
		Cd:       []float64{1.0, 1.2, 0.3, 0.012, 0.01, 0.015, 0.1, 1.2, 1.0},
	}
}

func request(t *testing.T, typ string, v interface{}) model.Msg {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return model.Msg{Type: typ, Content: string(data)}
}

func decode(t *testing.T, msg model.Msg, v interface{}) {
	require.NoError(t, json.Unmarshal([]byte(msg.Content), v))
}

func designReq() model.DesignReq {
	return model.DesignReq{
		Polar:        testPolar(),
		BladeCount:   3,
		WindSpeed:    10,
		TargetTorque: 100,
		RotorSpeed:   14,
		Name:         "demo",
	}
}

func TestHub_DesignSimulateSolve(t *testing.T) {
	h := NewHub(&Env{Config: calculator.DefaultConfig()}, nil)

	reply := h.handle(request(t, model.TypeDesign, designReq()))
	require.Equal(t, model.TypeDesigned, reply.Type, reply.Content)
	var report model.BladeReport
	decode(t, reply, &report)
	assert.InDelta(t, 2.2431, report.Radius, 0.01)
	assert.Len(t, report.Elements, 30)
	assert.Empty(t, report.ID)
	assert.Greater(t, report.Elements[0].Twist, report.Elements[29].Twist)

	reply = h.handle(request(t, model.TypeSimulate, model.SimulateReq{WindSpeed: 10, RotorSpeed: 14}))
	require.Equal(t, model.TypeSimulated, reply.Type, reply.Content)
	var op calculator.OperatingPoint
	decode(t, reply, &op)
	assert.InDelta(t, 99.93, op.Torque, 1)

	reply = h.handle(request(t, model.TypeSolve, model.SolveReq{WindSpeed: 10, StartSpeed: 14, Load: model.LoadCfg{Torque: 240}}))
	require.Equal(t, model.TypeSolved, reply.Type, reply.Content)
	var eq calculator.Equilibrium
	decode(t, reply, &eq)
	assert.InDelta(t, 17.66, eq.RotorSpeed, 0.05)

	reply = h.handle(request(t, model.TypeSolve, model.SolveReq{WindSpeed: 10, StartSpeed: 14, Load: model.LoadCfg{Torque: 240}, Searcher: "bisection", High: 30}))
	require.Equal(t, model.TypeSolved, reply.Type, reply.Content)
	decode(t, reply, &eq)
	assert.InDelta(t, 17.656, eq.RotorSpeed, 0.02)

	reply = h.handle(request(t, model.TypeSolve, model.SolveReq{WindSpeed: 10, StartSpeed: 14, Load: model.LoadCfg{Torque: 240}, Searcher: "newton"}))
	assert.Equal(t, model.TypeError, reply.Type)
}

func TestHub_SweepChart(t *testing.T) {
	h := NewHub(&Env{Config: calculator.DefaultConfig()}, nil)
	require.Equal(t, model.TypeDesigned, h.handle(request(t, model.TypeDesign, designReq())).Type)

	sweep := model.SweepReq{Variable: "rotor", Fixed: 10, From: 14, To: 20, Points: 4}
	reply := h.handle(request(t, model.TypeSweep, sweep))
	require.Equal(t, model.TypeSwept, reply.Type, reply.Content)
	var curve []calculator.OperatingPoint
	decode(t, reply, &curve)
	assert.Len(t, curve, 4)

	reply = h.handle(request(t, model.TypeChart, model.ChartReq{SweepReq: sweep, Format: "png", Series: "power"}))
	require.Equal(t, model.TypeCharted, reply.Type, reply.Content)
	var img model.ChartReply
	decode(t, reply, &img)
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\x89PNG"))

	reply = h.handle(request(t, model.TypeChart, model.ChartReq{SweepReq: sweep, Format: "html"}))
	require.Equal(t, model.TypeCharted, reply.Type, reply.Content)
	decode(t, reply, &img)
	assert.Contains(t, img.Data, "echarts")
}

func TestHub_Errors(t *testing.T) {
	h := NewHub(&Env{Config: calculator.DefaultConfig()}, nil)

	reply := h.handle(model.Msg{Type: "start"})
	assert.Equal(t, model.TypeError, reply.Type)

	reply = h.handle(request(t, model.TypeSimulate, model.SimulateReq{WindSpeed: 10, RotorSpeed: 14}))
	assert.Equal(t, model.TypeError, reply.Type)
	assert.Contains(t, reply.Content, "no blade")

	reply = h.handle(model.Msg{Type: model.TypeDesign, Content: "{"})
	assert.Equal(t, model.TypeError, reply.Type)

	req := designReq()
	req.Polar = nil
	reply = h.handle(request(t, model.TypeDesign, req))
	assert.Equal(t, model.TypeError, reply.Type)

	reply = h.handle(request(t, model.TypeLoad, model.LoadReq{ID: "x"}))
	assert.Equal(t, model.TypeError, reply.Type)
}

func TestHub_StoreRoundTrip(t *testing.T) {
	s, err := store.NewService(filepath.Join(t.TempDir(), "rotor.db"))
	require.NoError(t, err)
	defer s.Close()
	env := &Env{Config: calculator.DefaultConfig(), Store: s}

	h := NewHub(env, nil)
	reply := h.handle(request(t, model.TypeDesign, designReq()))
	require.Equal(t, model.TypeDesigned, reply.Type, reply.Content)
	var designed model.BladeReport
	decode(t, reply, &designed)
	require.NotEmpty(t, designed.ID)

	other := NewHub(env, nil)
	reply = other.handle(request(t, model.TypeLoad, model.LoadReq{ID: designed.ID}))
	require.Equal(t, model.TypeLoaded, reply.Type, reply.Content)
	var loaded model.BladeReport
	decode(t, reply, &loaded)
	assert.Equal(t, designed, loaded)
}

func TestHub_ListDelete(t *testing.T) {
	s, err := store.NewService(filepath.Join(t.TempDir(), "rotor.db"))
	require.NoError(t, err)
	defer s.Close()
	h := NewHub(&Env{Config: calculator.DefaultConfig(), Store: s}, nil)

	var ids []string
	for _, name := range []string{"first", "second"} {
		req := designReq()
		req.Name = name
		reply := h.handle(request(t, model.TypeDesign, req))
		require.Equal(t, model.TypeDesigned, reply.Type, reply.Content)
		var report model.BladeReport
		decode(t, reply, &report)
		ids = append(ids, report.ID)
	}

	reply := h.handle(request(t, model.TypeList, model.ListReq{}))
	require.Equal(t, model.TypeListed, reply.Type, reply.Content)
	var records []store.BladeRecord
	decode(t, reply, &records)
	require.Len(t, records, 2)
	assert.ElementsMatch(t, ids, []string{records[0].ID, records[1].ID})
	assert.Empty(t, records[0].Elements)
	assert.Greater(t, records[0].Passes, 0)

	reply = h.handle(request(t, model.TypeList, model.ListReq{Limit: 1}))
	require.Equal(t, model.TypeListed, reply.Type, reply.Content)
	decode(t, reply, &records)
	assert.Len(t, records, 1)

	reply = h.handle(request(t, model.TypeDelete, model.DeleteReq{ID: ids[1]}))
	require.Equal(t, model.TypeDeleted, reply.Type, reply.Content)
	var deleted model.DeleteReq
	decode(t, reply, &deleted)
	assert.Equal(t, ids[1], deleted.ID)

	reply = h.handle(request(t, model.TypeLoad, model.LoadReq{ID: ids[1]}))
	assert.Equal(t, model.TypeError, reply.Type)
	reply = h.handle(request(t, model.TypeDelete, model.DeleteReq{ID: ids[1]}))
	assert.Equal(t, model.TypeError, reply.Type)
	assert.Contains(t, reply.Content, "not found")

	// 删除后当前叶片仍可仿真
	reply = h.handle(request(t, model.TypeSimulate, model.SimulateReq{WindSpeed: 10, RotorSpeed: 14}))
	assert.Equal(t, model.TypeSimulated, reply.Type, reply.Content)

	reply = h.handle(request(t, model.TypeList, model.ListReq{}))
	decode(t, reply, &records)
	require.Len(t, records, 1)
	assert.Equal(t, ids[0], records[0].ID)
}

func TestHub_ListWithoutStore(t *testing.T) {
	h := NewHub(&Env{Config: calculator.DefaultConfig()}, nil)
	for _, typ := range []string{model.TypeList, model.TypeDelete} {
		reply := h.handle(model.Msg{Type: typ, Content: "{}"})
		assert.Equal(t, model.TypeError, reply.Type)
		assert.Contains(t, reply.Content, "store is not configured")
	}
}

func TestServer_Websocket(t *testing.T) {
	srv := NewServer(":0", websocket.Upgrader{}, &Env{Config: calculator.DefaultConfig()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(request(t, model.TypeDesign, designReq())))
	require.NoError(t, conn.WriteJSON(request(t, model.TypeSimulate, model.SimulateReq{WindSpeed: 10, RotorSpeed: 14})))

	var reply model.Msg
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, model.TypeDesigned, reply.Type)
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, model.TypeSimulated, reply.Type)
}
