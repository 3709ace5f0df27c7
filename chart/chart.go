package chart

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"rotor/calculator"
)

var ErrUnknownSeries = errors.New("chart: unknown axis or series")

// 横轴
const (
	AxisRotor = "rotor"
	AxisWind  = "wind"
)

// 纵轴
const (
	SeriesTorque = "torque"
	SeriesPower  = "power"
	SeriesCp     = "cp"
)

var (
	axisLabel = map[string]string{
		AxisRotor: "转速 (rad/s)",
		AxisWind:  "风速 (m/s)",
	}
	seriesLabel = map[string]string{
		SeriesTorque: "单叶片扭矩 (N·m)",
		SeriesPower:  "功率 (W)",
		SeriesCp:     "功率系数",
	}
)

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Points 从工况曲线中取出 (x, y)
func Points(curve []calculator.OperatingPoint, axis, series string) (plotter.XYs, error) {
	if _, ok := axisLabel[axis]; !ok {
		return nil, fmt.Errorf("%w: axis %q", ErrUnknownSeries, axis)
	}
	if _, ok := seriesLabel[series]; !ok {
		return nil, fmt.Errorf("%w: series %q", ErrUnknownSeries, series)
	}
	pts := make(plotter.XYs, len(curve))
	for i, p := range curve {
		pts[i].X = p.RotorSpeed
		if axis == AxisWind {
			pts[i].X = p.WindSpeed
		}
		switch series {
		case SeriesTorque:
			pts[i].Y = p.Torque
		case SeriesPower:
			pts[i].Y = p.Power
		case SeriesCp:
			pts[i].Y = p.PowerCoefficient
		}
	}
	return pts, nil
}

// RenderImage 以 png 或 svg 格式输出单条曲线
func RenderImage(w io.Writer, format, title string, curve []calculator.OperatingPoint, axis, series string) error {
	if format != "png" && format != "svg" {
		return fmt.Errorf("%w: image format %q", ErrUnknownSeries, format)
	}
	pts, err := Points(curve, axis, series)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axisLabel[axis]
	p.Y.Label.Text = seriesLabel[series]
	p.Add(plotter.NewGrid())
	if err = plotutil.AddLinePoints(p, series, pts); err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// RenderHTML 扭矩、功率、功率系数三张曲线图组成一个页面
func RenderHTML(w io.Writer, title string, curve []calculator.OperatingPoint, axis string) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, series := range []string{SeriesTorque, SeriesPower, SeriesCp} {
		line, err := lineChart(title, curve, axis, series)
		if err != nil {
			return err
		}
		page.AddCharts(line)
	}
	return page.Render(w)
}

func lineChart(title string, curve []calculator.OperatingPoint, axis, series string) (*charts.Line, error) {
	pts, err := Points(curve, axis, series)
	if err != nil {
		return nil, err
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    seriesLabel[series],
			Subtitle: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: axisLabel[axis],
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
	)
	xs := make([]string, len(pts))
	items := make([]opts.LineData, len(pts))
	for i, pt := range pts {
		xs[i] = strconv.FormatFloat(pt.X, 'f', 2, 64)
		items[i] = opts.LineData{Value: pt.Y}
	}
	line.SetXAxis(xs).AddSeries(series, items,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line, nil
}
