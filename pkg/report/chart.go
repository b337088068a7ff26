package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
)

const (
	chartWidth  = "100%"
	chartHeight = "260px"
	// svg keeps the charts crisp when the page is zoomed
	chartRenderer = "svg"

	gaugeLineWidth = 18
	pieOuterRadius = 75.0
)

// Chart is one rendered view: a container element and the script that
// draws into it. Both are produced by the chart library and are safe to
// embed in a page.
type Chart struct {
	ID      string
	Title   string
	Element template.HTML
	Script  template.HTML
}

// Charts is the rendered gauge, bar and donut for one report, plus the
// scripts the page must load before them.
type Charts struct {
	Assets []string
	Views  []Chart
}

// Charts renders the three views of r.
func (r *Report) Charts() *Charts {
	g, b, p := r.Gauge.chart(), r.Bar.chart(), r.Pie.chart()

	out := &Charts{
		Views: []Chart{
			snippet("gauge", r.Gauge.Title, g),
			snippet("bar", r.Bar.Title, b),
			snippet("pie", r.Pie.Title, p),
		},
	}
	// assets are host-qualified once a chart has been rendered
	out.Assets = append(out.Assets, g.JSAssets.Values...)
	return out
}

func snippet(id, title string, c render.Renderer) Chart {
	s := c.RenderSnippet()
	return Chart{
		ID:      id,
		Title:   title,
		Element: template.HTML(s.Element), //nolint:gosec // produced by the chart library templates
		Script:  template.HTML(s.Script),  //nolint:gosec // produced by the chart library templates
	}
}

func initOpts(id string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		ChartID:  id,
		Width:    chartWidth,
		Height:   chartHeight,
		Renderer: chartRenderer,
	})
}

// Number is the value shown in the middle of the gauge.
func (g Gauge) Number() string {
	return fmt.Sprintf("%.2f", g.Value)
}

// bandStops converts the bands into the [stop, color] pairs of the gauge
// axis line, with stops as fractions of the axis range.
func (g Gauge) bandStops() [][]any {
	out := make([][]any, 0, len(g.Bands))
	span := g.Max - g.Min
	for _, b := range g.Bands {
		stop := 1.0
		if span > 0 {
			stop = (b.To - g.Min) / span
		}
		out = append(out, []any{stop, b.Color})
	}
	return out
}

func (g Gauge) chart() *charts.Gauge {
	c := charts.NewGauge()
	c.SetGlobalOptions(
		initOpts("gauge"),
		charts.WithAriaOpts(&opts.Aria{Enabled: opts.Bool(true)}),
	)
	c.AddSeries(g.Title, []opts.GaugeData{{Name: g.Title, Value: round2(g.Value)}},
		charts.WithSeriesOpts(func(s *charts.SingleSeries) {
			s.Min = int(g.Min)
			s.Max = int(g.Max)
			s.StartAngle = 180
			s.EndAngle = 0
			s.Progress = &opts.Progress{
				Show:      opts.Bool(true),
				Width:     gaugeLineWidth,
				ItemStyle: &opts.ItemStyle{Color: g.BarColor},
			}
			s.Pointer = &opts.Pointer{Show: opts.Bool(false)}
			s.Title = &opts.Title{Show: opts.Bool(false)}
			s.Detail = &opts.Detail{Formatter: "{value}", FontSize: 28, OffsetCenter: []string{"0", "-10%"}}
		}),
	)
	c.Accept(seriesExtras{extra: map[string]any{
		"axisLine": map[string]any{
			"lineStyle": map[string]any{"width": gaugeLineWidth, "color": g.bandStops()},
		},
	}})
	return c
}

func (b Bar) chart() *charts.Bar {
	c := charts.NewBar()
	c.SetGlobalOptions(
		initOpts("bar"),
		charts.WithAriaOpts(&opts.Aria{Enabled: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         b.YLabel,
			NameLocation: "middle",
			NameGap:      40,
			Min:          0,
			Max:          1,
			AxisLabel:    &opts.AxisLabel{Show: opts.Bool(true)},
		}),
	)

	data := make([]opts.BarData, len(b.Series.Data))
	for i, v := range b.Series.Data {
		data[i] = opts.BarData{
			Name:      b.Series.Labels[i],
			Value:     v,
			ItemStyle: &opts.ItemStyle{Color: colorAt(b.Series, i)},
		}
	}
	c.SetXAxis(b.Series.Labels).AddSeries(b.YLabel, data)
	return c
}

func (p Pie) chart() *charts.Pie {
	c := charts.NewPie()
	c.SetGlobalOptions(
		initOpts("pie"),
		charts.WithAriaOpts(&opts.Aria{Enabled: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)

	c.AddSeries(p.Title, p.data(),
		charts.WithPieChartOpts(opts.PieChart{
			Radius: []string{fmt.Sprintf("%g%%", math.Round(p.Hole*pieOuterRadius)), fmt.Sprintf("%g%%", pieOuterRadius)},
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{d}%"}),
	)
	// largest slice first from twelve o'clock, counterclockwise
	c.Accept(seriesExtras{extra: map[string]any{"clockwise": false, "startAngle": 90}})
	return c
}

// data orders the slices by value, largest first. Colors stay attached to
// their labels.
func (p Pie) data() []opts.PieData {
	order := make([]int, len(p.Series.Data))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Series.Data[order[a]] > p.Series.Data[order[b]]
	})

	out := make([]opts.PieData, 0, len(order))
	for _, i := range order {
		out = append(out, opts.PieData{
			Name:      p.Series.Labels[i],
			Value:     p.Series.Data[i],
			ItemStyle: &opts.ItemStyle{Color: colorAt(p.Series, i)},
		})
	}
	return out
}

func colorAt(s Series, i int) string {
	if i < len(s.Colors) {
		return s.Colors[i]
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// seriesExtras sets series options the chart library has no typed field
// for, such as multi-stop gauge bands.
type seriesExtras struct {
	charts.BaseConfigurationVisitor
	extra map[string]any
}

func (v seriesExtras) VisitSeriesOpt(series charts.MultiSeries) interface{} {
	b, err := json.Marshal(series)
	if err != nil {
		return series
	}
	var out []map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return series
	}
	for _, s := range out {
		for k, val := range v.extra {
			s[k] = val
		}
	}
	return out
}
