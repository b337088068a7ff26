package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerdict_Threshold(t *testing.T) {
	tests := []struct {
		score float64
		bad   bool
		text  string
	}{
		{0, false, "likely to repay well: 0.00%"},
		{0.2345, false, "likely to repay well: 23.45%"},
		{0.5, false, "likely to repay well: 50.00%"},
		{math.Nextafter(0.5, 1), true, "bad-credit risk: 50.00%"},
		{0.7321, true, "bad-credit risk: 73.21%"},
		{1, true, "bad-credit risk: 100.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v := NewVerdict(tt.score)
			assert.Equal(t, tt.bad, v.Bad)
			assert.Equal(t, tt.text, v.Text())
			assert.Equal(t, tt.score, v.Score)
		})
	}
}

func TestNew_ChartsAgree(t *testing.T) {
	for _, score := range []float64{0, 1e-17, 0.1, 0.3333333333333333, 0.5, 0.73, 0.999999, 1} {
		r, err := New(score)
		require.NoError(t, err)

		bar := r.Bar.Series.Data
		pie := r.Pie.Series.Data
		require.Len(t, bar, 2)
		assert.InDelta(t, 1.0, bar[0]+bar[1], 1e-15)
		assert.Equal(t, bar, pie)
		assert.Equal(t, score, bar[1])
		assert.Equal(t, 1-score, bar[0])
		assert.Equal(t, score*100, r.Gauge.Value)
		assert.Equal(t, r.Bar.Series.Colors, r.Pie.Series.Colors)
		assert.Equal(t, []string{ColorGood, ColorBad}, r.Bar.Series.Colors)
	}
}

func TestNew_Gauge(t *testing.T) {
	r, err := New(0.42)
	require.NoError(t, err)

	g := r.Gauge
	assert.Equal(t, 0.0, g.Min)
	assert.Equal(t, 100.0, g.Max)
	assert.Equal(t, ColorBad, g.BarColor)
	require.Len(t, g.Bands, 2)
	assert.Equal(t, g.Bands[0].Color, g.Bands[1].Color)
	assert.Equal(t, 50.0, g.Bands[0].To)
	assert.Equal(t, 50.0, g.Bands[1].From)
	assert.Equal(t, "42.00", g.Number())
}

func TestNew_InvalidScore(t *testing.T) {
	for _, s := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		_, err := New(s)
		assert.ErrorIs(t, err, ErrInvalidScore)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.35%", Percent(0.12345678))
	assert.Equal(t, "0.00%", Percent(0))
}

func TestCharts(t *testing.T) {
	r, err := New(0.7)
	require.NoError(t, err)

	c := r.Charts()
	require.Len(t, c.Views, 3)
	require.NotEmpty(t, c.Assets)
	assert.True(t, strings.HasSuffix(c.Assets[0], "echarts.min.js"), c.Assets[0])

	for i, id := range []string{"gauge", "bar", "pie"} {
		v := c.Views[i]
		assert.Equal(t, id, v.ID)
		assert.Contains(t, string(v.Element), `id="`+id+`"`)
		assert.Contains(t, string(v.Script), `renderer: "svg"`)
	}
	assert.Equal(t, r.Gauge.Title, c.Views[0].Title)
	assert.Equal(t, r.Bar.Title, c.Views[1].Title)
	assert.Equal(t, r.Pie.Title, c.Views[2].Title)
}

func TestCharts_Gauge(t *testing.T) {
	r, err := New(0.42)
	require.NoError(t, err)

	script := string(r.Charts().Views[0].Script)
	assert.Contains(t, script, `"type":"gauge"`)
	assert.Contains(t, script, `"value":42`)
	assert.Contains(t, script, `"max":100`)
	// both background bands keep their configured color
	assert.Contains(t, script, `"color":[[0.5,"grey"],[1,"grey"]]`)
	assert.Contains(t, script, `"color":"red"`)
}

func TestCharts_BarAndPieAgree(t *testing.T) {
	r, err := New(0.25)
	require.NoError(t, err)

	views := r.Charts().Views
	bar, pie := string(views[1].Script), string(views[2].Script)
	for _, script := range []string{bar, pie} {
		assert.Contains(t, script, `"value":0.75`)
		assert.Contains(t, script, `"value":0.25`)
		assert.Contains(t, script, `"color":"green"`)
		assert.Contains(t, script, `"color":"red"`)
	}
	assert.Contains(t, bar, `"name":"Probability"`)
	assert.Contains(t, pie, `"radius":["30%","75%"]`)
	assert.Contains(t, pie, `"clockwise":false`)
}

func TestPie_Data(t *testing.T) {
	r, err := New(0.7)
	require.NoError(t, err)

	data := r.Pie.data()
	require.Len(t, data, 2)
	// the larger value comes first and keeps its own color
	assert.Equal(t, "Bad debt", data[0].Name)
	assert.Equal(t, ColorBad, data[0].ItemStyle.Color)
	assert.Equal(t, 0.7, data[0].Value)
	assert.Equal(t, "Repays well", data[1].Name)
	assert.Equal(t, ColorGood, data[1].ItemStyle.Color)

	r, err = New(0.5)
	require.NoError(t, err)
	data = r.Pie.data()
	assert.Equal(t, "Repays well", data[0].Name)
}

func TestGauge_BandStops(t *testing.T) {
	r, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{0.5, ColorBand}, {1.0, ColorBand}}, r.Gauge.bandStops())
}
