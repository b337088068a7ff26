// Package report turns a risk score into a verdict and the gauge, bar and
// pie views rendered next to it. All three views are derived from the same
// two numbers: score and 1-score.
package report

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

const (
	// Threshold above which an application is flagged. A score of exactly
	// 0.5 is a good credit.
	Threshold = 0.5

	VerdictBad  = "bad-credit risk"
	VerdictGood = "likely to repay well"

	ColorGood  = "green"
	ColorBad   = "red"
	ColorBand  = "grey"
	gaugeScale = 100.0
	donutHole  = 0.4
)

// ErrInvalidScore is returned for a score outside [0, 1].
var ErrInvalidScore = errors.New("invalid score")

// Verdict is the threshold-gated outcome of a score.
type Verdict struct {
	Bad     bool    `json:"bad" yaml:"bad"`
	Label   string  `json:"label" yaml:"label"`
	Score   float64 `json:"score" yaml:"score"`
	Percent string  `json:"percent" yaml:"percent"`
}

// Text is the verdict annotated with the score percentage.
func (v Verdict) Text() string {
	return fmt.Sprintf("%s: %s", v.Label, v.Percent)
}

// Band is a background range of the gauge axis.
type Band struct {
	From  float64 `json:"from" yaml:"from"`
	To    float64 `json:"to" yaml:"to"`
	Color string  `json:"color" yaml:"color"`
}

// Gauge shows the score on a 0-100 scale.
type Gauge struct {
	Title    string  `json:"title" yaml:"title"`
	Value    float64 `json:"value" yaml:"value"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	BarColor string  `json:"bar_color" yaml:"bar_color"`
	Bands    []Band  `json:"bands" yaml:"bands"`
}

// Series is a labeled list of values with one color per value.
type Series struct {
	Labels []string  `json:"labels" yaml:"labels"`
	Data   []float64 `json:"data" yaml:"data"`
	Colors []string  `json:"colors" yaml:"colors"`
}

// Bar compares the good and bad probabilities.
type Bar struct {
	Title  string `json:"title" yaml:"title"`
	YLabel string `json:"y_label" yaml:"y_label"`
	Series Series `json:"series" yaml:"series"`
}

// Pie shows the same two probabilities as a donut.
type Pie struct {
	Title  string  `json:"title" yaml:"title"`
	Hole   float64 `json:"hole" yaml:"hole"`
	Series Series  `json:"series" yaml:"series"`
}

// Report is everything rendered for one prediction.
type Report struct {
	Score   float64 `json:"score" yaml:"score"`
	Verdict Verdict `json:"verdict" yaml:"verdict"`
	Gauge   Gauge   `json:"gauge" yaml:"gauge"`
	Bar     Bar     `json:"bar" yaml:"bar"`
	Pie     Pie     `json:"pie" yaml:"pie"`
}

// New builds the full report for score.
func New(score float64) (*Report, error) {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return nil, errors.Wrapf(ErrInvalidScore, "%v is outside [0, 1]", score)
	}

	good := 1 - score
	return &Report{
		Score:   score,
		Verdict: NewVerdict(score),
		Gauge: Gauge{
			Title:    "Bad credit risk (%)",
			Value:    score * gaugeScale,
			Min:      0,
			Max:      gaugeScale,
			BarColor: ColorBad,
			// both bands share one color, the gauge does not encode risk levels
			Bands: []Band{
				{From: 0, To: 50, Color: ColorBand},
				{From: 50, To: 100, Color: ColorBand},
			},
		},
		Bar: Bar{
			Title:  "Credit risk comparison",
			YLabel: "Probability",
			Series: Series{
				Labels: []string{"Good", "Risk"},
				Data:   []float64{good, score},
				Colors: []string{ColorGood, ColorBad},
			},
		},
		Pie: Pie{
			Title: "Repayment outlook",
			Hole:  donutHole,
			Series: Series{
				Labels: []string{"Repays well", "Bad debt"},
				Data:   []float64{good, score},
				Colors: []string{ColorGood, ColorBad},
			},
		},
	}, nil
}

// NewVerdict applies the threshold to score.
func NewVerdict(score float64) Verdict {
	v := Verdict{
		Bad:     score > Threshold,
		Label:   VerdictGood,
		Score:   score,
		Percent: Percent(score),
	}
	if v.Bad {
		v.Label = VerdictBad
	}
	return v
}

// Percent formats a probability as a percentage with two decimals.
func Percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
