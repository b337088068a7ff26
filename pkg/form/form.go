// Package form describes the bounded input controls of the application form
// and collects submitted values into a CreditApplication.
package form

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/mchmarny/creditrisk/pkg/application"
	"github.com/mchmarny/creditrisk/pkg/encoding"
	"github.com/pkg/errors"
)

// Form keys.
const (
	KeyAge             = "age"
	KeyJob             = "job"
	KeyCreditAmount    = "credit_amount"
	KeyDuration        = "duration"
	KeySex             = "sex"
	KeyHousing         = "housing"
	KeySavingAccounts  = "saving_accounts"
	KeyCheckingAccount = "checking_account"
	KeyPurpose         = "purpose"
)

// Kind is the control used to render a field.
type Kind string

const (
	KindSlider Kind = "slider"
	KindNumber Kind = "number"
	KindSelect Kind = "select"
	KindRadio  Kind = "radio"
)

// ErrInvalidInput is returned for a numeric value that cannot be parsed.
var ErrInvalidInput = errors.New("invalid input")

// Option is one choice of a categorical control.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field describes one bounded input control.
type Field struct {
	Key     string   `json:"key" yaml:"key"`
	Column  string   `json:"column" yaml:"column"`
	Label   string   `json:"label" yaml:"label"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Min     float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max     float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step    float64  `json:"step,omitempty" yaml:"step,omitempty"`
	Default string   `json:"default" yaml:"default"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
}

var optionLabels = map[string]string{
	"unskilled-nonresident": "Unskilled, non-resident",
	"unskilled-resident":    "Unskilled, resident",
	"skilled":               "Skilled",
	"highly-skilled":        "Highly skilled",
	"male":                  "Male",
	"female":                "Female",
	"own":                   "Own",
	"rent":                  "Rent",
	"free":                  "Free",
	"none":                  "None",
	"little":                "Little",
	"moderate":              "Moderate",
	"quite-rich":            "Quite rich",
	"rich":                  "Rich",
	"car":                   "Car",
	"furniture/equipment":   "Furniture / equipment",
	"radio/TV":              "Radio / TV",
	"domestic appliances":   "Domestic appliances",
	"repairs":               "Repairs",
	"education":             "Education",
	"business":              "Business",
	"other":                 "Travel / other",
}

func options(t *encoding.Table) []Option {
	labels := t.Labels()
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = Option{Value: l, Label: optionLabels[l]}
	}
	return out
}

// Fields returns the nine controls in display order.
func Fields() []Field {
	d := application.Default()
	return []Field{
		{Key: KeyAge, Column: application.ColumnAge, Label: "Age", Kind: KindSlider,
			Min: application.AgeMin, Max: application.AgeMax, Step: 1, Default: formatInt(d.Age)},
		{Key: KeyJob, Column: application.ColumnJob, Label: "Job", Kind: KindSelect,
			Options: options(encoding.Job), Default: d.Job},
		{Key: KeyCreditAmount, Column: application.ColumnCreditAmount, Label: "Credit amount (DM)", Kind: KindNumber,
			Min: application.CreditAmountMin, Max: application.CreditAmountMax, Step: 100, Default: formatFloat(d.CreditAmount)},
		{Key: KeyDuration, Column: application.ColumnDuration, Label: "Duration (months)", Kind: KindSlider,
			Min: application.DurationMin, Max: application.DurationMax, Step: 1, Default: formatInt(d.Duration)},
		{Key: KeySex, Column: application.ColumnSex, Label: "Sex", Kind: KindRadio,
			Options: options(encoding.Sex), Default: d.Sex},
		{Key: KeyHousing, Column: application.ColumnHousing, Label: "Housing", Kind: KindSelect,
			Options: options(encoding.Housing), Default: d.Housing},
		{Key: KeySavingAccounts, Column: application.ColumnSavingAccounts, Label: "Saving accounts", Kind: KindSelect,
			Options: options(encoding.SavingAccounts), Default: d.SavingAccounts},
		{Key: KeyCheckingAccount, Column: application.ColumnCheckingAccount, Label: "Checking account balance (DM)", Kind: KindNumber,
			Min: application.CheckingAccountMin, Max: application.CheckingAccountMax, Step: 100, Default: formatFloat(d.CheckingAccount)},
		{Key: KeyPurpose, Column: application.ColumnPurpose, Label: "Purpose", Kind: KindSelect,
			Options: options(encoding.Purpose), Default: d.Purpose},
	}
}

// Value returns the current value of the field in a.
func (f Field) Value(a application.CreditApplication) string {
	switch f.Key {
	case KeyAge:
		return formatInt(a.Age)
	case KeyJob:
		return a.Job
	case KeyCreditAmount:
		return formatFloat(a.CreditAmount)
	case KeyDuration:
		return formatInt(a.Duration)
	case KeySex:
		return a.Sex
	case KeyHousing:
		return a.Housing
	case KeySavingAccounts:
		return a.SavingAccounts
	case KeyCheckingAccount:
		return formatFloat(a.CheckingAccount)
	case KeyPurpose:
		return a.Purpose
	}
	return ""
}

// Numeric reports whether the field takes a number.
func (f Field) Numeric() bool {
	return f.Kind == KindSlider || f.Kind == KindNumber
}

// StepAttr is the HTML step attribute of a numeric field. Browsers anchor
// the step at min, so a default off that grid needs step "any".
func (f Field) StepAttr() string {
	if !f.Numeric() || f.Step <= 0 {
		return ""
	}
	d, err := strconv.ParseFloat(f.Default, 64)
	if err != nil {
		return "any"
	}
	if n := (d - f.Min) / f.Step; n != math.Trunc(n) {
		return "any"
	}
	return formatFloat(f.Step)
}

// Collect builds an application from submitted form values. Missing keys keep
// their default, numeric values are clamped into their domain and categorical
// values must belong to their closed set.
func Collect(v url.Values) (application.CreditApplication, error) {
	a := application.Default()

	nums := []struct {
		key string
		set func(float64)
	}{
		{KeyAge, func(f float64) { a.Age = clampInt(f, application.AgeMin, application.AgeMax) }},
		{KeyCreditAmount, func(f float64) { a.CreditAmount = f }},
		{KeyDuration, func(f float64) { a.Duration = clampInt(f, application.DurationMin, application.DurationMax) }},
		{KeyCheckingAccount, func(f float64) { a.CheckingAccount = f }},
	}
	for _, n := range nums {
		raw := strings.TrimSpace(v.Get(n.key))
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return a, errors.Wrapf(ErrInvalidInput, "%s: %q is not a number", n.key, raw)
		}
		n.set(f)
	}

	cats := []struct {
		key   string
		table *encoding.Table
		dst   *string
	}{
		{KeyJob, encoding.Job, &a.Job},
		{KeySex, encoding.Sex, &a.Sex},
		{KeyHousing, encoding.Housing, &a.Housing},
		{KeySavingAccounts, encoding.SavingAccounts, &a.SavingAccounts},
		{KeyPurpose, encoding.Purpose, &a.Purpose},
	}
	for _, c := range cats {
		if _, ok := v[c.key]; !ok {
			continue
		}
		label := v.Get(c.key)
		if _, err := c.table.Encode(label); err != nil {
			return a, err
		}
		*c.dst = label
	}

	return a.Clamp(), nil
}

// Encode returns the form values for a, the inverse of Collect.
func Encode(a application.CreditApplication) url.Values {
	v := url.Values{}
	for _, f := range Fields() {
		v.Set(f.Key, f.Value(a))
	}
	return v
}

// clampInt clamps in float space so huge inputs cannot overflow int.
func clampInt(f float64, lo, hi int) int {
	return int(math.Round(min(max(f, float64(lo)), float64(hi))))
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
