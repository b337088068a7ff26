package model

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

const (
	transformerStandardScaler = "standard_scaler"
	transformerMinMaxScaler   = "min_max_scaler"
	transformerOneHot         = "one_hot"
	transformerPassthrough    = "passthrough"

	remainderDrop        = "drop"
	remainderPassthrough = "passthrough"

	handleUnknownError  = "error"
	handleUnknownIgnore = "ignore"
)

// ColumnTransformer applies a list of fitted per-column transformers to a
// record and concatenates their outputs in declared order, followed by the
// remainder columns when the remainder is passed through.
type ColumnTransformer struct {
	Kind         string        `json:"kind"`
	Columns      []string      `json:"columns"`
	Transformers []Transformer `json:"transformers"`
	Remainder    string        `json:"remainder,omitempty"`

	index     map[string]int
	remainder []int
	width     int
}

// Transformer is one fitted step of a ColumnTransformer.
type Transformer struct {
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	Columns       []string    `json:"columns"`
	Mean          []float64   `json:"mean,omitempty"`
	Scale         []float64   `json:"scale,omitempty"`
	Min           []float64   `json:"min,omitempty"`
	Categories    [][]float64 `json:"categories,omitempty"`
	HandleUnknown string      `json:"handle_unknown,omitempty"`
}

// init checks the fitted parameters for internal consistency and builds the
// column lookups used by Transform.
func (ct *ColumnTransformer) init() error {
	if len(ct.Columns) == 0 {
		return errors.New("preprocessor has no fitted columns")
	}
	if ct.Remainder == "" {
		ct.Remainder = remainderDrop
	}

	ct.index = make(map[string]int, len(ct.Columns))
	for i, c := range ct.Columns {
		if _, dup := ct.index[c]; dup {
			return errors.Errorf("duplicate fitted column: %s", c)
		}
		ct.index[c] = i
	}

	used := make(map[string]bool)
	ct.width = 0
	for i := range ct.Transformers {
		t := &ct.Transformers[i]
		for _, c := range t.Columns {
			if _, ok := ct.index[c]; !ok {
				return errors.Errorf("transformer %s references unknown column: %s", t.Name, c)
			}
			used[c] = true
		}
		w, err := t.outputWidth()
		if err != nil {
			return errors.Wrapf(err, "transformer %s", t.Name)
		}
		ct.width += w
	}

	ct.remainder = nil
	if ct.Remainder == remainderPassthrough {
		for i, c := range ct.Columns {
			if !used[c] {
				ct.remainder = append(ct.remainder, i)
			}
		}
		ct.width += len(ct.remainder)
	}

	if ct.width == 0 {
		return errors.New("preprocessor produces no features")
	}
	return nil
}

func (t *Transformer) outputWidth() (int, error) {
	n := len(t.Columns)
	if n == 0 {
		return 0, errors.New("no columns")
	}
	switch t.Type {
	case transformerStandardScaler:
		if len(t.Mean) != n || len(t.Scale) != n {
			return 0, errors.Errorf("mean/scale length must be %d", n)
		}
		return n, nil
	case transformerMinMaxScaler:
		if len(t.Min) != n || len(t.Scale) != n {
			return 0, errors.Errorf("min/scale length must be %d", n)
		}
		return n, nil
	case transformerOneHot:
		if len(t.Categories) != n {
			return 0, errors.Errorf("categories length must be %d", n)
		}
		if t.HandleUnknown == "" {
			t.HandleUnknown = handleUnknownError
		}
		w := 0
		for _, cats := range t.Categories {
			w += len(cats)
		}
		return w, nil
	case transformerPassthrough:
		return n, nil
	default:
		return 0, errors.Errorf("unsupported transformer type: %s", t.Type)
	}
}

// OutputWidth returns the length of the feature vector produced by Transform.
func (ct *ColumnTransformer) OutputWidth() int {
	return ct.width
}

// Transform validates that r carries exactly the fitted columns in fitted
// order and returns the transformed feature vector.
func (ct *ColumnTransformer) Transform(r Record) ([]float64, error) {
	if !slices.Equal(r.Columns, ct.Columns) {
		return nil, errors.Wrapf(errShapeMismatch,
			"record columns %q do not match fitted columns %q", r.Columns, ct.Columns)
	}
	if len(r.Values) != len(r.Columns) {
		return nil, errors.Wrapf(errShapeMismatch,
			"record has %d columns and %d values", len(r.Columns), len(r.Values))
	}

	out := make([]float64, 0, ct.width)
	for i := range ct.Transformers {
		t := &ct.Transformers[i]
		var err error
		if out, err = t.apply(out, ct.index, r.Values); err != nil {
			return nil, errors.Wrapf(err, "transformer %s", t.Name)
		}
	}
	for _, i := range ct.remainder {
		out = append(out, r.Values[i])
	}
	return out, nil
}

func (t *Transformer) apply(out []float64, index map[string]int, values []float64) ([]float64, error) {
	for j, c := range t.Columns {
		x := values[index[c]]
		switch t.Type {
		case transformerStandardScaler:
			out = append(out, (x-t.Mean[j])/nonZero(t.Scale[j]))
		case transformerMinMaxScaler:
			out = append(out, x*t.Scale[j]+t.Min[j])
		case transformerOneHot:
			cats := t.Categories[j]
			hit := slices.Index(cats, x)
			if hit < 0 && t.HandleUnknown != handleUnknownIgnore {
				return nil, errors.Errorf("found unknown category %v in column %s", x, c)
			}
			for k := range cats {
				if k == hit {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		case transformerPassthrough:
			out = append(out, x)
		}
	}
	return out, nil
}

// nonZero mirrors how fitted scalers treat zero-variance columns.
func nonZero(v float64) float64 {
	if v == 0 || math.IsNaN(v) {
		return 1
	}
	return v
}

// Summarize describes the fitted transformer.
func (ct *ColumnTransformer) Summarize(path string) PreprocessorSummary {
	names := make([]string, len(ct.Transformers))
	for i, t := range ct.Transformers {
		names[i] = t.Name + ":" + t.Type
	}
	return PreprocessorSummary{
		Path:         path,
		Columns:      slices.Clone(ct.Columns),
		Transformers: names,
		Remainder:    ct.Remainder,
		OutputWidth:  ct.width,
	}
}
