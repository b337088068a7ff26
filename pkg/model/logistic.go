package model

import (
	"math"

	"github.com/pkg/errors"
)

const kindLogisticRegression = "logistic_regression"

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Kind        string      `json:"kind"`
	ClassLabels []any       `json:"classes"`
	Coef        [][]float64 `json:"coef"`
	Intercept   []float64   `json:"intercept"`
}

func (m *LogisticRegression) init() error {
	if len(m.ClassLabels) != binaryClassCount {
		return errors.Errorf("expected %d classes, got %d", binaryClassCount, len(m.ClassLabels))
	}
	if len(m.Coef) != 1 || len(m.Coef[0]) == 0 {
		return errors.New("binary model requires exactly one non-empty coefficient row")
	}
	if len(m.Intercept) != 1 {
		return errors.Errorf("expected 1 intercept, got %d", len(m.Intercept))
	}
	return nil
}

// Classes returns the class labels in model order.
func (m *LogisticRegression) Classes() []string {
	return classNames(m.ClassLabels)
}

// NumFeatures returns the expected feature vector length.
func (m *LogisticRegression) NumFeatures() int {
	return len(m.Coef[0])
}

// PredictProba returns [P(class 0), P(class 1)].
func (m *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	if err := checkWidth(features, m.NumFeatures()); err != nil {
		return nil, err
	}
	if err := checkFinite(features); err != nil {
		return nil, err
	}

	var d float64
	for i, c := range m.Coef[0] {
		d += features[i] * c
	}
	d += m.Intercept[0]

	p := expit(d)
	return []float64{1 - p, p}, nil
}

// expit is the logistic sigmoid, evaluated on the side that cannot overflow.
func expit(x float64) float64 {
	if x < 0 {
		e := math.Exp(x)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(-x))
}

func checkFinite(features []float64) error {
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("feature %d is not finite: %v", i, v)
		}
	}
	return nil
}
