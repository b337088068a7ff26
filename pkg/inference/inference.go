// Package inference runs a credit application through the loaded
// preprocessor and classifier and returns the probability of bad credit.
package inference

import (
	"context"
	"math"

	"github.com/mchmarny/creditrisk/pkg/application"
	"github.com/mchmarny/creditrisk/pkg/model"
	"github.com/pkg/errors"
)

// ErrInferenceFailed wraps any rejection by the preprocessor or classifier.
var ErrInferenceFailed = errors.New("inference failed")

// Runner scores applications against one immutable artifact pair.
type Runner struct {
	pre model.Preprocessor
	clf model.Classifier
}

// NewRunner creates a Runner from loaded artifacts.
func NewRunner(pre model.Preprocessor, clf model.Classifier) (*Runner, error) {
	if pre == nil || clf == nil {
		return nil, errors.New("preprocessor and classifier are required")
	}
	return &Runner{pre: pre, clf: clf}, nil
}

// NewRunnerFromArtifacts creates a Runner from a loaded artifact pair.
func NewRunnerFromArtifacts(a *model.Artifacts) (*Runner, error) {
	if a == nil || a.Preprocessor == nil || a.Classifier == nil {
		return nil, errors.New("artifacts are required")
	}
	return NewRunner(a.Preprocessor, a.Classifier)
}

// Predict returns the probability in [0, 1] that a is a bad credit risk.
// Encoding failures and context errors are returned as is, every other
// failure matches ErrInferenceFailed.
func (r *Runner) Predict(ctx context.Context, a application.CreditApplication) (float64, error) {
	rec, err := a.Record()
	if err != nil {
		return 0, err
	}

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(err, "prediction canceled")
	}

	features, err := r.pre.Transform(rec)
	if err != nil {
		return 0, failed(err, "transform")
	}

	proba, err := r.clf.PredictProba(features)
	if err != nil {
		return 0, failed(err, "predict_proba")
	}
	if len(proba) <= model.BadCreditClass {
		return 0, failed(errors.Errorf("expected at least %d class probabilities, got %d", model.BadCreditClass+1, len(proba)), "predict_proba")
	}

	p := proba[model.BadCreditClass]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, failed(errors.Errorf("probability out of range: %v", p), "predict_proba")
	}
	return p, nil
}

type inferenceError struct {
	stage string
	err   error
}

func (e *inferenceError) Error() string {
	return ErrInferenceFailed.Error() + ": " + e.stage + ": " + e.err.Error()
}

func (e *inferenceError) Unwrap() error {
	return e.err
}

func (e *inferenceError) Is(target error) bool {
	return target == ErrInferenceFailed
}

func failed(err error, stage string) error {
	return &inferenceError{stage: stage, err: err}
}
