package inference

import (
	"context"
	"math"
	"testing"

	"github.com/mchmarny/creditrisk/pkg/application"
	"github.com/mchmarny/creditrisk/pkg/encoding"
	"github.com/mchmarny/creditrisk/pkg/model"
	"github.com/mchmarny/creditrisk/pkg/report"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPreprocessorPath = "../../artifacts/preprocessor.json"
	testClassifierPath   = "../../artifacts/classifier.json"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	a, err := model.NewLoader(testPreprocessorPath, testClassifierPath).Load(context.Background())
	require.NoError(t, err)
	r, err := NewRunnerFromArtifacts(a)
	require.NoError(t, err)
	return r
}

func exampleApplication() application.CreditApplication {
	return application.CreditApplication{
		Age:             30,
		Job:             "skilled",
		CreditAmount:    10000,
		Duration:        24,
		Sex:             "male",
		Housing:         "own",
		SavingAccounts:  "none",
		CheckingAccount: 0.0,
		Purpose:         "car",
	}
}

func TestPredict_Deterministic(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	p1, err := r.Predict(ctx, exampleApplication())
	require.NoError(t, err)
	p2, err := r.Predict(ctx, exampleApplication())
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.GreaterOrEqual(t, p1, 0.0)
	assert.LessOrEqual(t, p1, 1.0)
}

// exampleScore is the score of exampleApplication against the artifacts
// shipped in the repository.
const exampleScore = 0.55707817012133787

func TestPredict_ExampleScore(t *testing.T) {
	r := newTestRunner(t)

	p, err := r.Predict(context.Background(), exampleApplication())
	require.NoError(t, err)
	assert.Equal(t, exampleScore, p)

	v := report.NewVerdict(p)
	assert.True(t, v.Bad)
	assert.Equal(t, "bad-credit risk: 55.71%", v.Text())
}

func TestPredict_RangeOverDomain(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	for _, age := range []int{application.AgeMin, 45, application.AgeMax} {
		for _, amount := range []float64{application.CreditAmountMin, application.CreditAmountMax} {
			for _, duration := range []int{application.DurationMin, application.DurationMax} {
				for _, checking := range []float64{application.CheckingAccountMin, application.CheckingAccountMax} {
					for _, job := range encoding.Job.Labels() {
						for _, saving := range encoding.SavingAccounts.Labels() {
							for _, purpose := range encoding.Purpose.Labels() {
								a := application.CreditApplication{
									Age: age, Job: job, CreditAmount: amount, Duration: duration,
									Sex: "female", Housing: "rent", SavingAccounts: saving,
									CheckingAccount: checking, Purpose: purpose,
								}
								p, err := r.Predict(ctx, a)
								require.NoError(t, err)
								require.True(t, p >= 0 && p <= 1, "score %v out of range for %+v", p, a)
							}
						}
					}
				}
			}
		}
	}
}

func TestPredict_UnknownCategory(t *testing.T) {
	r := newTestRunner(t)
	a := exampleApplication()
	a.Housing = "castle"

	_, err := r.Predict(context.Background(), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, encoding.ErrUnknownCategory)
	assert.NotErrorIs(t, err, ErrInferenceFailed)
}

type fakePreprocessor struct {
	out []float64
	err error
	got model.Record
}

func (f *fakePreprocessor) Transform(r model.Record) ([]float64, error) {
	f.got = r
	return f.out, f.err
}

type fakeClassifier struct {
	proba []float64
	err   error
}

func (f *fakeClassifier) PredictProba([]float64) ([]float64, error) { return f.proba, f.err }
func (f *fakeClassifier) Classes() []string                         { return []string{"0", "1"} }
func (f *fakeClassifier) NumFeatures() int                          { return 1 }

func TestPredict_ReturnsBadCreditClass(t *testing.T) {
	pre := &fakePreprocessor{out: []float64{1}}
	r, err := NewRunner(pre, &fakeClassifier{proba: []float64{0.3, 0.7}})
	require.NoError(t, err)

	p, err := r.Predict(context.Background(), exampleApplication())
	require.NoError(t, err)
	assert.Equal(t, 0.7, p)
	assert.Equal(t, []float64{30, 2, 10000, 24, 0, 0, -1, 0, 0}, pre.got.Values)
}

func TestPredict_Failures(t *testing.T) {
	tests := []struct {
		name string
		pre  *fakePreprocessor
		clf  *fakeClassifier
	}{
		{"transform error", &fakePreprocessor{err: errors.New("shape")}, &fakeClassifier{}},
		{"classifier error", &fakePreprocessor{out: []float64{1}}, &fakeClassifier{err: errors.New("boom")}},
		{"one class", &fakePreprocessor{out: []float64{1}}, &fakeClassifier{proba: []float64{1}}},
		{"nan", &fakePreprocessor{out: []float64{1}}, &fakeClassifier{proba: []float64{0, math.NaN()}}},
		{"above one", &fakePreprocessor{out: []float64{1}}, &fakeClassifier{proba: []float64{-0.5, 1.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(tt.pre, tt.clf)
			require.NoError(t, err)
			_, err = r.Predict(context.Background(), exampleApplication())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInferenceFailed)
		})
	}
}

func TestPredict_Canceled(t *testing.T) {
	r := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Predict(ctx, exampleApplication())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrInferenceFailed)
}

func TestNewRunner_Nil(t *testing.T) {
	_, err := NewRunner(nil, &fakeClassifier{})
	assert.Error(t, err)
	_, err = NewRunnerFromArtifacts(nil)
	assert.Error(t, err)
	_, err = NewRunnerFromArtifacts(&model.Artifacts{Classifier: &fakeClassifier{}})
	assert.Error(t, err)
	_, err = NewRunnerFromArtifacts(&model.Artifacts{Preprocessor: &model.ColumnTransformer{}})
	assert.Error(t, err)
}
