// Package model loads the fitted preprocessor and classifier artifacts and
// exposes them as read-only [Preprocessor] and [Classifier] values.
//
// Artifacts are JSON documents validated against embedded schemas before
// decoding. Once loaded they are never mutated and can be shared freely.
package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// BadCreditClass is the index of the "bad credit" class in the classifier's
// class ordering. It is a property of the trained artifact, not something the
// artifact itself declares, so swapping artifacts trained with a different
// label order silently inverts the score.
const BadCreditClass = 1

const (
	binaryClassCount = 2
)

var (
	// ErrArtifactLoad matches every failure to read, validate or decode an artifact.
	ErrArtifactLoad = errors.New("artifact load failed")

	errShapeMismatch = errors.New("shape mismatch")
)

// Record is a single named row passed to a Preprocessor.
type Record struct {
	Columns []string  `json:"columns" yaml:"columns"`
	Values  []float64 `json:"values" yaml:"values"`
}

// Preprocessor maps a raw record to the numeric feature vector the classifier expects.
type Preprocessor interface {
	Transform(r Record) ([]float64, error)
}

// Classifier returns class probabilities for a single feature vector.
type Classifier interface {
	PredictProba(features []float64) ([]float64, error)
	Classes() []string
	NumFeatures() int
}

// Artifacts holds the loaded preprocessor and classifier pair.
type Artifacts struct {
	Preprocessor *ColumnTransformer
	Classifier   Classifier
}

// Summary describes the loaded artifacts.
type Summary struct {
	Preprocessor PreprocessorSummary `json:"preprocessor" yaml:"preprocessor"`
	Classifier   ClassifierSummary   `json:"classifier" yaml:"classifier"`
}

type PreprocessorSummary struct {
	Path         string   `json:"path" yaml:"path"`
	Columns      []string `json:"columns" yaml:"columns"`
	Transformers []string `json:"transformers" yaml:"transformers"`
	Remainder    string   `json:"remainder" yaml:"remainder"`
	OutputWidth  int      `json:"output_width" yaml:"output_width"`
}

type ClassifierSummary struct {
	Path        string   `json:"path" yaml:"path"`
	Kind        string   `json:"kind" yaml:"kind"`
	Classes     []string `json:"classes" yaml:"classes"`
	BadClass    string   `json:"bad_class" yaml:"bad_class"`
	NumFeatures int      `json:"num_features" yaml:"num_features"`
}

// Artifact kinds reported on LoadError.
const (
	ArtifactPreprocessor = "preprocessor"
	ArtifactClassifier   = "classifier"
)

// LoadError reports the artifact that failed to load.
type LoadError struct {
	Kind string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrArtifactLoad, e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is makes every LoadError match ErrArtifactLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrArtifactLoad
}

func classNames(classes []any) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = fmt.Sprint(c)
	}
	return out
}

func checkWidth(features []float64, want int) error {
	if len(features) != want {
		return errors.Wrapf(errShapeMismatch, "expected %d features, got %d", want, len(features))
	}
	return nil
}
