package model

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPreprocessorPath is where the fitted preprocessor is read from
	// unless overridden.
	DefaultPreprocessorPath = "artifacts/preprocessor.json"

	// DefaultClassifierPath is where the fitted classifier is read from
	// unless overridden.
	DefaultClassifierPath = "artifacts/classifier.json"

	preprocessorSchemaFile = "schema/preprocessor.json"
	classifierSchemaFile   = "schema/classifier.json"
)

var (
	//go:embed schema/*
	schemaFS embed.FS
)

// LoadPreprocessor reads, validates and decodes the preprocessor artifact at path.
func LoadPreprocessor(path string) (*ColumnTransformer, error) {
	b, err := readArtifact(ArtifactPreprocessor, path, preprocessorSchemaFile)
	if err != nil {
		return nil, err
	}

	var ct ColumnTransformer
	if err := json.Unmarshal(b, &ct); err != nil {
		return nil, &LoadError{Kind: ArtifactPreprocessor, Path: path, Err: errors.Wrap(err, "decoding preprocessor")}
	}
	if err := ct.init(); err != nil {
		return nil, &LoadError{Kind: ArtifactPreprocessor, Path: path, Err: err}
	}
	return &ct, nil
}

// LoadClassifier reads, validates and decodes the classifier artifact at path.
func LoadClassifier(path string) (Classifier, error) {
	b, err := readArtifact(ArtifactClassifier, path, classifierSchemaFile)
	if err != nil {
		return nil, err
	}

	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, &LoadError{Kind: ArtifactClassifier, Path: path, Err: errors.Wrap(err, "decoding classifier kind")}
	}

	var (
		clf   Classifier
		setup func() error
	)
	switch head.Kind {
	case kindLogisticRegression:
		m := &LogisticRegression{}
		clf, setup = m, m.init
	case kindRandomForest:
		m := &RandomForest{}
		clf, setup = m, m.init
	default:
		return nil, &LoadError{Kind: ArtifactClassifier, Path: path, Err: errors.Errorf("unsupported classifier kind: %s", head.Kind)}
	}

	if err := json.Unmarshal(b, clf); err != nil {
		return nil, &LoadError{Kind: ArtifactClassifier, Path: path, Err: errors.Wrapf(err, "decoding %s", head.Kind)}
	}
	if err := setup(); err != nil {
		return nil, &LoadError{Kind: ArtifactClassifier, Path: path, Err: err}
	}
	return clf, nil
}

func readArtifact(kind, path, schemaFile string) ([]byte, error) {
	if path == "" {
		return nil, &LoadError{Kind: kind, Path: path, Err: errors.New("artifact path not specified")}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Kind: kind, Path: path, Err: errors.Wrap(err, "reading artifact")}
	}

	if err := validate(b, schemaFile); err != nil {
		return nil, &LoadError{Kind: kind, Path: path, Err: err}
	}
	return b, nil
}

func validate(doc []byte, schemaFile string) error {
	s, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return errors.Wrapf(err, "failed to read schema: %s", schemaFile)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(s), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.Wrap(err, "artifact is not valid JSON")
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return errors.Errorf("artifact does not match schema: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Loader loads each artifact at most once per process and hands out the
// same immutable values on every later call.
type Loader struct {
	preprocessorPath string
	classifierPath   string

	preprocessor func() (*ColumnTransformer, error)
	classifier   func() (Classifier, error)
}

// NewLoader creates a Loader for the given artifact paths.
func NewLoader(preprocessorPath, classifierPath string) *Loader {
	l := &Loader{
		preprocessorPath: preprocessorPath,
		classifierPath:   classifierPath,
	}
	l.preprocessor = sync.OnceValues(func() (*ColumnTransformer, error) {
		start := time.Now()
		ct, err := LoadPreprocessor(preprocessorPath)
		if err == nil {
			slog.Debug("preprocessor loaded", "path", preprocessorPath, "features", ct.OutputWidth(), "duration", time.Since(start))
		}
		return ct, err
	})
	l.classifier = sync.OnceValues(func() (Classifier, error) {
		start := time.Now()
		clf, err := LoadClassifier(classifierPath)
		if err == nil {
			slog.Debug("classifier loaded", "path", classifierPath, "classes", clf.Classes(), "duration", time.Since(start))
		}
		return clf, err
	})
	return l
}

// Preprocessor returns the memoized preprocessor.
func (l *Loader) Preprocessor() (*ColumnTransformer, error) {
	return l.preprocessor()
}

// Classifier returns the memoized classifier.
func (l *Loader) Classifier() (Classifier, error) {
	return l.classifier()
}

// Load loads both artifacts concurrently and checks that the preprocessor
// output matches the classifier input.
func (l *Loader) Load(ctx context.Context) (*Artifacts, error) {
	var (
		a Artifacts
		g errgroup.Group
	)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "loading artifacts")
	}

	g.Go(func() error {
		ct, err := l.Preprocessor()
		a.Preprocessor = ct
		return err
	})
	g.Go(func() error {
		clf, err := l.Classifier()
		a.Classifier = clf
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if w, n := a.Preprocessor.OutputWidth(), a.Classifier.NumFeatures(); w != n {
		return nil, &LoadError{
			Kind: ArtifactClassifier,
			Path: l.classifierPath,
			Err:  errors.Wrapf(errShapeMismatch, "classifier expects %d features, preprocessor produces %d", n, w),
		}
	}

	slog.Info("artifacts loaded",
		"preprocessor", l.preprocessorPath,
		"classifier", l.classifierPath,
		"bad_class", a.Classifier.Classes()[BadCreditClass])
	return &a, nil
}

// Summarize describes the loaded artifact pair.
func (l *Loader) Summarize(a *Artifacts) *Summary {
	kind := ""
	switch a.Classifier.(type) {
	case *LogisticRegression:
		kind = kindLogisticRegression
	case *RandomForest:
		kind = kindRandomForest
	}
	classes := a.Classifier.Classes()
	return &Summary{
		Preprocessor: a.Preprocessor.Summarize(l.preprocessorPath),
		Classifier: ClassifierSummary{
			Path:        l.classifierPath,
			Kind:        kind,
			Classes:     classes,
			BadClass:    classes[BadCreditClass],
			NumFeatures: a.Classifier.NumFeatures(),
		},
	}
}
