package cli

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/creditrisk/pkg/application"
	"github.com/mchmarny/creditrisk/pkg/config"
	"github.com/mchmarny/creditrisk/pkg/encoding"
	"github.com/mchmarny/creditrisk/pkg/form"
	"github.com/mchmarny/creditrisk/pkg/inference"
	"github.com/mchmarny/creditrisk/pkg/metrics"
	"github.com/mchmarny/creditrisk/pkg/model"
	"github.com/mchmarny/creditrisk/pkg/report"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

const (
	sourceWeb = "web"
	sourceAPI = "api"
	sourceCLI = "cli"
)

func newPredictCmd() *cli.Command {
	d := application.Default()
	return &cli.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Score one credit application",
		Action:  cmdPredict,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  form.KeyAge,
				Usage: "Applicant age in years",
				Value: d.Age,
			},
			&cli.StringFlag{
				Name:  form.KeyJob,
				Usage: "Job category " + labelsUsage(encoding.Job),
				Value: d.Job,
			},
			&cli.FloatFlag{
				Name:  form.KeyCreditAmount,
				Usage: "Requested credit amount (DM)",
				Value: d.CreditAmount,
			},
			&cli.IntFlag{
				Name:  form.KeyDuration,
				Usage: "Credit duration in months",
				Value: d.Duration,
			},
			&cli.StringFlag{
				Name:  form.KeySex,
				Usage: "Applicant sex " + labelsUsage(encoding.Sex),
				Value: d.Sex,
			},
			&cli.StringFlag{
				Name:  form.KeyHousing,
				Usage: "Housing " + labelsUsage(encoding.Housing),
				Value: d.Housing,
			},
			&cli.StringFlag{
				Name:  form.KeySavingAccounts,
				Usage: "Saving accounts " + labelsUsage(encoding.SavingAccounts),
				Value: d.SavingAccounts,
			},
			&cli.FloatFlag{
				Name:  form.KeyCheckingAccount,
				Usage: "Checking account balance (DM)",
				Value: d.CheckingAccount,
			},
			&cli.StringFlag{
				Name:  form.KeyPurpose,
				Usage: "Credit purpose " + labelsUsage(encoding.Purpose),
				Value: d.Purpose,
			},
		},
	}
}

func newInspectCmd() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "Load the model artifacts and print their summary",
		Action: cmdInspect,
	}
}

// Assessment is the outcome of one prediction request.
type Assessment struct {
	RequestID   string                        `json:"request_id" yaml:"request_id"`
	Application application.CreditApplication `json:"application" yaml:"application"`
	Report      *report.Report                `json:"report" yaml:"report"`
}

func labelsUsage(t *encoding.Table) string {
	return "[" + strings.Join(t.Labels(), ", ") + "]"
}

func loadArtifacts(ctx context.Context, cfg *config.Config) (*model.Loader, *model.Artifacts, error) {
	start := time.Now()
	l := model.NewLoader(cfg.Artifacts.Preprocessor, cfg.Artifacts.Classifier)
	a, err := l.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	metrics.ArtifactLoadDuration.Observe(time.Since(start).Seconds())
	return l, a, nil
}

// assessor scores applications and records the outcome.
type assessor struct {
	runner *inference.Runner
}

func (s *assessor) assess(ctx context.Context, source string, a application.CreditApplication) (*Assessment, error) {
	start := time.Now()
	id := uuid.NewString()
	log := slog.With("request_id", id, "source", source)

	p, err := s.runner.Predict(ctx, a)
	if err != nil {
		metrics.ObserveFailure(source, failureKind(err), start)
		switch {
		case errors.Is(err, encoding.ErrUnknownCategory):
			log.Error("application has a category the encoder does not know", "error", err)
		case canceled(err):
			log.Warn("prediction canceled", "error", err)
		default:
			log.Error("prediction failed", "error", err)
		}
		return nil, err
	}

	rep, err := report.New(p)
	if err != nil {
		metrics.ObserveFailure(source, metrics.FailureReport, start)
		log.Error("report failed", "score", p, "error", err)
		return nil, err
	}

	metrics.ObservePrediction(source, rep.Verdict.Label, start)
	log.Info("prediction completed", "score", p, "verdict", rep.Verdict.Label, "duration", time.Since(start))

	return &Assessment{
		RequestID:   id,
		Application: a,
		Report:      rep,
	}, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, form.ErrInvalidInput):
		return metrics.FailureInvalidInput
	case errors.Is(err, encoding.ErrUnknownCategory):
		return metrics.FailureEncoding
	case errors.Is(err, report.ErrInvalidScore):
		return metrics.FailureReport
	case canceled(err):
		return metrics.FailureCanceled
	default:
		return metrics.FailureInference
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func cmdPredict(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	a := application.CreditApplication{
		Age:             cmd.Int(form.KeyAge),
		Job:             cmd.String(form.KeyJob),
		CreditAmount:    cmd.Float(form.KeyCreditAmount),
		Duration:        cmd.Int(form.KeyDuration),
		Sex:             cmd.String(form.KeySex),
		Housing:         cmd.String(form.KeyHousing),
		SavingAccounts:  cmd.String(form.KeySavingAccounts),
		CheckingAccount: cmd.Float(form.KeyCheckingAccount),
		Purpose:         cmd.String(form.KeyPurpose),
	}
	if c := a.Clamp(); c != a {
		slog.Warn("application values clamped into their domain", "from", a, "to", c)
		a = c
	}

	_, arts, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "loading model artifacts")
	}

	runner, err := inference.NewRunnerFromArtifacts(arts)
	if err != nil {
		return errors.Wrap(err, "creating inference runner")
	}

	s := &assessor{runner: runner}
	res, err := s.assess(ctx, sourceCLI, a)
	if err != nil {
		return errors.Wrap(err, "scoring application")
	}

	if err := encode(cmd.Root().Writer, res); err != nil {
		return errors.Wrap(err, "encoding assessment")
	}
	return nil
}

func cmdInspect(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	l, arts, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "loading model artifacts")
	}

	if err := encode(cmd.Root().Writer, l.Summarize(arts)); err != nil {
		return errors.Wrap(err, "encoding artifact summary")
	}
	return nil
}
