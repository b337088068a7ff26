package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/creditrisk/pkg/config"
	"github.com/mchmarny/creditrisk/pkg/logging"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "creditrisk"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	flagDebug        = "debug"
	flagLogLevel     = "log-level"
	flagConfig       = "config"
	flagFormat       = "format"
	flagPreprocessor = "preprocessor"
	flagClassifier   = "classifier"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(config.DefaultLogLevel)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Credit risk assessment form backed by a pre-trained classifier",
		Metadata:              map[string]any{},
		Flags:                 newGlobalFlags(),
		Commands: []*cli.Command{
			newServerCmd(),
			newPredictCmd(),
			newInspectCmd(),
			newConfigCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := config.Load(cmd.String(flagConfig))
			if err != nil {
				return ctx, errors.Wrap(err, "loading config")
			}

			if cmd.IsSet(flagLogLevel) {
				cfg.Log.Level = cmd.String(flagLogLevel)
			}
			if cmd.Bool(flagDebug) {
				cfg.Log.Level = "debug"
			}
			initLogging(cfg.Log.Level)

			outputFormat = formatJSON
			if f := cmd.String(flagFormat); f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			if cmd.IsSet(flagPreprocessor) {
				cfg.Artifacts.Preprocessor = cmd.String(flagPreprocessor)
			}
			if cmd.IsSet(flagClassifier) {
				cfg.Artifacts.Classifier = cmd.String(flagClassifier)
			}

			slog.Debug("config loaded", "path", cmd.String(flagConfig), "log_level", cfg.Log.Level)
			cmd.Metadata[appConfigKey] = cfg
			return ctx, nil
		},
	}
}

// newGlobalFlags creates the root flags. Flags hold parse state, so every
// app gets its own set.
func newGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Usage:   "Prints verbose logs (optional, default: false)",
			Sources: cli.EnvVars("CREDITRISK_DEBUG"),
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level [debug, info, warn, error]",
			Sources: cli.EnvVars("CREDITRISK_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    flagConfig,
			Usage:   "Path to the YAML config file (optional)",
			Sources: cli.EnvVars("CREDITRISK_CONFIG"),
		},
		&cli.StringFlag{
			Name:  flagFormat,
			Usage: "Output format [json, yaml]",
			Value: formatJSON,
		},
		&cli.StringFlag{
			Name:    flagPreprocessor,
			Usage:   "Path to the preprocessor artifact",
			Value:   config.DefaultPreprocessor,
			Sources: cli.EnvVars("CREDITRISK_PREPROCESSOR"),
		},
		&cli.StringFlag{
			Name:    flagClassifier,
			Usage:   "Path to the classifier artifact",
			Value:   config.DefaultClassifier,
			Sources: cli.EnvVars("CREDITRISK_CLASSIFIER"),
		},
	}
}

func getConfig(cmd *cli.Command) *config.Config {
	if cfg, ok := cmd.Root().Metadata[appConfigKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func initLogging(level string) {
	logging.SetDefaultCLILogger(level)
}

func encode(w io.Writer, v any) error {
	if outputFormat == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
