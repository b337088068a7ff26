package cli

import (
	"context"
	"log/slog"

	"github.com/mchmarny/creditrisk/pkg/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

const flagOutput = "output"

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print or save the effective configuration",
		Action: cmdConfig,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagOutput,
				Usage: "Write the effective config to this YAML file instead of printing it",
			},
		},
	}
}

func cmdConfig(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	path := cmd.String(flagOutput)
	if path == "" {
		return encode(cmd.Root().Writer, cfg)
	}

	if err := config.Save(path, cfg); err != nil {
		return errors.Wrap(err, "saving config")
	}
	slog.Info("config saved", "path", path)
	return nil
}
