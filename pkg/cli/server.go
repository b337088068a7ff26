package cli

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/mchmarny/creditrisk/pkg/inference"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20

	flagAddress   = "address"
	flagPort      = "port"
	flagNoBrowser = "no-browser"
)

//go:embed assets/* templates/*
var embedFS embed.FS

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start local HTTP server with the credit risk form",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagAddress,
				Usage:   "Address on which the server will listen",
				Sources: cli.EnvVars("CREDITRISK_ADDRESS"),
			},
			&cli.IntFlag{
				Name:    flagPort,
				Usage:   "Port on which the server will listen",
				Sources: cli.EnvVars("CREDITRISK_PORT"),
			},
			&cli.BoolFlag{
				Name:    flagNoBrowser,
				Aliases: []string{"nb"},
				Usage:   "Do not open browser automatically",
				Sources: cli.EnvVars("CREDITRISK_NO_BROWSER"),
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	if cmd.IsSet(flagAddress) {
		cfg.Server.Address = cmd.String(flagAddress)
	}
	if cmd.IsSet(flagPort) {
		cfg.Server.Port = cmd.Int(flagPort)
	}
	if cmd.IsSet(flagNoBrowser) {
		cfg.Server.NoBrowser = cmd.Bool(flagNoBrowser)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid server config")
	}

	_, arts, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "loading model artifacts")
	}

	runner, err := inference.NewRunnerFromArtifacts(arts)
	if err != nil {
		return errors.Wrap(err, "creating inference runner")
	}

	address := net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port))
	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(runner),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	failed := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url)

	if !cfg.Server.NoBrowser {
		openBrowser(url)
	}

	select {
	case <-done:
	case err := <-failed:
		return errors.Wrap(err, "error starting server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(runner *inference.Runner) *http.ServeMux {
	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(embedFS, "templates/*.html"))
	s := &assessor{runner: runner}

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(embedFS)))
	mux.HandleFunc("GET /favicon.ico", faviconHandler)

	// Views
	mux.HandleFunc("GET /{$}", homeViewHandler(tmpl))
	mux.HandleFunc("POST /predict", predictViewHandler(tmpl, s))

	// Data API
	mux.HandleFunc("GET /data/fields", fieldsAPIHandler)
	mux.HandleFunc("POST /data/predict", predictAPIHandler(s))

	// Operations
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler)

	return mux
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
