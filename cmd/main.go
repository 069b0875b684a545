package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mstream/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mstream",
		Usage:   "Terminal client and sync relay for a MusicStream backend",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars(shared.EnvPrefix + "CONFIG"),
			},
		},
		Before:   runner.load,
		Commands: runner.register(),
	}
}

// load resolves the configuration before any command runs.
func (r *Runner) load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config, err := shared.ResolveConfig(path)
	if err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = path
	r.httpClient = &http.Client{Timeout: config.Backend.Timeout}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	r.SetLogger(r.logger)

	r.logger.Debug("configuration loaded", "path", path, "backend", config.Backend.BaseURL)
	return ctx, nil
}
