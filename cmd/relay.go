package main

import (
	"context"

	"github.com/desertthunder/mstream/internal/server"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/urfave/cli/v3"
)

// Relay runs the sync relay until interrupted.
func (r *Runner) Relay(ctx context.Context, cmd *cli.Command) error {
	relay := r.config.Relay
	if host := cmd.String("host"); host != "" {
		relay.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		relay.Port = port
	}

	logger := shared.WithLogger(r.logger, "component", "relay")
	hub := server.NewHub(relay.AllowedOrigins, logger)
	defer hub.Close()

	return server.Serve(ctx, relay.Addr(), server.NewRouter(hub, relay.AllowedOrigins, logger), logger)
}
