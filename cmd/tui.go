package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mstream/internal/player"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/desertthunder/mstream/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, f, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	notes := make(chan player.Notification, 16)
	stack, err := r.startPlayer(ctx, player.ChannelNotifier(notes))
	if err != nil {
		return err
	}
	defer stack.close()

	model := ui.NewModel(ctx, r.backend, stack.session, notes)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
