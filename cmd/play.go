package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/mstream/internal/media"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/player"
	"github.com/desertthunder/mstream/internal/repositories"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayLocal plays an MP3 served by the backend until it ends or the command is interrupted.
func (r *Runner) PlayLocal(ctx context.Context, cmd *cli.Command) error {
	file := strings.TrimSpace(cmd.StringArg("file"))
	if file == "" {
		return fmt.Errorf("%w: file name", shared.ErrMissingArgument)
	}
	return r.playUntilDone(ctx, models.LocalSource(file))
}

// PlayYouTube plays a YouTube video's audio until it ends or the command is interrupted.
func (r *Runner) PlayYouTube(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	return r.playUntilDone(ctx, models.RemoteSource(id, cmd.String("title"), cmd.String("channel"), ""))
}

func (r *Runner) playUntilDone(ctx context.Context, src models.PlaybackSource) error {
	stack, err := r.startPlayer(ctx, player.NotifierFunc(func(n player.Notification) {
		r.writePlain("[%s] %s\n", n.Level, n.Message)
	}))
	if err != nil {
		return err
	}
	defer stack.close()

	events, unsubscribe := stack.element.Subscribe()
	defer unsubscribe()

	if err := stack.session.RequestPlay(ctx, src); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stack.element.Exited():
			return fmt.Errorf("%w: mpv exited", shared.ErrMediaError)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == media.EventEnded && ev.Source == stack.element.Source() {
				r.logger.Info("playback finished", "stream", src.StreamURL())
				return nil
			}
		}
	}
}

// VolumeGet prints the stored volume.
func (r *Runner) VolumeGet(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	v, ok, err := repositories.NewSettingsRepository(db).Volume()
	if err != nil {
		return err
	}
	if !ok {
		v = 1
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"volume": v, "stored": ok}, false)
	}
	return r.writePlain("%d%%\n", int(v*100+0.5))
}

// VolumeSet stores a new volume, given as a fraction (0.5) or a percentage (50%).
func (r *Runner) VolumeSet(ctx context.Context, cmd *cli.Command) error {
	v, err := parseVolume(cmd.StringArg("value"))
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewSettingsRepository(db).SetVolume(v); err != nil {
		return err
	}

	r.logger.Info("volume stored", "volume", v)
	return r.writePlain("✓ Volume set to %d%%\n", int(v*100+0.5))
}

func parseVolume(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: volume", shared.ErrMissingArgument)
	}

	percent := strings.HasSuffix(raw, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: volume %q", shared.ErrInvalidArgument, raw)
	}
	if percent || v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: volume %q out of range", shared.ErrInvalidArgument, raw)
	}
	return v, nil
}
