package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/mstream/internal/media"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/player"
	"github.com/desertthunder/mstream/internal/realtime"
	"github.com/desertthunder/mstream/internal/repositories"
	"github.com/desertthunder/mstream/internal/shared"
)

// playerStack is a running playback session with its element, settings store and sync client.
type playerStack struct {
	session *player.Session
	element *media.MPV
	sync    *realtime.Client
	db      *sql.DB
	cancel  context.CancelFunc
	done    chan struct{}
}

// startPlayer spawns mpv, opens the settings store, connects the sync channel (when enabled) and runs a
// session until the returned stack is closed or ctx is cancelled.
func (r *Runner) startPlayer(ctx context.Context, notifier player.Notifier) (*playerStack, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	element := media.NewMPV(media.MPVOptions{
		Binary:    r.config.Player.Binary,
		SocketDir: r.config.Player.SocketDir,
		Logger:    shared.WithLogger(r.logger, "component", "mpv"),
	})
	if err := element.Start(ctx); err != nil {
		db.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	stack := &playerStack{element: element, db: db, cancel: cancel, done: make(chan struct{})}
	id := shared.GenerateID()

	var broadcaster player.Broadcaster
	if r.config.Sync.Enabled {
		client, err := realtime.NewClient(realtime.ClientOptions{
			URL:               r.config.Sync.URL,
			ID:                id,
			ReconnectInterval: r.config.Sync.ReconnectInterval,
			Logger:            r.logger,
			OnConnect: func() {
				notify(notifier, player.LevelSuccess, "Connected to sync server")
			},
			OnDisconnect: func(err error) {
				notify(notifier, player.LevelWarning, "Disconnected from sync server")
			},
		})
		if err != nil {
			stack.close()
			return nil, err
		}
		stack.sync = client
		broadcaster = client
	}

	session, err := player.NewSession(player.Options{
		ID:          id,
		Element:     element,
		Backend:     r.backend,
		Broadcaster: broadcaster,
		Settings:    repositories.NewSettingsRepository(db),
		Notifier:    notifier,
		Logger:      r.logger,
	})
	if err != nil {
		stack.close()
		return nil, err
	}
	stack.session = session

	go func() {
		defer close(stack.done)
		if err := session.Run(runCtx); err != nil {
			r.logger.Error("session stopped", "error", err)
		}
	}()

	if stack.sync != nil {
		stack.sync.OnControl(func(ev models.SyncEvent) {
			if err := session.HandleSync(runCtx, ev); err != nil {
				r.logger.Warn("failed to apply sync event", "action", ev.Action, "error", err)
			}
		})
		go stack.sync.Run(runCtx)
	}

	return stack, nil
}

func (s *playerStack) close() {
	s.cancel()
	if s.session != nil {
		<-s.done
	}
	s.element.Close()
	s.db.Close()
}

func notify(n player.Notifier, level player.Level, message string) {
	if n != nil {
		n.Notify(player.Notification{Level: level, Message: message})
	}
}
