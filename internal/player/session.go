package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mstream/internal/media"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/shared"
	"github.com/samber/mo"
)

// Backend resolves playback sources to loadable URLs.
type Backend interface {
	AbsoluteURL(path string) string
	ProbeStream(ctx context.Context, videoID string) error
	ResolveAudio(ctx context.Context, videoID string) (string, error)
}

// Broadcaster publishes local playback intents to other clients. It must not block.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev models.SyncEvent) error
}

// SettingsStore persists the volume.
type SettingsStore interface {
	Volume() (float64, bool, error)
	SetVolume(v float64) error
}

// Options holds a [Session]'s collaborators. Element and Backend are required.
type Options struct {
	ID          string
	Element     media.Element
	Loader      *media.Loader
	Backend     Backend
	Broadcaster Broadcaster
	Settings    SettingsStore
	Notifier    Notifier
	Logger      *log.Logger
}

type origin int

const (
	originLocal origin = iota
	originRemote
)

func (o origin) String() string {
	if o == originRemote {
		return "remote"
	}
	return "local"
}

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdToggle
	cmdPause
	cmdResume
	cmdSeek
	cmdVolume
	cmdMute
	cmdSync
)

type command struct {
	kind   commandKind
	source models.PlaybackSource
	event  models.SyncEvent
	value  float64
	reply  chan error
}

type loadResult struct {
	gen uint64
	url string
	err error
}

type pendingLoad struct {
	gen     uint64
	source  models.PlaybackSource
	origin  origin
	cancel  context.CancelFunc
	waiters []chan error
}

// Session owns playback state. All mutation happens on the goroutine running [Session.Run].
type Session struct {
	id          string
	element     media.Element
	loader      *media.Loader
	backend     Backend
	broadcaster Broadcaster
	settings    SettingsStore
	notifier    Notifier
	logger      *log.Logger

	commands chan command
	loads    chan loadResult
	done     chan struct{}
	running  atomic.Bool

	mu    sync.RWMutex
	state State

	// owned by the Run goroutine
	gen       uint64
	pending   *pendingLoad
	loadedURL string
}

// NewSession builds a session from opts.
func NewSession(opts Options) (*Session, error) {
	if opts.Element == nil {
		return nil, fmt.Errorf("%w: media element", shared.ErrMissingArgument)
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("%w: backend", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Loader == nil {
		opts.Loader = media.NewLoader(opts.Element, media.WithLoaderLogger(opts.Logger))
	}
	if opts.ID == "" {
		opts.ID = shared.GenerateID()
	}

	return &Session{
		id:          opts.ID,
		element:     opts.Element,
		loader:      opts.Loader,
		backend:     opts.Backend,
		broadcaster: opts.Broadcaster,
		settings:    opts.Settings,
		notifier:    opts.Notifier,
		logger:      shared.WithLogger(opts.Logger, "session", opts.ID[:min(8, len(opts.ID))]),
		commands:    make(chan command),
		loads:       make(chan loadResult),
		done:        make(chan struct{}),
		state:       State{Volume: 1},
	}, nil
}

// ID is the sender id stamped on outgoing sync events.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Run processes commands and media events until ctx is cancelled. It may only be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session already running")
	}
	defer close(s.done)

	events, unsubscribe := s.element.Subscribe()
	defer unsubscribe()

	s.restoreVolume()
	s.logger.Debug("session started")

	for {
		select {
		case <-ctx.Done():
			s.cancelPending(shared.ErrPlayerClosed)
			s.logger.Debug("session stopped")
			return nil
		case cmd := <-s.commands:
			s.dispatch(ctx, cmd)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.onMediaEvent(ev)
		case res := <-s.loads:
			s.onLoadResult(ctx, res)
		}
	}
}

// submit hands cmd to the Run goroutine and waits for its reply.
func (s *Session) submit(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return shared.ErrPlayerClosed
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return shared.ErrPlayerClosed
	}
}

// RequestPlay plays src. When src is already loaded it resumes (if paused) without reloading;
// otherwise it resolves and loads src, returning once the load has succeeded or failed.
func (s *Session) RequestPlay(ctx context.Context, src models.PlaybackSource) error {
	return s.submit(ctx, command{kind: cmdPlay, source: src})
}

// TogglePlayPause flips between playing and paused. It fails with [shared.ErrNothingLoaded] when no
// track has been loaded.
func (s *Session) TogglePlayPause(ctx context.Context) error {
	return s.submit(ctx, command{kind: cmdToggle})
}

func (s *Session) Pause(ctx context.Context) error {
	return s.submit(ctx, command{kind: cmdPause})
}

func (s *Session) Resume(ctx context.Context) error {
	return s.submit(ctx, command{kind: cmdResume})
}

// Seek jumps to fraction (0 to 1) of the current track. It is a no-op while the duration is unknown.
func (s *Session) Seek(ctx context.Context, fraction float64) error {
	return s.submit(ctx, command{kind: cmdSeek, value: fraction})
}

// SetVolume sets and persists the volume fraction.
func (s *Session) SetVolume(ctx context.Context, fraction float64) error {
	return s.submit(ctx, command{kind: cmdVolume, value: fraction})
}

func (s *Session) ToggleMute(ctx context.Context) error {
	return s.submit(ctx, command{kind: cmdMute})
}

// HandleSync applies an inbound sync event. It returns once the event has been reconciled; a load it
// triggers continues in the background and is never re-broadcast.
func (s *Session) HandleSync(ctx context.Context, ev models.SyncEvent) error {
	return s.submit(ctx, command{kind: cmdSync, event: ev})
}

func (s *Session) Previous() { s.comingSoon("Previous track") }
func (s *Session) Next()     { s.comingSoon("Next track") }
func (s *Session) Shuffle()  { s.comingSoon("Shuffle") }
func (s *Session) Repeat()   { s.comingSoon("Repeat") }

func (s *Session) comingSoon(feature string) {
	s.notify(LevelInfo, feature+" feature coming soon!")
}

func (s *Session) dispatch(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdPlay:
		s.play(ctx, cmd.source, originLocal, cmd.reply)
	case cmdToggle:
		cmd.reply <- s.toggle(ctx)
	case cmdPause:
		cmd.reply <- s.pause(ctx, originLocal)
	case cmdResume:
		cmd.reply <- s.resume(ctx, originLocal)
	case cmdSeek:
		cmd.reply <- s.seek(cmd.value)
	case cmdVolume:
		cmd.reply <- s.setVolume(cmd.value)
	case cmdMute:
		cmd.reply <- s.toggleMute()
	case cmdSync:
		cmd.reply <- s.sync(ctx, cmd.event)
	default:
		cmd.reply <- shared.ErrNotImplemented
	}
}

// loaded reports whether the element is playing back the last successful load.
func (s *Session) loaded() bool {
	return s.loadedURL != "" && s.element.Source() == s.loadedURL
}

// isCurrent reports whether src is the loaded source.
func (s *Session) isCurrent(src models.PlaybackSource) bool {
	current, ok := s.Snapshot().Source.Get()
	return ok && s.loaded() && current.Same(src)
}

func (s *Session) play(ctx context.Context, src models.PlaybackSource, from origin, reply chan error) {
	respond := func(err error) {
		if reply != nil {
			reply <- err
		}
	}

	if err := src.Validate(); err != nil {
		s.notify(LevelError, "Cannot play: "+err.Error())
		respond(fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	if s.isCurrent(src) {
		s.cancelPending(shared.ErrSuperseded)
		respond(s.resume(ctx, from))
		return
	}

	if p := s.pending; p != nil && p.source.Same(src) {
		if from == originLocal {
			p.origin = originLocal
		}
		if reply != nil {
			p.waiters = append(p.waiters, reply)
		}
		return
	}

	s.startLoad(ctx, src, from, reply)
}

func (s *Session) startLoad(ctx context.Context, src models.PlaybackSource, from origin, reply chan error) {
	s.cancelPending(shared.ErrSuperseded)

	s.gen++
	loadCtx, cancel := context.WithCancel(ctx)
	p := &pendingLoad{gen: s.gen, source: src, origin: from, cancel: cancel}
	if reply != nil {
		p.waiters = append(p.waiters, reply)
	}
	s.pending = p

	s.update(func(st *State) { st.Loading = true })
	if src.Kind == models.SourceYouTube {
		s.notify(LevelInfo, "Loading YouTube audio...")
	}
	s.logger.Info("loading source", "stream", src.StreamURL(), "origin", from, "gen", p.gen)

	go func(gen uint64) {
		url, err := s.load(loadCtx, src)
		select {
		case s.loads <- loadResult{gen: gen, url: url, err: err}:
		case <-s.done:
		}
	}(p.gen)
}

// load resolves src to a URL and runs it through the loader. Remote sources try the proxy stream
// first and fall back once to the direct audio URL.
func (s *Session) load(ctx context.Context, src models.PlaybackSource) (string, error) {
	proxy := s.backend.AbsoluteURL(src.StreamURL())
	if src.Kind == models.SourceLocal {
		return proxy, s.loader.LoadAndPlay(ctx, proxy)
	}

	err := s.backend.ProbeStream(ctx, src.ID)
	if err == nil {
		err = s.loader.LoadAndPlay(ctx, proxy)
		if err == nil {
			return proxy, nil
		}
	}
	if ctx.Err() != nil || errors.Is(err, shared.ErrSuperseded) {
		return "", fmt.Errorf("%w: %v", shared.ErrSuperseded, err)
	}
	s.logger.Debug("proxy stream failed, trying direct URL", "id", src.ID, "error", err)

	direct, err := s.backend.ResolveAudio(ctx, src.ID)
	if err != nil {
		return "", err
	}
	direct = s.backend.AbsoluteURL(direct)
	return direct, s.loader.LoadAndPlay(ctx, direct)
}

func (s *Session) onLoadResult(ctx context.Context, res loadResult) {
	p := s.pending
	if p == nil || p.gen != res.gen {
		s.logger.Debug("discarding stale load result", "gen", res.gen)
		return
	}
	s.pending = nil
	p.cancel()

	if res.err != nil {
		// the element has already moved off the previous track
		playing := s.loaded() && !s.element.Paused()
		s.update(func(st *State) {
			st.Loading = false
			st.Playing = playing
		})
		s.logger.Error("failed to load audio", "stream", p.source.StreamURL(), "error", res.err)
		s.notify(LevelError, fmt.Sprintf("Failed to play %s: %v", p.source.DisplayTitle(), res.err))
		for _, w := range p.waiters {
			w <- res.err
		}
		return
	}

	s.loadedURL = res.url
	s.update(func(st *State) {
		st.Source = mo.Some(p.source)
		st.StreamURL = p.source.StreamURL()
		st.Playing = true
		st.Loading = false
	})
	s.logger.Info("now playing", "stream", p.source.StreamURL(), "url", res.url)
	s.notify(LevelSuccess, "Now playing: "+p.source.DisplayTitle())

	if p.origin == originLocal {
		s.broadcast(ctx, models.ActionPlay)
	}
	for _, w := range p.waiters {
		w <- nil
	}
}

// cancelPending aborts the in-flight load, answering its waiters with err.
func (s *Session) cancelPending(err error) {
	p := s.pending
	if p == nil {
		return
	}
	s.pending = nil
	p.cancel()
	for _, w := range p.waiters {
		w <- err
	}
	s.update(func(st *State) { st.Loading = false })
}

func (s *Session) toggle(ctx context.Context) error {
	if !s.loaded() {
		s.notify(LevelWarning, "No audio loaded")
		return shared.ErrNothingLoaded
	}
	if s.element.Paused() {
		return s.resume(ctx, originLocal)
	}
	return s.pause(ctx, originLocal)
}

func (s *Session) resume(ctx context.Context, from origin) error {
	if !s.loaded() {
		if from == originRemote {
			return nil
		}
		s.notify(LevelWarning, "No audio loaded")
		return shared.ErrNothingLoaded
	}
	if !s.element.Paused() {
		return nil
	}

	if err := s.element.Play(); err != nil {
		s.notify(LevelError, "Playback failed: "+err.Error())
		return fmt.Errorf("%w: %v", shared.ErrPlaybackRejected, err)
	}
	s.update(func(st *State) { st.Playing = true })

	if from == originLocal {
		s.broadcast(ctx, models.ActionPlay)
	}
	return nil
}

func (s *Session) pause(ctx context.Context, from origin) error {
	if !s.loaded() || s.element.Paused() {
		return nil
	}

	if err := s.element.Pause(); err != nil {
		s.notify(LevelError, "Pause failed: "+err.Error())
		return err
	}
	s.update(func(st *State) { st.Playing = false })

	if from == originLocal {
		s.broadcast(ctx, models.ActionPause)
	}
	return nil
}

func (s *Session) sync(ctx context.Context, ev models.SyncEvent) error {
	if ev.Sender != "" && ev.Sender == s.id {
		s.logger.Debug("ignoring own sync event", "action", ev.Action)
		return nil
	}
	if err := ev.Validate(); err != nil {
		s.logger.Warn("invalid sync event", "error", err)
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	src, named := ev.PlaybackSource()
	s.logger.Info("received sync event", "action", ev.Action, "source", ev.Source, "sender", ev.Sender)

	switch ev.Action {
	case models.ActionPlay:
		if named && !s.isCurrent(src) {
			s.play(ctx, src, originRemote, nil)
			return nil
		}
		return s.resume(ctx, originRemote)
	case models.ActionPause:
		return s.pause(ctx, originRemote)
	}
	return nil
}

func (s *Session) seek(fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("%w: seek fraction %v", shared.ErrInvalidArgument, fraction)
	}

	duration := s.Snapshot().Duration
	if duration <= 0 || !s.loaded() {
		return nil
	}

	position := time.Duration(fraction * float64(duration))
	if err := s.element.Seek(position); err != nil {
		return err
	}
	s.update(func(st *State) { st.CurrentTime = position })
	return nil
}

func (s *Session) setVolume(fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("%w: volume %v", shared.ErrInvalidArgument, fraction)
	}
	if err := s.element.SetVolume(fraction); err != nil {
		return err
	}
	s.update(func(st *State) { st.Volume = fraction })

	if s.settings != nil {
		if err := s.settings.SetVolume(fraction); err != nil {
			s.logger.Warn("failed to persist volume", "error", err)
		}
	}
	return nil
}

func (s *Session) toggleMute() error {
	muted := !s.Snapshot().Muted
	if err := s.element.SetMuted(muted); err != nil {
		return err
	}
	s.update(func(st *State) { st.Muted = muted })
	return nil
}

func (s *Session) restoreVolume() {
	if s.settings == nil {
		return
	}

	v, ok, err := s.settings.Volume()
	if err != nil {
		s.logger.Warn("failed to read stored volume", "error", err)
		return
	}
	if !ok {
		return
	}
	if err := s.element.SetVolume(v); err != nil {
		s.logger.Warn("failed to apply stored volume", "error", err)
		return
	}
	s.update(func(st *State) { st.Volume = v })
}

func (s *Session) onMediaEvent(ev media.Event) {
	if ev.Source == "" || ev.Source != s.element.Source() {
		return
	}

	switch ev.Type {
	case media.EventLoadStart:
		s.update(func(st *State) {
			st.CurrentTime = 0
			st.Duration = 0
		})
	case media.EventPlay:
		s.update(func(st *State) { st.Playing = true })
	case media.EventPause:
		s.update(func(st *State) { st.Playing = false })
	case media.EventProgress:
		s.update(func(st *State) {
			st.CurrentTime = ev.CurrentTime
			if ev.Duration > 0 {
				st.Duration = ev.Duration
			}
		})
	case media.EventMetadata:
		s.update(func(st *State) { st.Duration = ev.Duration })
	case media.EventEnded:
		s.update(func(st *State) {
			st.Playing = false
			st.CurrentTime = st.Duration
		})
	case media.EventError:
		if s.pending != nil {
			return
		}
		s.logger.Error("audio playback error", "url", ev.Source, "code", ev.Code)
		s.update(func(st *State) {
			st.Playing = false
			st.Loading = false
		})
		s.notify(LevelError, "Audio playback error")
	}
}

// broadcast announces action for the current source.
func (s *Session) broadcast(ctx context.Context, action models.Action) {
	if s.broadcaster == nil {
		return
	}

	ev := models.SyncEvent{Action: action}
	if src, ok := s.Snapshot().Source.Get(); ok {
		ev = src.SyncEvent(action)
	}
	ev.Sender = s.id

	if err := s.broadcaster.Broadcast(ctx, ev); err != nil {
		s.logger.Warn("failed to broadcast sync event", "action", action, "error", err)
	}
}

func (s *Session) notify(level Level, message string) {
	switch level {
	case LevelError:
		s.logger.Error(message)
	case LevelWarning:
		s.logger.Warn(message)
	default:
		s.logger.Info(message)
	}

	if s.notifier != nil {
		s.notifier.Notify(Notification{Level: level, Message: message, At: time.Now()})
	}
}
