package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mstream/internal/shared"
)

// LoadTimeout bounds how long a load may take to become ready.
const LoadTimeout = 30 * time.Second

// LoadErrorKind classifies a failed load.
type LoadErrorKind int

const (
	LoadMediaError LoadErrorKind = iota
	LoadTimedOut
	LoadPlaybackRejected
)

// LoadError is returned by [Loader.LoadAndPlay] when a load does not end in playback.
type LoadError struct {
	Kind   LoadErrorKind
	URL    string
	Code   int
	Reason string
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case LoadTimedOut:
		return "audio loading timeout"
	case LoadPlaybackRejected:
		return "playback failed: " + e.Reason
	}
	if e.Reason != "" {
		return fmt.Sprintf("audio error (code %d): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("audio error (code %d)", e.Code)
}

// Unwrap maps the kind onto the matching shared sentinel.
func (e *LoadError) Unwrap() error {
	switch e.Kind {
	case LoadTimedOut:
		return shared.ErrTimeout
	case LoadPlaybackRejected:
		return shared.ErrPlaybackRejected
	}
	return shared.ErrMediaError
}

// Loader runs one-shot load-then-play races against an [Element].
type Loader struct {
	// mu orders source assignment between overlapping invocations
	mu       sync.Mutex
	element  Element
	logger   *log.Logger
	timeout  time.Duration
	newTimer func(time.Duration) (<-chan time.Time, func() bool)
}

// LoaderOption customizes a [Loader].
type LoaderOption func(*Loader)

// WithTimer replaces the load timer, which fires once after the load timeout.
func WithTimer(fn func(time.Duration) (<-chan time.Time, func() bool)) LoaderOption {
	return func(l *Loader) { l.newTimer = fn }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader for el.
func NewLoader(el Element, opts ...LoaderOption) *Loader {
	l := &Loader{
		element: el,
		timeout: LoadTimeout,
		newTimer: func(d time.Duration) (<-chan time.Time, func() bool) {
			t := time.NewTimer(d)
			return t.C, t.Stop
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = shared.NewLogger(nil)
	}
	return l
}

// LoadAndPlay sets url as the element source, loads it and resolves with the first of:
//   - ready: Play is called; a rejected play is a [LoadPlaybackRejected] error
//   - error: a [LoadMediaError] carrying the media error code
//   - timeout: a [LoadTimedOut] error
//
// Only events tagged with url count. Cancelling ctx resolves with [shared.ErrSuperseded] and leaves the
// element alone. The subscription and timer are released before returning, so later events for the
// same load have no effect.
func (l *Loader) LoadAndPlay(ctx context.Context, url string) error {
	events, unsubscribe := l.element.Subscribe()
	defer unsubscribe()

	source, err := l.start(ctx, url)
	if err != nil {
		return err
	}

	timeout, stop := l.newTimer(l.timeout)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("load superseded", "url", url)
			return fmt.Errorf("%w: %v", shared.ErrSuperseded, ctx.Err())
		case <-timeout:
			l.logger.Warn("audio loading timeout", "url", url, "after", l.timeout)
			return &LoadError{Kind: LoadTimedOut, URL: url}
		case ev, ok := <-events:
			if !ok {
				return &LoadError{Kind: LoadMediaError, URL: url, Code: MediaErrAborted, Reason: "element closed"}
			}
			if ev.Source != source {
				continue
			}

			switch ev.Type {
			case EventLoadStart:
				l.logger.Debug("audio loading started", "url", url)
			case EventReady:
				if err := ctx.Err(); err != nil {
					l.logger.Debug("load superseded", "url", url)
					return fmt.Errorf("%w: %v", shared.ErrSuperseded, err)
				}
				l.logger.Debug("audio can play", "url", url)
				if err := l.element.Play(); err != nil {
					return &LoadError{Kind: LoadPlaybackRejected, URL: url, Reason: err.Error()}
				}
				return nil
			case EventError:
				l.logger.Error("audio error", "url", url, "code", ev.Code)
				return &LoadError{Kind: LoadMediaError, URL: url, Code: ev.Code}
			}
		}
	}
}

// start assigns and loads url unless ctx was already cancelled. It returns the element's form of the
// URL, which events are tagged with.
func (l *Loader) start(ctx context.Context, url string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrSuperseded, err)
	}

	if err := l.element.SetSource(url); err != nil {
		return "", &LoadError{Kind: LoadMediaError, URL: url, Code: MediaErrSrcNotSupported, Reason: err.Error()}
	}
	source := l.element.Source()

	if err := l.element.Load(); err != nil {
		return "", &LoadError{Kind: LoadMediaError, URL: url, Code: MediaErrAborted, Reason: err.Error()}
	}
	return source, nil
}
