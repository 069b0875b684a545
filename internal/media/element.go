package media

import (
	"sync"
	"time"
)

// EventType enumerates element lifecycle events.
type EventType int

const (
	EventLoadStart EventType = iota
	EventReady
	EventError
	EventPlay
	EventPause
	EventProgress
	EventMetadata
	EventEnded
)

func (t EventType) String() string {
	switch t {
	case EventLoadStart:
		return "loadstart"
	case EventReady:
		return "canplay"
	case EventError:
		return "error"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventProgress:
		return "timeupdate"
	case EventMetadata:
		return "loadedmetadata"
	case EventEnded:
		return "ended"
	}
	return "unknown"
}

// Media error codes carried by [EventError].
const (
	MediaErrAborted         = 1
	MediaErrNetwork         = 2
	MediaErrDecode          = 3
	MediaErrSrcNotSupported = 4
)

// Event is one lifecycle notification.
type Event struct {
	Type        EventType
	Source      string
	Code        int
	CurrentTime time.Duration
	Duration    time.Duration
}

// Element is the media engine surface the player drives.
type Element interface {
	SetSource(url string) error
	Source() string
	Load() error
	Play() error
	Pause() error
	Paused() bool
	Seek(position time.Duration) error
	SetVolume(fraction float64) error
	SetMuted(muted bool) error
	// Subscribe returns a channel of events and a func that ends the subscription.
	Subscribe() (<-chan Event, func())
	Close() error
}

const defaultEventBuffer = 64

// Emitter fans events out to subscribers without blocking the producer. A subscriber that falls a
// full buffer behind loses events.
type Emitter struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	buffer int
	closed bool
}

// NewEmitter creates an emitter whose subscriptions buffer up to buffer events.
func NewEmitter(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Emitter{subs: make(map[int]chan Event), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned func is idempotent and closes the channel.
func (e *Emitter) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Event, e.buffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.next
	e.next++
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
}

// Emit delivers ev to every subscriber.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (e *Emitter) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Close ends every subscription; later subscriptions are closed immediately.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
