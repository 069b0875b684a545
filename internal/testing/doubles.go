package testing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/mstream/internal/media"
	"github.com/desertthunder/mstream/internal/models"
)

// MockElement is a scriptable [media.Element]. OnLoad runs after every Load and decides which
// lifecycle events follow; the default answers with loadstart then canplay.
type MockElement struct {
	mu       sync.Mutex
	source   string
	paused   bool
	volume   float64
	muted    bool
	position time.Duration
	loads    []string
	plays    int
	pauses   int

	PlayErr error
	OnLoad  func(m *MockElement, url string)

	events *media.Emitter
}

func NewMockElement() *MockElement {
	return &MockElement{paused: true, volume: 1, OnLoad: ReadyOnLoad, events: media.NewEmitter(64)}
}

// ReadyOnLoad makes every load succeed.
func ReadyOnLoad(m *MockElement, url string) {
	m.EmitFor(url, media.EventLoadStart, 0)
	m.EmitFor(url, media.EventReady, 0)
}

// SilentOnLoad never answers, leaving the load to time out or be superseded.
func SilentOnLoad(*MockElement, string) {}

// ErrorOnLoad fails every load with code.
func ErrorOnLoad(code int) func(*MockElement, string) {
	return func(m *MockElement, url string) { m.EmitFor(url, media.EventError, code) }
}

// FailURLs fails loads whose URL contains any of the fragments and readies the rest.
func FailURLs(code int, fragments ...string) func(*MockElement, string) {
	return func(m *MockElement, url string) {
		for _, f := range fragments {
			if strings.Contains(url, f) {
				m.EmitFor(url, media.EventError, code)
				return
			}
		}
		ReadyOnLoad(m, url)
	}
}

// EmitFor emits an event tagged with url.
func (m *MockElement) EmitFor(url string, t media.EventType, code int) {
	m.events.Emit(media.Event{Type: t, Source: url, Code: code})
}

// Emit emits ev tagged with the current source.
func (m *MockElement) Emit(ev media.Event) {
	ev.Source = m.Source()
	m.events.Emit(ev)
}

func (m *MockElement) SetSource(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = url
	return nil
}

func (m *MockElement) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *MockElement) Load() error {
	m.mu.Lock()
	url := m.source
	m.loads = append(m.loads, url)
	m.paused = true
	onLoad := m.OnLoad
	m.mu.Unlock()

	if onLoad != nil {
		onLoad(m, url)
	}
	return nil
}

func (m *MockElement) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.paused = false
	return nil
}

func (m *MockElement) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	m.paused = true
	return nil
}

func (m *MockElement) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MockElement) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = position
	return nil
}

func (m *MockElement) SetVolume(fraction float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = fraction
	return nil
}

func (m *MockElement) SetMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	return nil
}

func (m *MockElement) Subscribe() (<-chan media.Event, func()) {
	return m.events.Subscribe()
}

func (m *MockElement) Close() error {
	m.events.Close()
	return nil
}

// Loads returns every URL passed to Load, in order.
func (m *MockElement) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

func (m *MockElement) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

func (m *MockElement) Pauses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *MockElement) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockElement) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *MockElement) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// MockBackend is a test double for the player's backend dependency.
type MockBackend struct {
	mu       sync.Mutex
	probes   []string
	resolves []string

	Base       string
	ProbeErr   error
	ResolveURL string
	ResolveErr error
}

func (b *MockBackend) AbsoluteURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return b.Base + path
}

func (b *MockBackend) ProbeStream(ctx context.Context, videoID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probes = append(b.probes, videoID)
	return b.ProbeErr
}

func (b *MockBackend) ResolveAudio(ctx context.Context, videoID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolves = append(b.resolves, videoID)
	return b.ResolveURL, b.ResolveErr
}

func (b *MockBackend) Probes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.probes...)
}

func (b *MockBackend) Resolves() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.resolves...)
}

// RecordingBroadcaster records every broadcast sync event.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events []models.SyncEvent
	Err    error
}

func (r *RecordingBroadcaster) Broadcast(ctx context.Context, ev models.SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *RecordingBroadcaster) Events() []models.SyncEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SyncEvent(nil), r.events...)
}

// MemorySettings keeps the volume setting in memory.
type MemorySettings struct {
	mu     sync.Mutex
	volume float64
	stored bool
	writes int
}

func NewMemorySettings(volume float64) *MemorySettings {
	return &MemorySettings{volume: volume, stored: true}
}

func (s *MemorySettings) Volume() (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, s.stored, nil
}

func (s *MemorySettings) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume, s.stored = v, true
	s.writes++
	return nil
}

func (s *MemorySettings) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
