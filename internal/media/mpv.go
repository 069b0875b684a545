package media

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mstream/internal/shared"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	quitGracePeriod   = 3 * time.Second
)

// MPVOptions configures an [MPV] element.
type MPVOptions struct {
	Binary    string
	SocketDir string
	Logger    *log.Logger
}

// MPV is an [Element] backed by an idle mpv process controlled over JSON IPC.
type MPV struct {
	binary     string
	socketPath string
	logger     *log.Logger

	cmd     *exec.Cmd
	exited  chan struct{}
	closing chan struct{}
	conn    net.Conn
	ipcMu   sync.Mutex

	mu     sync.RWMutex
	source string
	state  trackState

	events    *Emitter
	closeOnce sync.Once
}

// NewMPV creates an element; call [MPV.Start] before use.
func NewMPV(opts MPVOptions) *MPV {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if opts.SocketDir == "" {
		opts.SocketDir = os.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &MPV{
		binary:     opts.Binary,
		socketPath: filepath.Join(opts.SocketDir, fmt.Sprintf("mstream-%s.sock", shared.GenerateID()[:8])),
		logger:     opts.Logger,
		exited:     make(chan struct{}),
		closing:    make(chan struct{}),
		state:      trackState{paused: true},
		events:     NewEmitter(defaultEventBuffer),
	}
}

// Start spawns mpv in idle mode and attaches the event listener.
func (m *MPV) Start(ctx context.Context) error {
	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--really-quiet",
		"--pause",
		"--input-ipc-server=" + m.socketPath,
	}

	m.cmd = exec.Command(m.binary, args...)
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(ctx); err != nil {
		m.kill()
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	if err := m.listen(); err != nil {
		m.kill()
		return err
	}

	m.logger.Info("mpv started", "pid", m.cmd.Process.Pid, "socket", m.socketPath)
	return nil
}

// Exited is closed when the mpv process ends.
func (m *MPV) Exited() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		if conn, err := net.Dial("unix", m.socketPath); err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// SetSource records the URL the next [MPV.Load] will open.
func (m *MPV) SetSource(target string) error {
	safe, err := sanitizeMediaTarget(target)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.source = safe
	m.mu.Unlock()
	return nil
}

func (m *MPV) Source() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.source
}

// Load opens the current source paused; file-loaded arrives as [EventReady].
func (m *MPV) Load() error {
	source := m.Source()
	if source == "" {
		return fmt.Errorf("no source set")
	}

	if err := m.setPaused(true); err != nil {
		return err
	}
	_, err := m.sendCommand("loadfile", source, "replace")
	return err
}

func (m *MPV) Play() error {
	return m.setPaused(false)
}

func (m *MPV) Pause() error {
	return m.setPaused(true)
}

func (m *MPV) setPaused(paused bool) error {
	if _, err := m.sendCommand("set_property", "pause", paused); err != nil {
		return err
	}

	m.mu.Lock()
	m.state.paused = paused
	m.mu.Unlock()
	return nil
}

func (m *MPV) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.paused
}

func (m *MPV) Seek(position time.Duration) error {
	_, err := m.sendCommand("seek", position.Seconds(), "absolute")
	return err
}

// SetVolume takes a fraction in [0, 1].
func (m *MPV) SetVolume(fraction float64) error {
	fraction = min(max(fraction, 0), 1)
	_, err := m.sendCommand("set_property", "volume", fraction*100)
	return err
}

func (m *MPV) SetMuted(muted bool) error {
	_, err := m.sendCommand("set_property", "mute", muted)
	return err
}

func (m *MPV) Subscribe() (<-chan Event, func()) {
	return m.events.Subscribe()
}

// Close asks mpv to quit, kills it after a grace period and removes the socket.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		close(m.closing)
		if m.conn != nil {
			m.conn.Close()
		}

		if m.cmd != nil && m.cmd.Process != nil {
			_, _ = doSendCommand(m.socketPath, []any{"quit"})
			select {
			case <-m.exited:
			case <-time.After(quitGracePeriod):
				m.logger.Warn("mpv did not quit, killing")
				m.kill()
			}
		}

		_ = os.Remove(m.socketPath)
		m.events.Close()
	})
	return nil
}

func (m *MPV) kill() {
	if m.cmd == nil || m.cmd.Process == nil {
		return
	}
	select {
	case <-m.exited:
	default:
		_ = m.cmd.Process.Kill()
	}
}

// sanitizeMediaTarget rejects targets mpv would parse as options and anything that is neither an
// http(s) URL nor an existing local path.
func sanitizeMediaTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("%w: empty media target", shared.ErrInvalidInput)
	}
	if strings.HasPrefix(target, "-") {
		return "", fmt.Errorf("%w: media target %q looks like a flag", shared.ErrInvalidInput, target)
	}

	if u, err := url.Parse(target); err == nil && u.Scheme != "" {
		switch u.Scheme {
		case "http", "https":
			return target, nil
		case "file":
			return target, nil
		}
		if len(u.Scheme) > 1 {
			return "", fmt.Errorf("%w: unsupported scheme %q", shared.ErrInvalidInput, u.Scheme)
		}
	}

	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return target, nil
}
