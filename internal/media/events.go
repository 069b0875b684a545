package media

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// observed lists the properties mpv reports through property-change events.
var observed = []string{"pause", "time-pos", "duration"}

// trackState is the part of mpv's state the event mapping depends on.
type trackState struct {
	paused   bool
	position time.Duration
	duration time.Duration
}

// apply folds msg into s and returns the element event it corresponds to, if any.
func (s *trackState) apply(msg ipcMessage) (Event, bool) {
	switch msg.Event {
	case "start-file":
		s.position, s.duration = 0, 0
		return Event{Type: EventLoadStart}, true
	case "file-loaded":
		return Event{Type: EventReady}, true
	case "end-file":
		switch msg.Reason {
		case "eof":
			return Event{Type: EventEnded, CurrentTime: s.position, Duration: s.duration}, true
		case "error":
			return Event{Type: EventError, Code: errorCode(msg.FileError)}, true
		}
		return Event{}, false
	case "property-change":
		return s.applyProperty(msg.Name, msg.Data)
	}
	return Event{}, false
}

func (s *trackState) applyProperty(name string, data json.RawMessage) (Event, bool) {
	switch name {
	case "pause":
		var paused bool
		if json.Unmarshal(data, &paused) != nil || paused == s.paused {
			return Event{}, false
		}
		s.paused = paused
		if paused {
			return Event{Type: EventPause}, true
		}
		return Event{Type: EventPlay}, true
	case "time-pos":
		var secs *float64
		if json.Unmarshal(data, &secs) != nil || secs == nil {
			return Event{}, false
		}
		s.position = seconds(*secs)
		return Event{Type: EventProgress, CurrentTime: s.position, Duration: s.duration}, true
	case "duration":
		var secs *float64
		if json.Unmarshal(data, &secs) != nil || secs == nil {
			return Event{}, false
		}
		s.duration = seconds(*secs)
		return Event{Type: EventMetadata, Duration: s.duration}, true
	}
	return Event{}, false
}

// errorCode maps mpv's file_error strings onto media error codes.
func errorCode(fileError string) int {
	switch fileError {
	case "unrecognized file format", "no audio or video data played":
		return MediaErrSrcNotSupported
	case "loading failed":
		return MediaErrNetwork
	case "aborted":
		return MediaErrAborted
	}
	return MediaErrDecode
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// listen opens the persistent event connection, registers observers on it and starts the read loop.
// mpv only reports property changes to the connection that asked for them.
func (m *MPV) listen() error {
	conn, err := net.Dial("unix", m.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		if err := writeCommand(conn, []any{"observe_property", i + 1, name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	m.conn = conn
	go m.readLoop(conn)
	m.logger.Debug("mpv event listener started", "socket", m.socketPath, "observing", observed)
	return nil
}

func (m *MPV) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil || msg.Event == "" {
			continue
		}
		m.handle(msg)
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-m.closing:
		default:
			m.logger.Warn("mpv event listener stopped", "error", err)
		}
	}
}

func (m *MPV) handle(msg ipcMessage) {
	m.mu.Lock()
	ev, ok := m.state.apply(msg)
	ev.Source = m.source
	m.mu.Unlock()

	if ok {
		m.events.Emit(ev)
	}
}
