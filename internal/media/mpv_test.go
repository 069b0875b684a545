package media

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mstream/internal/shared"
)

func TestTrackState(t *testing.T) {
	t.Run("lifecycle events", func(t *testing.T) {
		tc := []struct {
			name string
			msg  ipcMessage
			want EventType
			ok   bool
			code int
		}{
			{name: "start-file", msg: ipcMessage{Event: "start-file"}, want: EventLoadStart, ok: true},
			{name: "file-loaded", msg: ipcMessage{Event: "file-loaded"}, want: EventReady, ok: true},
			{name: "end-file eof", msg: ipcMessage{Event: "end-file", Reason: "eof"}, want: EventEnded, ok: true},
			{name: "end-file error", msg: ipcMessage{Event: "end-file", Reason: "error", FileError: "loading failed"}, want: EventError, ok: true, code: MediaErrNetwork},
			{name: "end-file unsupported", msg: ipcMessage{Event: "end-file", Reason: "error", FileError: "unrecognized file format"}, want: EventError, ok: true, code: MediaErrSrcNotSupported},
			{name: "end-file stop", msg: ipcMessage{Event: "end-file", Reason: "stop"}},
			{name: "unrelated", msg: ipcMessage{Event: "seek"}},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				s := &trackState{paused: true}
				ev, ok := s.apply(c.msg)
				if ok != c.ok {
					t.Fatalf("expected ok=%v, got %v", c.ok, ok)
				}
				if !ok {
					return
				}
				if ev.Type != c.want {
					t.Errorf("expected %v, got %v", c.want, ev.Type)
				}
				if ev.Code != c.code {
					t.Errorf("expected code %d, got %d", c.code, ev.Code)
				}
			})
		}
	})

	t.Run("property changes", func(t *testing.T) {
		s := &trackState{paused: true}

		if _, ok := s.apply(ipcMessage{Event: "property-change", Name: "pause", Data: json.RawMessage("true")}); ok {
			t.Error("unchanged pause state should not produce an event")
		}

		ev, ok := s.apply(ipcMessage{Event: "property-change", Name: "pause", Data: json.RawMessage("false")})
		if !ok || ev.Type != EventPlay {
			t.Errorf("expected play event, got %v (%v)", ev.Type, ok)
		}

		ev, ok = s.apply(ipcMessage{Event: "property-change", Name: "duration", Data: json.RawMessage("180.5")})
		if !ok || ev.Type != EventMetadata || ev.Duration != 180500*time.Millisecond {
			t.Errorf("unexpected metadata event %+v", ev)
		}

		ev, ok = s.apply(ipcMessage{Event: "property-change", Name: "time-pos", Data: json.RawMessage("12.25")})
		if !ok || ev.Type != EventProgress || ev.CurrentTime != 12250*time.Millisecond || ev.Duration != 180500*time.Millisecond {
			t.Errorf("unexpected progress event %+v", ev)
		}

		if _, ok := s.apply(ipcMessage{Event: "property-change", Name: "time-pos", Data: json.RawMessage("null")}); ok {
			t.Error("null time-pos should be ignored")
		}

		if ev, _ := s.apply(ipcMessage{Event: "start-file"}); ev.Type != EventLoadStart || s.duration != 0 || s.position != 0 {
			t.Error("start-file should reset position and duration")
		}
	})
}

type commandLog struct {
	mu       sync.Mutex
	commands [][]any
}

func (c *commandLog) add(cmd []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd)
}

func (c *commandLog) all() [][]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]any(nil), c.commands...)
}

// fakeMPV answers IPC commands on a unix socket, writing an unrelated event line before each reply.
func fakeMPV(t *testing.T, reply func(cmd []any) ipcMessage) (string, *commandLog) {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	received := &commandLog{}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					var cmd ipcCommand
					if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
						return
					}
					received.add(cmd.Command)

					enc := json.NewEncoder(conn)
					_ = enc.Encode(ipcMessage{Event: "audio-reconfig"})
					_ = enc.Encode(reply(cmd.Command))
				}
			}(conn)
		}
	}()
	return sock, received
}

func TestIPC(t *testing.T) {
	t.Run("doSendCommand skips event lines and returns data", func(t *testing.T) {
		sock, received := fakeMPV(t, func(cmd []any) ipcMessage {
			return ipcMessage{Error: "success", Data: json.RawMessage("true")}
		})

		data, err := doSendCommand(sock, []any{"get_property", "pause"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "true" {
			t.Errorf("expected data true, got %s", data)
		}
		if cmds := received.all(); len(cmds) != 1 || cmds[0][0] != "get_property" {
			t.Errorf("unexpected commands %v", cmds)
		}
	})

	t.Run("doSendCommand surfaces mpv errors", func(t *testing.T) {
		sock, _ := fakeMPV(t, func(cmd []any) ipcMessage {
			return ipcMessage{Error: "property unavailable"}
		})

		if _, err := doSendCommand(sock, []any{"get_property", "duration"}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("MPV controls map onto IPC commands", func(t *testing.T) {
		sock, received := fakeMPV(t, func(cmd []any) ipcMessage {
			return ipcMessage{Error: "success"}
		})
		m := NewMPV(MPVOptions{Logger: shared.NewLogger(os.Stderr)})
		m.socketPath = sock

		if err := m.SetSource("http://backend/stream/a.mp3"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := m.Load(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := m.Play(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m.Paused() {
			t.Error("expected element to report playing after Play")
		}
		if err := m.SetVolume(0.5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		cmds := received.all()
		want := []string{"set_property", "loadfile", "set_property", "set_property"}
		if len(cmds) != len(want) {
			t.Fatalf("expected %d commands, got %v", len(want), cmds)
		}
		for i, name := range want {
			if cmds[i][0] != name {
				t.Errorf("command %d: expected %s, got %v", i, name, cmds[i])
			}
		}
		if cmds[1][1] != "http://backend/stream/a.mp3" {
			t.Errorf("expected loadfile target, got %v", cmds[1])
		}
		if cmds[3][2] != float64(50) {
			t.Errorf("expected volume 50, got %v", cmds[3])
		}
	})

	t.Run("Load without source fails", func(t *testing.T) {
		m := NewMPV(MPVOptions{})
		if err := m.Load(); err == nil {
			t.Error("expected error without a source")
		}
	})

	t.Run("handle tags events with the current source", func(t *testing.T) {
		m := NewMPV(MPVOptions{})
		_ = m.SetSource("http://backend/stream/a.mp3")
		events, stop := m.Subscribe()
		defer stop()

		m.handle(ipcMessage{Event: "file-loaded"})

		select {
		case ev := <-events:
			if ev.Type != EventReady || ev.Source != "http://backend/stream/a.mp3" {
				t.Errorf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("expected an event")
		}
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	t.Run("accepts http URLs", func(t *testing.T) {
		if got, err := sanitizeMediaTarget(" https://x/y "); err != nil || got != "https://x/y" {
			t.Errorf("unexpected result %q, %v", got, err)
		}
	})

	t.Run("rejects flag injection", func(t *testing.T) {
		if _, err := sanitizeMediaTarget("--script=evil.lua"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects unknown schemes", func(t *testing.T) {
		if _, err := sanitizeMediaTarget("ytdl://abc"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("accepts existing local paths", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.mp3")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := sanitizeMediaTarget(path); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("rejects empty targets", func(t *testing.T) {
		if _, err := sanitizeMediaTarget("  "); err == nil {
			t.Error("expected error")
		}
	})
}
