package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "zero", in: 0, want: "0:00"},
		{name: "seconds are padded", in: 7 * time.Second, want: "0:07"},
		{name: "minutes", in: 3*time.Minute + 25*time.Second, want: "3:25"},
		{name: "fractions are truncated", in: 61*time.Second + 900*time.Millisecond, want: "1:01"},
		{name: "long tracks keep counting minutes", in: 75 * time.Minute, want: "75:00"},
		{name: "negative clamps to zero", in: -time.Second, want: "0:00"},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := FormatDuration(c.in); got != c.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("DEBUG"); got != log.DebugLevel {
			t.Errorf("expected debug level, got %v", got)
		}
		if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("expected fallback to info, got %v", got)
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := WithLogger(NewLogger(buf), "component", "player")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=player") {
			t.Errorf("expected key/value in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mstream.log")
		logger, f, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer f.Close()

		logger.Info("written to file")
		if err := f.Sync(); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct ids")
		}
	})
}
