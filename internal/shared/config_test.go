package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./mstream.db" {
			t.Errorf("expected database path ./mstream.db, got %s", config.Database.Path)
		}

		if config.Backend.BaseURL != "http://localhost:8000" {
			t.Errorf("expected backend base URL http://localhost:8000, got %s", config.Backend.BaseURL)
		}

		if config.Backend.Timeout != 15*time.Second {
			t.Errorf("expected backend timeout 15s, got %v", config.Backend.Timeout)
		}

		if config.Relay.Port != 8765 {
			t.Errorf("expected relay port 8765, got %d", config.Relay.Port)
		}

		if !config.Sync.Enabled {
			t.Error("expected sync to be enabled by default")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[backend]
base_url = "http://music.local:9000"

[relay]
host = "0.0.0.0"
port = 9999
allowed_origins = ["http://music.local"]
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.BaseURL != "http://music.local:9000" {
			t.Errorf("expected base URL http://music.local:9000, got %s", config.Backend.BaseURL)
		}

		if config.Relay.Addr() != "0.0.0.0:9999" {
			t.Errorf("expected relay addr 0.0.0.0:9999, got %s", config.Relay.Addr())
		}

		if len(config.Relay.AllowedOrigins) != 1 || config.Relay.AllowedOrigins[0] != "http://music.local" {
			t.Errorf("unexpected allowed origins %v", config.Relay.AllowedOrigins)
		}

		if config.Database.Path != "./mstream.db" {
			t.Errorf("expected missing keys to keep defaults, got database path %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig rejects malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[backend\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("ResolveConfig", func(t *testing.T) {
		t.Run("falls back to defaults when file is missing", func(t *testing.T) {
			config, err := ResolveConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Player.Binary != "mpv" {
				t.Errorf("expected mpv binary, got %s", config.Player.Binary)
			}
		})

		t.Run("applies environment overrides", func(t *testing.T) {
			t.Setenv("MSTREAM_BACKEND_BASE_URL", "http://override:8000")
			t.Setenv("MSTREAM_SYNC_ENABLED", "false")
			t.Setenv("MSTREAM_RELAY_ALLOWED_ORIGINS", "http://a,http://b")
			t.Setenv("MSTREAM_SYNC_RECONNECT_INTERVAL", "5s")

			config, err := ResolveConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Backend.BaseURL != "http://override:8000" {
				t.Errorf("expected overridden base URL, got %s", config.Backend.BaseURL)
			}
			if config.Sync.Enabled {
				t.Error("expected sync to be disabled by env")
			}
			if config.Sync.ReconnectInterval != 5*time.Second {
				t.Errorf("expected reconnect interval 5s, got %v", config.Sync.ReconnectInterval)
			}
			if len(config.Relay.AllowedOrigins) != 2 {
				t.Errorf("expected two origins, got %v", config.Relay.AllowedOrigins)
			}
		})

		t.Run("rejects invalid base URL", func(t *testing.T) {
			t.Setenv("MSTREAM_BACKEND_BASE_URL", "not a url")

			_, err := ResolveConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}
