package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment override, e.g. MSTREAM_BACKEND_BASE_URL.
const EnvPrefix = "MSTREAM_"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend" envPrefix:"BACKEND_"`
	Sync     SyncConfig     `toml:"sync" envPrefix:"SYNC_"`
	Player   PlayerConfig   `toml:"player" envPrefix:"PLAYER_"`
	Database DatabaseConfig `toml:"database" envPrefix:"DATABASE_"`
	Relay    RelayConfig    `toml:"relay" envPrefix:"RELAY_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

// BackendConfig points at the HTTP backend serving search, listings and streams.
type BackendConfig struct {
	BaseURL string        `toml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// SyncConfig contains real-time channel settings.
type SyncConfig struct {
	Enabled           bool          `toml:"enabled" env:"ENABLED"`
	URL               string        `toml:"url" env:"URL"`
	ReconnectInterval time.Duration `toml:"reconnect_interval" env:"RECONNECT_INTERVAL"`
}

// PlayerConfig configures the mpv media engine.
type PlayerConfig struct {
	Binary    string `toml:"binary" env:"BINARY"`
	SocketDir string `toml:"socket_dir" env:"SOCKET_DIR"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// RelayConfig contains settings for the rebroadcast server.
type RelayConfig struct {
	Host           string   `toml:"host" env:"HOST"`
	Port           int      `toml:"port" env:"PORT"`
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// LogConfig controls log verbosity and the TUI log file.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}

// Addr is the relay listen address.
func (r RelayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ResolveConfig loads path when it exists (defaults otherwise), applies MSTREAM_* environment
// overrides and validates the result.
func ResolveConfig(path string) (*Config, error) {
	var config *Config
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		config = DefaultConfig()
	} else {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overlays environment variables onto c. Unset variables leave fields untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("%w: backend.base_url is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url %q is not an absolute URL", ErrInvalidConfig, c.Backend.BaseURL)
	}
	if c.Sync.Enabled && c.Sync.URL == "" {
		return fmt.Errorf("%w: sync.url is required when sync is enabled", ErrInvalidConfig)
	}
	if c.Relay.Port < 0 || c.Relay.Port > 65535 {
		return fmt.Errorf("%w: relay.port %d out of range", ErrInvalidConfig, c.Relay.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
