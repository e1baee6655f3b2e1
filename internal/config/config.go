package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matheus3301/chatline/internal/chat"
	"github.com/matheus3301/chatline/internal/voice"
)

// PasswordEnv names the environment variable holding the login password.
const PasswordEnv = "CHATLINE_PASSWORD"

// Config represents the global ~/.chatline/config.toml.
type Config struct {
	DefaultSession    string  `toml:"default_session"`
	ServerURL         string  `toml:"server_url"`
	Username          string  `toml:"username"`
	MessageColor      string  `toml:"message_color"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Debug             bool    `toml:"debug"`
	Voice             Voice   `toml:"voice"`
}

// Voice configures capture.
type Voice struct {
	Command    []string `toml:"command"`
	MIME       string   `toml:"mime"`
	DebounceMS int      `toml:"debounce_ms"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultSession:    "main",
		ServerURL:         "http://localhost:5000",
		RequestsPerSecond: 10,
		Voice: Voice{
			Command:    voice.DefaultCommand,
			MIME:       "audio/wav",
			DebounceMS: int(voice.DefaultDebounce / time.Millisecond),
		},
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads path over the defaults. A missing file yields the
// defaults; a malformed one is an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.MessageColor != "" {
		if _, ok := chat.NormalizeColor(c.MessageColor); !ok {
			return fmt.Errorf("message_color %q: want #rrggbb", c.MessageColor)
		}
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if c.Voice.DebounceMS < 0 {
		return fmt.Errorf("voice.debounce_ms must not be negative")
	}
	return nil
}

// Debounce returns the voice debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Voice.DebounceMS) * time.Millisecond
}

// Password returns the login password from the environment.
func Password() string {
	return os.Getenv(PasswordEnv)
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
