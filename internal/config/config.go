// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only, so a config file can never execute code.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"streamscout/internal/httputil"
)

const appName = "streamscout"

// Duration is a time.Duration that reads TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all application configuration.
type Config struct {
	Base           string   `toml:"base"`
	Provider       string   `toml:"provider"`
	Player         string   `toml:"player"`
	Listen         string   `toml:"listen"`
	FetchTimeout   Duration `toml:"fetch_timeout"`
	ResolveTimeout Duration `toml:"resolve_timeout"`
	IframeDepth    int      `toml:"iframe_depth"`
	UserAgent      string   `toml:"user_agent"`
	RateLimit      int      `toml:"rate_limit"` // requests per minute per client IP, 0 disables
	History        bool     `toml:"history"`
	Debug          bool     `toml:"debug"`
}

// MaxIframeDepth bounds the configurable iframe recursion budget.
const MaxIframeDepth = 5

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:           "https://vidsrc.to",
		Provider:       "vidsrc",
		Player:         "mpv",
		Listen:         ":8080",
		FetchTimeout:   Duration{30 * time.Second},
		ResolveTimeout: Duration{90 * time.Second},
		IframeDepth:    1,
		RateLimit:      60,
		History:        true,
		Debug:          false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at the default path and merges it with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path and merges it with defaults.
// A missing file yields defaults. Environment overrides are applied last.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides the listen address from STREAMSCOUT_LISTEN, or from
// PORT when only that is set.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("STREAMSCOUT_LISTEN")); v != "" {
		c.Listen = v
		return
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		c.Listen = ":" + v
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Base == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if err := httputil.ValidateURL(c.Base); err != nil {
		return fmt.Errorf("base URL: %w", err)
	}

	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if c.FetchTimeout.Duration <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.ResolveTimeout.Duration < 0 {
		return fmt.Errorf("resolve_timeout cannot be negative, got %s", c.ResolveTimeout)
	}

	if c.IframeDepth < 0 || c.IframeDepth > MaxIframeDepth {
		return fmt.Errorf("iframe_depth %d out of range (0-%d)", c.IframeDepth, MaxIframeDepth)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %d", c.RateLimit)
	}

	return nil
}

// HistoryPath returns the path to the resolution log database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "history.db"), nil
}
