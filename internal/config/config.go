// ABOUTME: Configuration loading and parsing for store-sync
// ABOUTME: Supports YAML or TOML files with ${VAR} expansion, env overrides, and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Cache backends accepted in cache.backend.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Config represents the complete store-sync configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	GitHub    GitHubConfig    `yaml:"github" toml:"github"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the listen address and the mount path of the handler
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	Path     string `yaml:"path" toml:"path"`
}

// GitHubConfig holds Gist API access settings
type GitHubConfig struct {
	Token     string  `yaml:"token" toml:"token"`
	BaseURL   string  `yaml:"base_url" toml:"base_url"`
	UserAgent string  `yaml:"user_agent" toml:"user_agent"`
	RateLimit float64 `yaml:"rate_limit" toml:"rate_limit"` // requests per second, 0 disables

	// Timeout bounds each outbound request. Zero means no timeout.
	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// CacheConfig selects where the resolved gist id is remembered
type CacheConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"`   // serve :443 with Tailscale-issued certs
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // public Funnel (implies HTTPS)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: "localhost:8080",
			Path:     "/api",
		},
		GitHub: GitHubConfig{
			BaseURL:    "https://api.github.com",
			UserAgent:  "YRGN-Store-Pages-Function",
			TimeoutRaw: "0s",
		},
		Cache: CacheConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(DataDir(), "cache.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the path to the config file.
// Priority: STORE_SYNC_CONFIG env var > XDG_CONFIG_HOME/store-sync/config.yaml > ~/.config/store-sync/config.yaml
func DefaultPath() string {
	if envPath := os.Getenv("STORE_SYNC_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "store-sync", "config.yaml")
}

// DataDir returns the store-sync data directory.
// Priority: XDG_DATA_HOME/store-sync > ~/.local/share/store-sync
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "store-sync")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file yields the defaults. Files ending in .toml are decoded as TOML,
// anything else as YAML. Environment variables in the format ${VAR_NAME} are
// expanded before decoding, and the STORE_SYNC_* overrides are applied after.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := decode(path, expandEnvVars(string(data)), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.Cache.Path = ExpandPath(cfg.Cache.Path)
	cfg.Tailscale.StateDir = ExpandPath(cfg.Tailscale.StateDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func decode(path, content string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(content, cfg)
		return err
	}
	return yaml.Unmarshal([]byte(content), cfg)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// A missing GitHub token is not a validation failure; the handler reports it per request.
func (c *Config) Validate() error {
	// HTTP address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with /, got %q", c.Server.Path)
	}

	switch c.Cache.Backend {
	case BackendSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the sqlite backend")
		}
	case BackendMemory, BackendNone:
	default:
		return fmt.Errorf("cache.backend must be one of %s, %s, %s; got %q",
			BackendSQLite, BackendMemory, BackendNone, c.Cache.Backend)
	}

	if c.GitHub.RateLimit < 0 {
		return fmt.Errorf("github.rate_limit must not be negative")
	}

	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("github.timeout must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.GitHub.TimeoutRaw == "" {
		cfg.GitHub.Timeout = 0
		return nil
	}

	d, err := time.ParseDuration(cfg.GitHub.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("parsing github.timeout %q: %w", cfg.GitHub.TimeoutRaw, err)
	}
	cfg.GitHub.Timeout = d
	return nil
}
