// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, env overrides, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every override so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GITHUB_TOKEN",
		"STORE_SYNC_HTTP_ADDR",
		"STORE_SYNC_CACHE_BACKEND",
		"STORE_SYNC_DB_PATH",
		"STORE_SYNC_GITHUB_BASE_URL",
		"STORE_SYNC_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "0.0.0.0:9090"
  path: "/functions/api"

github:
  token: "ghp-test"
  base_url: "https://github.example.com/api/v3"
  user_agent: "custom-agent"
  timeout: "15s"
  rate_limit: 2.5

cache:
  backend: "sqlite"
  path: "./cache.db"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9090")
	}
	if cfg.Server.Path != "/functions/api" {
		t.Errorf("Server.Path = %q, want %q", cfg.Server.Path, "/functions/api")
	}
	if cfg.GitHub.Token != "ghp-test" {
		t.Errorf("GitHub.Token = %q, want %q", cfg.GitHub.Token, "ghp-test")
	}
	if cfg.GitHub.BaseURL != "https://github.example.com/api/v3" {
		t.Errorf("GitHub.BaseURL = %q", cfg.GitHub.BaseURL)
	}
	if cfg.GitHub.UserAgent != "custom-agent" {
		t.Errorf("GitHub.UserAgent = %q, want %q", cfg.GitHub.UserAgent, "custom-agent")
	}
	if cfg.GitHub.Timeout != 15*time.Second {
		t.Errorf("GitHub.Timeout = %v, want %v", cfg.GitHub.Timeout, 15*time.Second)
	}
	if cfg.GitHub.RateLimit != 2.5 {
		t.Errorf("GitHub.RateLimit = %v, want 2.5", cfg.GitHub.RateLimit)
	}
	if cfg.Cache.Backend != BackendSQLite {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, BackendSQLite)
	}
	if cfg.Cache.Path != "./cache.db" {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, "./cache.db")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_DATA_HOME", "/data")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "warn"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Logging.Format, "text")
	}
	if cfg.Server.HTTPAddr != "localhost:8080" {
		t.Errorf("Server.HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.Server.Path != "/api" {
		t.Errorf("Server.Path = %q, want default /api", cfg.Server.Path)
	}
	if cfg.GitHub.UserAgent != "YRGN-Store-Pages-Function" {
		t.Errorf("GitHub.UserAgent = %q, want default", cfg.GitHub.UserAgent)
	}
	if cfg.Cache.Path != "/data/store-sync/cache.db" {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, "/data/store-sync/cache.db")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "localhost:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "localhost:8080")
	}
	if cfg.Cache.Backend != BackendSQLite {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, BackendSQLite)
	}
	if cfg.GitHub.Token != "" {
		t.Errorf("GitHub.Token = %q, want empty", cfg.GitHub.Token)
	}
	if cfg.GitHub.Timeout != 0 {
		t.Errorf("GitHub.Timeout = %v, want 0", cfg.GitHub.Timeout)
	}
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.toml", `
[server]
http_addr = "127.0.0.1:7070"
path = "/api"

[github]
token = "toml-token"
timeout = "3s"

[cache]
backend = "memory"

[tailscale]
enabled = false
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:7070" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:7070")
	}
	if cfg.GitHub.Token != "toml-token" {
		t.Errorf("GitHub.Token = %q, want %q", cfg.GitHub.Token, "toml-token")
	}
	if cfg.GitHub.Timeout != 3*time.Second {
		t.Errorf("GitHub.Timeout = %v, want 3s", cfg.GitHub.Timeout)
	}
	if cfg.Cache.Backend != BackendMemory {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, BackendMemory)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_GIST_TOKEN", "token-from-env")
	t.Setenv("TEST_TS_KEY", "tskey-from-env")

	configPath := writeConfig(t, "config.yaml", `
github:
  token: "${TEST_GIST_TOKEN}"

tailscale:
  enabled: true
  hostname: "store"
  auth_key: "${TEST_TS_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.Token != "token-from-env" {
		t.Errorf("GitHub.Token = %q, want %q", cfg.GitHub.Token, "token-from-env")
	}
	if cfg.Tailscale.AuthKey != "tskey-from-env" {
		t.Errorf("Tailscale.AuthKey = %q, want %q", cfg.Tailscale.AuthKey, "tskey-from-env")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, "config.yaml", `
github:
  token: "${UNSET_VAR_FOR_TEST}"
  user_agent: "literal-agent"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.Token != "" {
		t.Errorf("GitHub.Token = %q, want empty string for unset var", cfg.GitHub.Token)
	}
	if cfg.GitHub.UserAgent != "literal-agent" {
		t.Errorf("GitHub.UserAgent = %q, want %q", cfg.GitHub.UserAgent, "literal-agent")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("STORE_SYNC_HTTP_ADDR", "0.0.0.0:1234")
	t.Setenv("STORE_SYNC_CACHE_BACKEND", "memory")
	t.Setenv("STORE_SYNC_DB_PATH", "/tmp/override.db")
	t.Setenv("STORE_SYNC_GITHUB_BASE_URL", "http://localhost:9999")
	t.Setenv("STORE_SYNC_LOG_LEVEL", "error")

	configPath := writeConfig(t, "config.yaml", `
server:
  http_addr: "localhost:8080"
github:
  token: "file-token"
  base_url: "https://api.github.com"
cache:
  backend: "sqlite"
  path: "./file.db"
logging:
  level: "info"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.Token != "env-token" {
		t.Errorf("GitHub.Token = %q, want %q", cfg.GitHub.Token, "env-token")
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:1234" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:1234")
	}
	if cfg.Cache.Backend != BackendMemory {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, BackendMemory)
	}
	if cfg.Cache.Path != "/tmp/override.db" {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, "/tmp/override.db")
	}
	if cfg.GitHub.BaseURL != "http://localhost:9999" {
		t.Errorf("GitHub.BaseURL = %q, want %q", cfg.GitHub.BaseURL, "http://localhost:9999")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "error")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", `
github:
  timeout: "soon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "github.timeout") {
		t.Errorf("error = %q, want mention of github.timeout", err.Error())
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "config.yaml", "server: [unclosed")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("error = %q, want parsing config file prefix", err.Error())
	}
}

func TestLoad_ExpandsHomeInCachePath(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := writeConfig(t, "config.yaml", `
cache:
  path: "~/store/cache.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := filepath.Join(home, "store", "cache.db")
	if cfg.Cache.Path != want {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing http addr",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "" },
			wantErr: "server.http_addr is required",
		},
		{
			name: "tailscale without http addr",
			mutate: func(c *Config) {
				c.Server.HTTPAddr = ""
				c.Tailscale.Enabled = true
				c.Tailscale.Hostname = "store"
			},
		},
		{
			name:    "tailscale without hostname",
			mutate:  func(c *Config) { c.Tailscale.Enabled = true },
			wantErr: "tailscale.hostname is required",
		},
		{
			name:    "relative path",
			mutate:  func(c *Config) { c.Server.Path = "api" },
			wantErr: "server.path must start with /",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Cache.Backend = "redis" },
			wantErr: "cache.backend must be one of",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Cache.Backend = BackendSQLite
				c.Cache.Path = ""
			},
			wantErr: "cache.path is required",
		},
		{
			name: "memory without path",
			mutate: func(c *Config) {
				c.Cache.Backend = BackendMemory
				c.Cache.Path = ""
			},
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.GitHub.RateLimit = -1 },
			wantErr: "github.rate_limit must not be negative",
		},
		{
			name:   "missing token is accepted",
			mutate: func(c *Config) { c.GitHub.Token = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("STORE_SYNC_CONFIG", "/etc/store-sync.toml")
		if got := DefaultPath(); got != "/etc/store-sync.toml" {
			t.Errorf("DefaultPath() = %q, want %q", got, "/etc/store-sync.toml")
		}
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("STORE_SYNC_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		want := filepath.Join("/xdg", "store-sync", "config.yaml")
		if got := DefaultPath(); got != want {
			t.Errorf("DefaultPath() = %q, want %q", got, want)
		}
	})
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		in   string
		want string
	}{
		{in: "~/cache.db", want: "/home/tester/cache.db"},
		{in: "~", want: "/home/tester"},
		{in: "/abs/cache.db", want: "/abs/cache.db"},
		{in: "./rel.db", want: "./rel.db"},
		{in: ":memory:", want: ":memory:"},
		{in: "~other/cache.db", want: "~other/cache.db"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
