// ABOUTME: Environment overrides for store-sync configuration
// ABOUTME: Parses GITHUB_TOKEN and STORE_SYNC_* variables with caarlos0/env

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides are the environment variables that win over the config file.
// Empty values leave the file setting in place.
type envOverrides struct {
	Token         string `env:"GITHUB_TOKEN"`
	HTTPAddr      string `env:"STORE_SYNC_HTTP_ADDR"`
	CacheBackend  string `env:"STORE_SYNC_CACHE_BACKEND"`
	DBPath        string `env:"STORE_SYNC_DB_PATH"`
	GitHubBaseURL string `env:"STORE_SYNC_GITHUB_BASE_URL"`
	LogLevel      string `env:"STORE_SYNC_LOG_LEVEL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}

	override(&cfg.GitHub.Token, o.Token)
	override(&cfg.Server.HTTPAddr, o.HTTPAddr)
	override(&cfg.Cache.Backend, o.CacheBackend)
	override(&cfg.Cache.Path, o.DBPath)
	override(&cfg.GitHub.BaseURL, o.GitHubBaseURL)
	override(&cfg.Logging.Level, o.LogLevel)
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
