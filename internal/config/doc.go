// Package config handles configuration loading for store-sync.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion, then overlaid with a small set of environment overrides. A missing
// file is not an error: the defaults plus the environment are enough to run.
//
// # Configuration File
//
// Location (in order):
//
//  1. Path from STORE_SYNC_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/store-sync/config.yaml
//  3. ~/.config/store-sync/config.yaml
//
// Files ending in .toml are decoded as TOML; everything else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	github:
//	  token: "${GITHUB_TOKEN}"
//
// Unset variables expand to the empty string.
//
// # Environment Overrides
//
// These variables win over the file when set and non-empty:
//
//	GITHUB_TOKEN                github.token
//	STORE_SYNC_HTTP_ADDR        server.http_addr
//	STORE_SYNC_CACHE_BACKEND    cache.backend
//	STORE_SYNC_DB_PATH          cache.path
//	STORE_SYNC_GITHUB_BASE_URL  github.base_url
//	STORE_SYNC_LOG_LEVEL        logging.level
//
// # Configuration Sections
//
//	server:
//	  http_addr: "localhost:8080"
//	  path: "/api"                 # where the handler is mounted
//
//	github:
//	  token: "${GITHUB_TOKEN}"
//	  base_url: "https://api.github.com"
//	  user_agent: "YRGN-Store-Pages-Function"
//	  timeout: "0s"                # per request, 0 = none
//	  rate_limit: 0                # requests per second, 0 = unlimited
//
//	cache:
//	  backend: "sqlite"            # sqlite, memory, none
//	  path: "~/.local/share/store-sync/cache.db"
//
//	tailscale:
//	  enabled: false
//	  hostname: "store-sync"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: false
//	  funnel: false
//
//	logging:
//	  level: "info"                # debug, info, warn, error
//	  format: "text"               # text, json
//
// # Validation
//
// Load validates:
//
//   - server.http_addr present unless tailscale is enabled
//   - tailscale.hostname present when tailscale is enabled
//   - server.path starts with "/"
//   - cache.backend is a known backend
//   - github.timeout parses and github.rate_limit is not negative
//
// A missing GitHub token is accepted; requests report it instead.
//
// # Usage
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
