// ABOUTME: Entry point for the store-sync server and its operator commands
// ABOUTME: Serves the product list proxy and manages the cached gist id

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/store-sync/internal/config"
	"github.com/2389/store-sync/internal/server"
	"github.com/2389/store-sync/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _                                            
 ___| |_ ___  _ __ ___       ___ _   _ _ __   ___ 
/ __| __/ _ \| '__/ _ \_____/ __| | | | '_ \ / __|
\__ \ || (_) | | |  __/_____\__ \ |_| | | | | (__ 
|___/\__\___/|_|  \___|     |___/\__, |_| |_|\___|
                                 |___/            
`

func usage() {
	fmt.Println("Usage: store-sync <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve              Start the server")
	fmt.Println("  init               Create a new config file interactively")
	fmt.Println("  health             Check server health")
	fmt.Println("  cache show         Print the cached gist id")
	fmt.Println("  cache set <id>     Point the store at an existing gist")
	fmt.Println("  cache clear        Forget the cached gist id")
	fmt.Println("  version            Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// A missing .env is fine
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(os.Stdin)
	case "health":
		err = runHealth(ctx)
	case "cache":
		err = runCache(ctx, os.Args[2:], os.Stdout)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := config.DefaultPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s%s\n", cfg.Server.HTTPAddr, cfg.Server.Path)
	green.Print("    ▶ ")
	fmt.Printf("Cache:     %s", cfg.Cache.Backend)
	if cfg.Cache.Backend == config.BackendSQLite {
		gray.Printf(" (%s)", cfg.Cache.Path)
	}
	fmt.Println()
	if cfg.GitHub.Token == "" {
		yellow.Print("    ! ")
		fmt.Println("GITHUB_TOKEN is not set")
	}

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting store-sync",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"path", cfg.Server.Path,
		"cache", cfg.Cache.Backend,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health/ready", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Println("healthy")
	return nil
}

// runCache inspects or edits the persisted gist id. Only the sqlite backend
// outlives the server process, so the other backends are rejected.
func runCache(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("cache requires a subcommand: show, set, clear")
	}

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Cache.Backend != config.BackendSQLite {
		return fmt.Errorf("cache commands need the sqlite backend, configured backend is %q", cfg.Cache.Backend)
	}

	s, err := server.OpenStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer s.Close()

	return cacheCommand(ctx, s, args, out)
}

func cacheCommand(ctx context.Context, s store.Store, args []string, out io.Writer) error {
	switch args[0] {
	case "show":
		id, ok, err := s.Lookup(ctx, store.GistIDKey)
		if err != nil {
			return fmt.Errorf("reading cache: %w", err)
		}
		if !ok {
			fmt.Fprintln(out, "no gist id cached")
			return nil
		}
		fmt.Fprintln(out, id)
		return nil

	case "set":
		if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
			return errors.New("usage: store-sync cache set <gist-id>")
		}
		id := strings.TrimSpace(args[1])
		if err := s.Store(ctx, store.GistIDKey, id); err != nil {
			return fmt.Errorf("writing cache: %w", err)
		}
		fmt.Fprintf(out, "cached gist id %s\n", id)
		return nil

	case "clear":
		err := s.Delete(ctx, store.GistIDKey)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(out, "no gist id cached")
			return nil
		}
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(out, "cleared cached gist id")
		return nil

	default:
		return fmt.Errorf("unknown cache subcommand: %s", args[0])
	}
}

func runInit(in io.Reader) error {
	reader := bufio.NewReader(in)

	fmt.Println("store-sync configuration setup")
	fmt.Println("==============================")
	fmt.Println()

	defaultDbPath := filepath.Join(config.DataDir(), "cache.db")

	outputFile := prompt(reader, "Config file path", config.DefaultPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	path := prompt(reader, "Handler path", "/api")

	fmt.Println("\n--- GitHub Configuration ---")
	fmt.Println("The token is read from GITHUB_TOKEN; keep it out of the file.")
	userAgent := prompt(reader, "User-Agent", "YRGN-Store-Pages-Function")

	fmt.Println("\n--- Cache Configuration ---")
	backend := prompt(reader, "Cache backend (sqlite/memory/none)", config.BackendSQLite)
	dbPath := defaultDbPath
	if backend == config.BackendSQLite {
		dbPath = prompt(reader, "SQLite database path", defaultDbPath)
	}

	fmt.Println("\n--- Tailscale Configuration ---")
	tailscaleEnabled := isYes(prompt(reader, "Enable Tailscale?", "no"))

	var tsHostname, tsAuthKey string
	var tsEphemeral, tsHTTPS, tsFunnel bool
	if tailscaleEnabled {
		tsHostname = prompt(reader, "Tailscale hostname", "store-sync")
		tsAuthKey = prompt(reader, "Tailscale auth key (leave empty for TS_AUTHKEY)", "")
		tsEphemeral = isYes(prompt(reader, "Ephemeral node?", "no"))
		tsHTTPS = isYes(prompt(reader, "Serve HTTPS with Tailscale certs?", "no"))
		tsFunnel = isYes(prompt(reader, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# store-sync configuration\n")
	cfg.WriteString("# Generated by store-sync init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", httpAddr))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", path))
	cfg.WriteString("\n")

	cfg.WriteString("github:\n")
	cfg.WriteString("  token: \"${GITHUB_TOKEN}\"\n")
	cfg.WriteString("  base_url: \"https://api.github.com\"\n")
	cfg.WriteString(fmt.Sprintf("  user_agent: %q\n", userAgent))
	cfg.WriteString("  timeout: \"0s\"\n")
	cfg.WriteString("  rate_limit: 0\n")
	cfg.WriteString("\n")

	cfg.WriteString("cache:\n")
	cfg.WriteString(fmt.Sprintf("  backend: %q\n", backend))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("tailscale:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", tailscaleEnabled))
	if tailscaleEnabled {
		cfg.WriteString(fmt.Sprintf("  hostname: %q\n", tsHostname))
		if tsAuthKey != "" {
			cfg.WriteString(fmt.Sprintf("  auth_key: %q\n", tsAuthKey))
		}
		cfg.WriteString(fmt.Sprintf("  ephemeral: %t\n", tsEphemeral))
		cfg.WriteString(fmt.Sprintf("  https: %t\n", tsHTTPS))
		cfg.WriteString(fmt.Sprintf("  funnel: %t\n", tsFunnel))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", logFormat))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// May hold a Tailscale auth key
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if backend == config.BackendSQLite {
		if err := os.MkdirAll(filepath.Dir(config.ExpandPath(dbPath)), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Println("  GITHUB_TOKEN=... store-sync serve")

	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
