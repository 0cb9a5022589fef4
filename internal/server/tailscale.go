// ABOUTME: Tailnet hosting for store-sync via an embedded tsnet node
// ABOUTME: Chooses plain HTTP, tailnet HTTPS, or public Funnel for the handler listener

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/store-sync/internal/config"
)

// exposure is how the handler is published on the tailnet.
type exposure int

const (
	exposePlain  exposure = iota // http on :80, tailnet only
	exposeHTTPS                  // https on :443 with Tailscale-issued certs
	exposeFunnel                 // https on :443, reachable from the internet
)

func (e exposure) String() string {
	switch e {
	case exposeHTTPS:
		return "https"
	case exposeFunnel:
		return "funnel"
	default:
		return "http"
	}
}

// addr is the tailnet port the exposure listens on.
func (e exposure) addr() string {
	if e == exposePlain {
		return ":80"
	}
	return ":443"
}

// exposureFor picks the listener kind. Funnel wins over HTTPS since it implies it.
func exposureFor(cfg config.TailscaleConfig) exposure {
	switch {
	case cfg.Funnel:
		return exposeFunnel
	case cfg.HTTPS:
		return exposeHTTPS
	default:
		return exposePlain
	}
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "store-sync", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// newTailnetNode prepares the state directory and builds an unstarted tsnet node.
func newTailnetNode(cfg config.TailscaleConfig) (*tsnet.Server, error) {
	stateDir, err := resolveTailscaleStateDir(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(cfg.AuthKey)
	if err != nil {
		return nil, err
	}

	return &tsnet.Server{
		Hostname:  cfg.Hostname,
		Dir:       stateDir,
		Ephemeral: cfg.Ephemeral,
		AuthKey:   authKey,
	}, nil
}

// setupTailscaleListener brings up the tsnet node and returns the handler
// listener. On any failure the node is closed before returning.
func (s *Server) setupTailscaleListener(ctx context.Context) (ln net.Listener, err error) {
	tsCfg := s.config.Tailscale

	node, err := newTailnetNode(tsCfg)
	if err != nil {
		return nil, err
	}
	s.tsnetServer = node
	defer func() {
		if err != nil {
			_ = node.Close()
			s.tsnetServer = nil
		}
	}()

	s.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", node.Dir, "ephemeral", tsCfg.Ephemeral)
	status, err := node.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	s.logTailscaleStatus(tsCfg.Hostname, status)

	mode := exposureFor(tsCfg)
	s.logger.Info("tailscale listener", "mode", mode.String(), "addr", mode.addr())

	switch mode {
	case exposeFunnel:
		ln, err = node.ListenFunnel("tcp", mode.addr())
	default:
		ln, err = node.Listen("tcp", mode.addr())
	}
	if err != nil {
		return nil, fmt.Errorf("listening on tailscale %s %s: %w", mode, mode.addr(), err)
	}

	if mode != exposeHTTPS {
		return ln, nil
	}

	lc, err := node.LocalClient()
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}

func (s *Server) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		s.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	s.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}
