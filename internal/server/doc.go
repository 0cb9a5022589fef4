// Package server hosts the store sync handler as a standalone HTTP service.
//
// Routes:
//
//	<server.path>   store sync handler (GET, POST, OPTIONS)
//	/health         200 "OK" while the process is up
//	/health/ready   200 "ready" once a GitHub token is configured, else 503
//
// The server listens on server.http_addr, or on a Tailscale node when
// tailscale.enabled is set (plain :80, tailnet HTTPS on :443, or a public
// Funnel). Run blocks until its context is canceled and then shuts down within
// five seconds, closing the cache store.
package server
