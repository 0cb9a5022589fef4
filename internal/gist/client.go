// ABOUTME: HTTP client for the GitHub Gist REST API
// ABOUTME: Lists, fetches, creates, and updates gists with token auth and optional pacing

package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	// DefaultUserAgent identifies this proxy to GitHub.
	DefaultUserAgent = "YRGN-Store-Pages-Function"

	// AcceptHeader pins the REST API version.
	AcceptHeader = "application/vnd.github.v3+json"
)

// Client is a GitHub Gist API client authenticated with a personal access token.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL (for GitHub Enterprise or testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit paces outbound requests to perSecond. Zero or negative disables pacing.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// NewClient creates a new Gist API client. The default HTTP client has no
// timeout; callers bound requests through the context or WithHTTPClient.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		token:      token,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListGists lists the authenticated user's gists (first page only).
func (c *Client) ListGists(ctx context.Context) ([]Gist, error) {
	var gists []Gist
	if err := c.do(ctx, http.MethodGet, "/gists", nil, &gists); err != nil {
		return nil, err
	}
	return gists, nil
}

// GetGist fetches a single gist including file contents.
func (c *Client) GetGist(ctx context.Context, id string) (*Gist, error) {
	var g Gist
	if err := c.do(ctx, http.MethodGet, "/gists/"+url.PathEscape(id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGist creates a new gist and returns it as stored by GitHub.
func (c *Client) CreateGist(ctx context.Context, req *GistRequest) (*Gist, error) {
	var g Gist
	if err := c.do(ctx, http.MethodPost, "/gists", req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGist replaces the description and the listed files of an existing gist.
// Files not named in req are left untouched.
func (c *Client) UpdateGist(ctx context.Context, id string, req *GistRequest) (*Gist, error) {
	var g Gist
	if err := c.do(ctx, http.MethodPatch, "/gists/"+url.PathEscape(id), req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// do executes one API call. Non-2xx responses become *APIError carrying the
// raw body; out is decoded only on success.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetworkError, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decoding %s %s: %v", ErrInvalidResponse, method, path, err)
		}
	}
	return nil
}
