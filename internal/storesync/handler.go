// ABOUTME: HTTP handler that proxies the store's product list to a private GitHub gist
// ABOUTME: Resolves the gist id via cache or description search, then reads or overwrites products.json

package storesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/2389/store-sync/internal/gist"
	"github.com/2389/store-sync/internal/store"
)

const (
	// GistDescription marks the gist that holds the product list.
	GistDescription = "[YRGN STORE] Product Data"

	// ProductsFile is the gist file holding the serialized product list.
	ProductsFile = "products.json"

	// TokenName is the name reported when the access token is missing.
	TokenName = "GITHUB_TOKEN"

	// MaxRequestBodySize bounds the product list accepted on POST (1MB).
	MaxRequestBodySize = 1 << 20

	emptyProducts = "[]"
)

// ErrBodyTooLarge is returned when a POST body exceeds MaxRequestBodySize.
var ErrBodyTooLarge = errors.New("request body too large")

// GistAPI is the subset of the gist client the handler calls.
type GistAPI interface {
	ListGists(ctx context.Context) ([]gist.Gist, error)
	GetGist(ctx context.Context, id string) (*gist.Gist, error)
	CreateGist(ctx context.Context, req *gist.GistRequest) (*gist.Gist, error)
	UpdateGist(ctx context.Context, id string, req *gist.GistRequest) (*gist.Gist, error)
}

// Config holds everything the handler needs, injected by the hosting server.
type Config struct {
	// Token is the GitHub access token. Empty makes every non-preflight
	// request fail with 500.
	Token string

	// Cache remembers the resolved gist id. Nil disables memoization.
	Cache store.Cache

	// Client talks to the Gist API. Nil builds a default client from Token.
	Client GistAPI

	Logger *slog.Logger
}

// Handler serves GET (read products), POST (write products) and OPTIONS (CORS preflight).
type Handler struct {
	token  string
	cache  store.Cache
	client GistAPI
	logger *slog.Logger

	// search coalesces concurrent description searches on a cold cache
	search singleflight.Group
}

// New creates a Handler from cfg.
func New(cfg Config) *Handler {
	client := cfg.Client
	if client == nil {
		client = gist.NewClient(cfg.Token)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		token:  cfg.Token,
		cache:  cfg.Cache,
		client: client,
		logger: logger,
	}
}

// ServeHTTP dispatches strictly on method. Every response carries the CORS headers.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.token == "" {
		writeJSONError(w, http.StatusInternalServerError, "Missing "+TokenName)
		return
	}

	logger := h.logger.With("request_id", uuid.NewString(), "method", r.Method)

	var err error
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic handling request", "panic", rec)
			writeJSONError(w, http.StatusInternalServerError, "Internal error")
		}
	}()

	switch r.Method {
	case http.MethodGet:
		err = h.handleRead(r.Context(), w, logger)
	case http.MethodPost:
		err = h.handleWrite(r.Context(), w, r.Body, logger)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, "Method not allowed")
		return
	}

	if err != nil {
		logger.Error("request failed", "error", err)
		msg := err.Error()
		if msg == "" {
			msg = "Internal error"
		}
		writeJSONError(w, http.StatusInternalServerError, msg)
	}
}

// handleRead writes the stored product list. Upstream status failures degrade
// to an empty list; only transport or decode failures are returned.
func (h *Handler) handleRead(ctx context.Context, w http.ResponseWriter, logger *slog.Logger) error {
	id, err := h.resolveForRead(ctx, logger)
	if err != nil {
		return err
	}

	if id == "" {
		logger.Debug("no product gist found, serving empty list")
		writeProducts(w, emptyProducts)
		return nil
	}

	g, err := h.client.GetGist(ctx, id)
	if err != nil {
		if !isStatusError(err) {
			return err
		}
		logger.Warn("fetching product gist failed, serving empty list", "gist_id", id, "reason", upstreamReason(err), "error", err)
		writeProducts(w, emptyProducts)
		return nil
	}

	content, ok := g.FileContent(ProductsFile)
	if !ok {
		content = emptyProducts
	}
	writeProducts(w, content)
	return nil
}

// resolveForRead returns the cached gist id, or searches the caller's gists
// for the sentinel description. An empty id means none was found.
func (h *Handler) resolveForRead(ctx context.Context, logger *slog.Logger) (string, error) {
	if id, ok := h.lookup(ctx, logger); ok {
		return id, nil
	}

	// The shared search outlives any one caller; each caller still stops
	// waiting when its own request goes away.
	searchCtx := context.WithoutCancel(ctx)
	ch := h.search.DoChan("search", func() (any, error) {
		return h.searchGist(searchCtx, h.logger)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// searchGist lists the caller's gists and adopts the first one whose
// description matches. The adopted id is cached when a cache is configured.
func (h *Handler) searchGist(ctx context.Context, logger *slog.Logger) (string, error) {
	gists, err := h.client.ListGists(ctx)
	if err != nil {
		if !isStatusError(err) {
			return "", err
		}
		logger.Warn("listing gists failed", "reason", upstreamReason(err), "error", err)
		return "", nil
	}

	for _, g := range gists {
		if g.Description == GistDescription {
			logger.Info("found product gist by description", "gist_id", g.ID)
			h.remember(ctx, logger, g.ID)
			return g.ID, nil
		}
	}
	return "", nil
}

// handleWrite overwrites the product gist with the request body, creating the
// gist when no id is cached. It does not search by description.
func (h *Handler) handleWrite(ctx context.Context, w http.ResponseWriter, body io.Reader, logger *slog.Logger) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestBodySize+1))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(data)) > MaxRequestBodySize {
		return ErrBodyTooLarge
	}

	content, err := FormatProducts(data)
	if err != nil {
		return err
	}

	req := &gist.GistRequest{
		Description: GistDescription,
		Public:      false,
		Files: map[string]gist.FileUpdate{
			ProductsFile: {Content: content},
		},
	}

	id, ok := h.lookup(ctx, logger)
	if ok {
		if _, err := h.client.UpdateGist(ctx, id, req); err != nil {
			return upstreamFailure("update", err)
		}
		logger.Info("updated product gist", "gist_id", id, "bytes", len(content))
	} else {
		created, err := h.client.CreateGist(ctx, req)
		if err != nil {
			return upstreamFailure("create", err)
		}
		if created.ID == "" {
			return fmt.Errorf("GitHub create failed: %w: response has no gist id", gist.ErrInvalidResponse)
		}
		id = created.ID
		logger.Info("created product gist", "gist_id", id, "bytes", len(content))
		h.remember(ctx, logger, id)
	}

	writeJSON(w, http.StatusOK, WriteResponse{Success: true, GistID: id})
	return nil
}

// lookup reads the cached gist id. Cache errors count as a miss.
func (h *Handler) lookup(ctx context.Context, logger *slog.Logger) (string, bool) {
	if h.cache == nil {
		return "", false
	}

	id, ok, err := h.cache.Lookup(ctx, store.GistIDKey)
	if err != nil {
		logger.Warn("cache lookup failed, treating as miss", "error", err)
		return "", false
	}
	return id, ok && id != ""
}

// remember stores the gist id in the cache. Failure is logged, never returned.
func (h *Handler) remember(ctx context.Context, logger *slog.Logger, id string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Store(ctx, store.GistIDKey, id); err != nil {
		logger.Warn("caching gist id failed", "gist_id", id, "error", err)
	}
}

// isStatusError reports whether err is a non-2xx answer from the API, as
// opposed to a transport or decode failure.
func isStatusError(err error) bool {
	var apiErr *gist.APIError
	return errors.As(err, &apiErr)
}

// upstreamReason names the class of a non-2xx answer for logs.
func upstreamReason(err error) string {
	switch {
	case gist.IsNotFound(err):
		return "not_found"
	case gist.IsUnauthorized(err):
		return "unauthorized"
	case gist.IsRateLimited(err):
		return "rate_limited"
	default:
		return "upstream_error"
	}
}

// UpstreamError is a failed create or update; its message embeds the raw
// upstream response body.
type UpstreamError struct {
	Op  string
	Err *gist.APIError
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GitHub %s failed: %s", e.Op, e.Err.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstreamFailure(op string, err error) error {
	var apiErr *gist.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Op: op, Err: apiErr}
	}
	return err
}
