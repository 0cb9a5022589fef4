// Package gist provides a client for the GitHub Gist REST API.
//
// # Operations
//
//	ListGists   GET   /gists        first page of the caller's gists, contents omitted
//	GetGist     GET   /gists/{id}   one gist with file contents
//	CreateGist  POST  /gists
//	UpdateGist  PATCH /gists/{id}   files not named in the request are left alone
//
// Every request carries
//
//	Authorization: token <token>
//	Accept: application/vnd.github.v3+json
//	User-Agent: YRGN-Store-Pages-Function
//
// # Options
//
//	client := gist.NewClient(token,
//	    gist.WithBaseURL("https://ghe.example.com/api/v3"),
//	    gist.WithRateLimit(2),            // requests per second, 0 disables
//	    gist.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
//	)
//
// The client never retries.
//
// # Errors
//
// A non-2xx answer is an *APIError carrying the status and the raw body;
// IsNotFound, IsUnauthorized and IsRateLimited classify it. Failures that
// never produced a response wrap ErrNetworkError, and undecodable success
// bodies wrap ErrInvalidResponse.
package gist
