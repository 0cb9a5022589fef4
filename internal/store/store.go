// ABOUTME: Cache interface and sentinel errors for the gist id store
// ABOUTME: Defines the Cache capability used by the handler and the fuller Store used by the CLI

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// GistIDKey is the fixed cache key under which the product gist id is remembered
const GistIDKey = "gist_id"

// Cache is the capability the store sync handler needs: a string lookup and
// an upsert. Lookup reports a miss with ok=false and a nil error.
type Cache interface {
	Lookup(ctx context.Context, key string) (value string, ok bool, err error)
	Store(ctx context.Context, key, value string) error
}

// Store is a Cache that can also be cleared and closed, used by the server
// lifecycle and the operator CLI.
type Store interface {
	Cache

	// Delete removes a key. Deleting a missing key returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}
