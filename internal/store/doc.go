// Package store provides the key-value cache that remembers which gist holds
// the product list.
//
// # Architecture
//
// Two interfaces split the surface by consumer:
//
//   - Cache: Lookup and Store, the only operations the store sync handler uses
//   - Store: Cache plus Delete and Close, used by the server lifecycle and the
//     `store-sync cache` operator commands
//
// Implementations:
//
//   - SQLiteStore: persisted in a single kv table (modernc.org/sqlite, WAL mode)
//   - MemoryStore: process-lifetime map, for cache.backend=memory and tests
//
// The handler treats a nil Cache as "no cache configured" and skips
// memoization entirely.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//
//	CREATE TABLE kv (
//	    key        TEXT PRIMARY KEY,
//	    value      TEXT NOT NULL,
//	    updated_at TEXT NOT NULL
//	);
//
// Store is an upsert (ON CONFLICT DO UPDATE). There is no expiry.
//
// Database file locations:
//
//   - Default: ~/.local/share/store-sync/cache.db
//   - Testing: :memory: or a file under t.TempDir()
//
// # Error Handling
//
// A Lookup miss is (value "", ok false, err nil), not an error. Delete of a
// missing key returns ErrNotFound.
package store
