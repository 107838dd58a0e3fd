// Package cache stores computed layouts and rendered artifacts.
//
// Layouts are pure functions of (node set, relation set, config), so they
// can be memoized indefinitely; rendered artifacts are keyed by the hash of
// the layout they were drawn from. The [Cache] interface has four backends:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for CLI use
//   - [RedisCache]: shared cache for API deployments
//   - [MongoCache]: persistent document store
//
// [Open] selects a backend from a URL. Keys come from a [Keyer].
package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for cached entries.
const (
	// TTLLayout is the lifetime of a cached layout.
	TTLLayout = 30 * 24 * time.Hour

	// TTLArtifact is the lifetime of a rendered artifact.
	TTLArtifact = 7 * 24 * time.Hour
)

// Open returns the cache backend named by rawURL:
//
//	none | ""                        → NullCache
//	file:///path/to/dir              → FileCache
//	redis://[:pass@]host:6379/0      → RedisCache
//	mongodb://host:27017/db          → MongoCache (collection "layouts")
func Open(ctx context.Context, rawURL string) (Cache, error) {
	if rawURL == "" || rawURL == "none" {
		return NewNullCache(), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		// file://cache is a relative path; the parser puts it in Host.
		c, err := NewFileCache(u.Host + u.Path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "redis", "rediss":
		c, err := NewRedisCache(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mongodb", "mongodb+srv":
		db := strings.TrimPrefix(u.Path, "/")
		if db == "" {
			db = DefaultMongoDatabase
		}
		c, err := NewMongoCache(ctx, rawURL, db, DefaultMongoCollection)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, u.Scheme)
	}
}
