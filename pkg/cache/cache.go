// Package cache stores JSON-encoded review results with a TTL, in Redis or in memory.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Key prefixes
const (
	SnippetPrefix = "review:snippet:"
	FilePrefix    = "review:file:"
)

// Cache is a TTL key/value store for JSON-encodable values
type Cache interface {
	// Get decodes the value at key into dest. It reports false when the key is absent.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// ClearPattern removes every key matching a glob pattern and returns the count.
	ClearPattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Key hashes parts into a stable key under prefix
func Key(prefix string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\x00")))
	return prefix + hex.EncodeToString(h.Sum(nil))
}
