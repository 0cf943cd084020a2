package requestcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"anitransfer/internal/logging"
	"anitransfer/internal/services"
)

// Kind scopes cache entries by the request that produced them.
type Kind string

const (
	KindSearch Kind = "anime_search"
	KindDetail Kind = "anime_title"
)

var supportedKinds = map[Kind]struct{}{
	KindSearch: {},
	KindDetail: {},
}

// Envelope wraps a cached raw API payload with its caching metadata.
type Envelope struct {
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at,omitzero"`
	Payload   json.RawMessage `json:"payload"`
}

// Cache is a content-addressed store of raw API responses. Keys are hashes of
// the query value so raw titles, which may contain symbols unsafe for some
// filesystems, never appear on disk.
type Cache struct {
	dir          string
	ignoreExpiry bool
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache rooted at dir. When ignoreExpiry is true (the default
// configuration), stale-but-present entries are still served; external
// catalogs mutate rarely enough that availability beats freshness.
func New(dir string, ignoreExpiry bool, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		dir:          dir,
		ignoreExpiry: ignoreExpiry,
		logger:       logging.NewComponentLogger(logger, "requestcache"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StringKey returns the cache key for a string query value.
func StringKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// IDKey returns the cache key for a numeric identifier. IDs are already safe
// filenames, so they are used directly without hashing.
func IDKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Lookup returns the cached envelope for (kind, key) if present and live.
// Expired entries count as misses unless the cache ignores expiry.
func (c *Cache) Lookup(kind Kind, key string) (Envelope, bool, error) {
	if err := c.verifyKind(kind); err != nil {
		return Envelope{}, false, err
	}

	data, err := os.ReadFile(c.entryPath(kind, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Envelope{}, false, nil
		}
		return Envelope{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		// A corrupt entry is treated as a miss; the next store overwrites it.
		c.logger.Warn("discarding unreadable cache entry",
			logging.String("kind", string(kind)),
			logging.String("key", key),
			logging.Error(err))
		return Envelope{}, false, nil
	}

	if !envelope.ExpiresAt.IsZero() && c.now().After(envelope.ExpiresAt) && !c.ignoreExpiry {
		c.logger.Debug("cache entry expired",
			logging.String("kind", string(kind)),
			logging.String("key", key))
		return Envelope{}, false, nil
	}

	c.logger.Debug("cache hit",
		logging.String("kind", string(kind)),
		logging.String("key", key))
	return envelope, true, nil
}

// Store writes a payload for (kind, key), overwriting any previous entry.
// A zero expiresAt marks the entry as non-expiring.
func (c *Cache) Store(kind Kind, key string, payload []byte, expiresAt time.Time) error {
	if err := c.verifyKind(kind); err != nil {
		return err
	}

	envelope := Envelope{
		FetchedAt: c.now().UTC(),
		ExpiresAt: expiresAt,
		Payload:   json.RawMessage(payload),
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	kindDir := filepath.Join(c.dir, string(kind))
	if err := os.MkdirAll(kindDir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	path := c.entryPath(kind, key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	c.logger.Debug("cache entry stored",
		logging.String("kind", string(kind)),
		logging.String("key", key))
	return nil
}

// Clear removes every entry of every kind.
func (c *Cache) Clear() error {
	for kind := range supportedKinds {
		if err := os.RemoveAll(filepath.Join(c.dir, string(kind))); err != nil {
			return fmt.Errorf("clear cache kind %q: %w", kind, err)
		}
	}
	return nil
}

// Count returns the number of entries per kind.
func (c *Cache) Count() (map[Kind]int, error) {
	counts := make(map[Kind]int, len(supportedKinds))
	for kind := range supportedKinds {
		entries, err := os.ReadDir(filepath.Join(c.dir, string(kind)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				counts[kind] = 0
				continue
			}
			return nil, fmt.Errorf("read cache kind %q: %w", kind, err)
		}
		counts[kind] = len(entries)
	}
	return counts, nil
}

func (c *Cache) entryPath(kind Kind, key string) string {
	return filepath.Join(c.dir, string(kind), key+".json")
}

func (c *Cache) verifyKind(kind Kind) error {
	if _, ok := supportedKinds[kind]; !ok {
		return services.Wrap(services.ErrUnsupportedKind, "requestcache", "verify kind",
			fmt.Sprintf("cache of kind %q is not implemented", kind), nil)
	}
	return nil
}
