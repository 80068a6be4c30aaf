// Package profile serves the authenticated user's GitHub profile through a
// short-lived, file-backed cache. Entries are keyed by user ID and a hash
// of the access token, so a profile fetched with one token is never served
// for another.
package profile

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ghnav/cli/internal/config"
	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/schema"
)

// DefaultTTL is how long a cached profile is served before it goes stale.
const DefaultTTL = 5 * time.Minute

// HashToken derives the cache-key component for an access token: FNV-1a
// over the token bytes, hex encoded. The raw token never reaches disk.
func HashToken(token string) string {
	h := fnv.New64a()
	h.Write([]byte(token))
	return strconv.FormatUint(h.Sum64(), 16)
}

// cacheIndex is the on-disk layout of the profile cache.
type cacheIndex struct {
	Version   string                          `json:"version"`
	Entries   map[string]schema.CachedProfile `json:"entries"` // key is "<userID>:<tokenHash>"
	UpdatedAt time.Time                       `json:"updated_at"`
}

// Cache is a TTL cache of user profiles persisted under the XDG cache
// directory so it survives process restarts.
type Cache struct {
	mu    sync.Mutex
	dir   string
	index *cacheIndex
	ttl   time.Duration
	now   func() time.Time
}

// NewCache opens the profile cache, creating its directory on first use.
// A corrupt index is discarded and rebuilt, never surfaced as an error.
func NewCache() (*Cache, error) {
	if err := config.EnsureProfileCacheDir(); err != nil {
		return nil, fmt.Errorf("failed to create profile cache directory: %w", err)
	}

	c := &Cache{
		dir: config.GetProfileCacheDir(),
		ttl: DefaultTTL,
		now: time.Now,
	}

	if err := c.loadIndex(); err != nil {
		logger.Debug("No usable profile cache index, starting fresh: %v", err)
		c.index = newIndex()
	}

	if err := c.Prune(); err != nil {
		logger.Debug("Failed to prune expired profile cache entries: %v", err)
	}

	return c, nil
}

func newIndex() *cacheIndex {
	return &cacheIndex{
		Version: "1.0",
		Entries: make(map[string]schema.CachedProfile),
	}
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, "index.json")
}

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		return err
	}

	var index cacheIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("failed to parse profile cache index: %w", err)
	}
	if index.Entries == nil {
		index.Entries = make(map[string]schema.CachedProfile)
	}

	c.index = &index
	return nil
}

// saveIndex writes the index atomically; callers must hold c.mu.
func (c *Cache) saveIndex() error {
	c.index.UpdatedAt = c.now()

	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile cache index: %w", err)
	}

	tempPath := c.indexPath() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile cache index: %w", err)
	}
	if err := os.Rename(tempPath, c.indexPath()); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

func cacheKey(userID int64, tokenHash string) string {
	return fmt.Sprintf("%d:%s", userID, tokenHash)
}

// Get returns the cached profile for the user/token pair, or nil when the
// entry is absent, stale, or was written under a different token. A stale
// or mismatched entry is deleted on the spot so it cannot outlive a failed
// follow-up fetch.
func (c *Cache) Get(userID int64, tokenHash string) *schema.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, tokenHash)
	entry, ok := c.index.Entries[key]
	if !ok {
		return nil
	}
	if entry.TokenHash != tokenHash || c.now().Sub(entry.Timestamp) > c.ttl {
		logger.Debug("Dropping unusable profile cache entry for user %d", userID)
		delete(c.index.Entries, key)
		if err := c.saveIndex(); err != nil {
			logger.Warn("Failed to persist profile cache eviction: %v", err)
		}
		return nil
	}

	profile := entry.User
	return &profile
}

// Put stores a profile under the user/token pair.
func (c *Cache) Put(p *schema.Profile, tokenHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Entries[cacheKey(p.ID, tokenHash)] = schema.CachedProfile{
		User:      *p,
		Timestamp: c.now(),
		TokenHash: tokenHash,
	}

	if err := c.saveIndex(); err != nil {
		return err
	}
	logger.Debug("Cached profile for user %d", p.ID)
	return nil
}

// Stale reports whether the entry for the pair exists but is older than the
// TTL. Used by background revalidation to decide what to refresh.
func (c *Cache) Stale(userID int64, tokenHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index.Entries[cacheKey(userID, tokenHash)]
	if !ok || entry.TokenHash != tokenHash {
		return false
	}
	return c.now().Sub(entry.Timestamp) > c.ttl
}

// InvalidateUser drops every cache entry for the given user, across all
// token hashes.
func (c *Cache) InvalidateUser(userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := strconv.FormatInt(userID, 10) + ":"
	removed := false
	for key := range c.index.Entries {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(c.index.Entries, key)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return c.saveIndex()
}

// Clear empties the cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = newIndex()
	return c.saveIndex()
}

// Prune drops expired entries.
func (c *Cache) Prune() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	pruned := false
	for key, entry := range c.index.Entries {
		if now.Sub(entry.Timestamp) > c.ttl {
			delete(c.index.Entries, key)
			pruned = true
		}
	}
	if !pruned {
		return nil
	}
	return c.saveIndex()
}
