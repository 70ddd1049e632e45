package secrets

import (
	"sync"
	"time"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
)

// DefaultCacheTTL is how long a fetched secret is served from memory.
const DefaultCacheTTL = 5 * time.Minute

// secretCache is a TTL cache shared by the remote adapters.
type secretCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	secret    ports.Secret
	expiresAt time.Time
}

// newSecretCache returns nil when ttl <= 0, which disables caching.
func newSecretCache(ttl time.Duration) *secretCache {
	if ttl <= 0 {
		return nil
	}
	return &secretCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *secretCache) get(key string) (*ports.Secret, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	s := entry.secret
	return &s, true
}

func (c *secretCache) set(key string, secret *ports.Secret) {
	if c == nil || secret == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{secret: *secret, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
