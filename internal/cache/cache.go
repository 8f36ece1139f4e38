// Package cache provides short-TTL memoization of carrier responses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Cache stores serialized carrier responses keyed by
// carrier|endpoint|request-hash. Last writer wins; cached data is a pure
// function of the key, so races to overwrite are harmless.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// Key builds the composite cache key from carrier id, endpoint, and the
// serialized request payload.
func Key(carrierID, endpoint string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return carrierID + "|" + endpoint + "|" + hex.EncodeToString(sum[:])
}

type entry struct {
	data []byte
	at   time.Time
}

// Memory is the in-process cache used when no REDIS_URL is set. Expiry is
// checked at read time; a sweep runs when the entry count passes maxEntries
// so stale keys do not accumulate without bound.
type Memory struct {
	mu         sync.Mutex
	m          map[string]entry
	ttl        time.Duration
	maxEntries int
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{m: map[string]entry{}, ttl: ttl, maxEntries: 4096}
}

func (c *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || time.Since(e.at) > c.ttl {
		return nil, false
	}
	return e.data, true
}

func (c *Memory) Set(ctx context.Context, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= c.maxEntries {
		for k, e := range c.m {
			if time.Since(e.at) > c.ttl {
				delete(c.m, k)
			}
		}
	}
	c.m[key] = entry{data: data, at: time.Now()}
}
