package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"dataexplorer/internal/config"
	"dataexplorer/internal/infrastructure"
)

// maxCleanupInterval bounds how long expired entries linger
const maxCleanupInterval = 5 * time.Minute

// cacheEntry is one memoized computation
type cacheEntry struct {
	value     interface{}
	cachedAt  time.Time
	expiresAt time.Time
	hitCount  int
}

// MemoCache memoizes pure computations keyed by dataset content hash and
// parameters. Identical computations in flight are collapsed into one.
// Cached values are shared between callers and must not be mutated.
type MemoCache struct {
	entries   map[string]cacheEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	group     singleflight.Group
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewMemoCache creates a cache and starts its cleanup goroutine
func NewMemoCache(cfg config.CacheConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *MemoCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &MemoCache{
		entries:  make(map[string]cacheEntry),
		ttl:      cfg.TTL,
		maxSize:  cfg.MaxEntries,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "memo_cache")),
		stopChan: make(chan struct{}),
	}

	interval := maxCleanupInterval
	if c.ttl > 0 && c.ttl < interval {
		interval = c.ttl
	}
	go c.cleanup(interval)

	return c
}

// Memoize returns the cached value for key or computes, stores and returns it.
// kind labels the computation in metrics and logs. Errors are not cached.
func Memoize[T any](ctx context.Context, c *MemoCache, kind, key string, compute func() (T, error)) (T, error) {
	v, err := c.Do(ctx, kind, key, func() (interface{}, error) {
		return compute()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Do is the untyped form of Memoize
func (c *MemoCache) Do(ctx context.Context, kind, key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.get(key); ok {
		infrastructure.RecordCacheLookup(ctx, c.metrics, kind, true)
		return v, nil
	}
	infrastructure.RecordCacheLookup(ctx, c.metrics, kind, false)

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have stored the value between the lookup and here
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		start := time.Now()
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(key, v)
		c.logger.DebugContext(ctx, "computation cached",
			slog.String("kind", kind),
			slog.Duration("duration", time.Since(start)))
		return v, nil
	})
	if shared {
		c.logger.DebugContext(ctx, "joined in-flight computation", slog.String("kind", kind))
	}
	return v, err
}

func (c *MemoCache) get(key string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiresAt) {
		c.missCount++
		return nil, false
	}

	entry.hitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.value, true
}

// peek looks a key up without touching the statistics
func (c *MemoCache) peek(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoCache) set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Don't store anything if max size is 0
	if c.maxSize <= 0 {
		return
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.entries[key] = cacheEntry{
		value:     value,
		cachedAt:  now,
		expiresAt: now.Add(c.ttl),
	}
}

// InvalidatePrefix drops every entry whose key starts with prefix
func (c *MemoCache) InvalidatePrefix(prefix string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (c *MemoCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *MemoCache) GetStats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return map[string]interface{}{
		"entries":     len(c.entries),
		"max_size":    c.maxSize,
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
	}
}

func (c *MemoCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stop stops the cleanup goroutine; calling it twice is safe
func (c *MemoCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *MemoCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		case <-c.stopChan:
			return
		}
	}
}

// ContentHash identifies an upload by its bytes and the sheet it was read from
func ContentHash(data []byte, sheet string) string {
	h, _ := blake2b.New256(nil)
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(sheet))
	return hex.EncodeToString(h.Sum(nil))
}

// cacheKey joins a content hash, a computation name and its parameters
func cacheKey(hash, kind string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(hash)
	b.WriteByte('|')
	b.WriteString(kind)
	for _, p := range params {
		fmt.Fprintf(&b, "|%v", p)
	}
	return b.String()
}
