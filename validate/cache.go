package validate

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/semmatch/semmatch"
)

// CachedResult is the outcome of running a rule's validators on one finding.
type CachedResult struct {
	State    semmatch.ValidationState
	Severity *semmatch.Severity
	Metadata map[string]any
	Note     string
	Err      error
}

// ResultCache is a concurrency-safe, in-memory, per-run cache of validation
// outcomes keyed by rule and finding fingerprint.
type ResultCache struct {
	mu    sync.RWMutex
	store map[string]*CachedResult
}

// NewResultCache returns an initialized ResultCache.
func NewResultCache() *ResultCache {
	return &ResultCache{store: make(map[string]*CachedResult)}
}

// Key computes a deterministic cache key for a finding of ruleID.
func (c *ResultCache) Key(ruleID, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(ruleID))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves a cached result. Returns nil, false on miss.
func (c *ResultCache) Get(key string) (*CachedResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.store[key]
	return r, ok
}

// Set stores a result in the cache.
func (c *ResultCache) Set(key string, r *CachedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = r
}

// Size returns the number of cached entries.
func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
