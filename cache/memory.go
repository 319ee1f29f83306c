// Package cache provides resolution-cache implementations: an in-memory
// LRU with TTL expiry and a Redis-backed cache for multi-instance
// deployments. Both index entries by user, permission key, and every
// resource on the recorded ancestor path, so invalidation can target
// exactly the entries a mutation may have changed.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/id"
)

// Compile-time interface check.
var _ lectern.Cache = (*Memory)(nil)

const keySep = "\x1f"

// Memory is an in-memory resolution cache backed by an expiring LRU.
type Memory struct {
	mu  sync.Mutex
	lru *lru.LRU[string, *memEntry]

	// Secondary indexes from invalidation dimensions to cache keys.
	// LRU eviction does not clean these; stale keys are harmless because
	// removing an absent key is a no-op, and invalidation prunes them.
	byUser map[string]map[string]struct{}
	byPerm map[string]map[string]struct{}
	byRes  map[string]map[string]struct{}

	ttl     time.Duration
	maxSize int
}

type memEntry struct {
	result *lectern.ResolveResult
	path   []id.ResourceID
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory resolution cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		byUser:  make(map[string]map[string]struct{}),
		byPerm:  make(map[string]map[string]struct{}),
		byRes:   make(map[string]map[string]struct{}),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lru = lru.NewLRU[string, *memEntry](m.maxSize, nil, m.ttl)
	return m
}

func cacheKey(req *lectern.ResolveRequest) string {
	return req.UserID + keySep + req.ResourceID.String() + keySep + req.Permission
}

// Get returns a cached resolution, if present and unexpired.
func (m *Memory) Get(_ context.Context, req *lectern.ResolveRequest) (*lectern.ResolveResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Get(cacheKey(req))
	if !ok {
		return nil, false
	}
	out := *e.result
	return &out, true
}

// Set stores a resolution and indexes it by user, permission, and every
// resource on the walked path.
func (m *Memory) Set(_ context.Context, req *lectern.ResolveRequest, path []id.ResourceID, result *lectern.ResolveResult) {
	key := cacheKey(req)
	stored := *result

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, &memEntry{result: &stored, path: path})
	addIndex(m.byUser, req.UserID, key)
	addIndex(m.byPerm, req.Permission, key)
	for _, resID := range path {
		addIndex(m.byRes, resID.String(), key)
	}
}

// InvalidateUser removes all cached resolutions for a user.
func (m *Memory) InvalidateUser(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropKeys(m.byUser[userID])
	delete(m.byUser, userID)
}

// InvalidatePermission removes all cached resolutions of a permission key.
func (m *Memory) InvalidatePermission(_ context.Context, permKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropKeys(m.byPerm[permKey])
	delete(m.byPerm, permKey)
}

// InvalidateResources removes every cached resolution whose recorded
// ancestor path touches any of the given resources. Because descendants
// record their ancestors, invalidating a node evicts its whole subtree.
func (m *Memory) InvalidateResources(_ context.Context, resIDs ...id.ResourceID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, resID := range resIDs {
		key := resID.String()
		m.dropKeys(m.byRes[key])
		delete(m.byRes, key)
	}
}

// Purge removes everything.
func (m *Memory) Purge(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
	m.byUser = make(map[string]map[string]struct{})
	m.byPerm = make(map[string]map[string]struct{})
	m.byRes = make(map[string]map[string]struct{})
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory) dropKeys(keys map[string]struct{}) {
	for key := range keys {
		m.lru.Remove(key)
	}
}

func addIndex(idx map[string]map[string]struct{}, dim, key string) {
	set, ok := idx[dim]
	if !ok {
		set = make(map[string]struct{})
		idx[dim] = set
	}
	set[key] = struct{}{}
}
