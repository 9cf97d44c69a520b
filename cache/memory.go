// Package cache provides CapabilityCache implementations for Gatehouse
// capability projections.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xraph/gatehouse"
)

// Compile-time interface check.
var _ gatehouse.CapabilityCache = (*Memory)(nil)

// Memory is an in-process capability cache backed by an expirable LRU.
// Generation counters are kept outside the LRU so that eviction can never
// rewind a counter.
type Memory struct {
	entries *lru.LRU[string, *gatehouse.Capabilities]

	mu     sync.Mutex
	global uint64
	tenant map[string]uint64
	user   map[string]uint64

	ttl     time.Duration
	maxSize int
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cached projections.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		tenant:  make(map[string]uint64),
		user:    make(map[string]uint64),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.entries = lru.NewLRU[string, *gatehouse.Capabilities](m.maxSize, nil, m.ttl)
	return m
}

// Generation returns the current generation for the user in tenant.
func (m *Memory) Generation(_ context.Context, tenantID, userID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generationLocked(tenantID, userID)
}

func (m *Memory) generationLocked(tenantID, userID string) uint64 {
	return m.global + m.tenant[tenantID] + m.user[userID]
}

// Get returns the cached projection if its stamp is current.
func (m *Memory) Get(_ context.Context, tenantID, userID string) (*gatehouse.Capabilities, bool) {
	caps, ok := m.entries.Get(userID)
	if !ok {
		return nil, false
	}
	m.mu.Lock()
	current := m.generationLocked(tenantID, userID)
	m.mu.Unlock()
	if caps.Generation != current || caps.TenantID != tenantID {
		m.entries.Remove(userID)
		return nil, false
	}
	return caps, true
}

// Set stores caps unless its generation is already stale.
func (m *Memory) Set(_ context.Context, caps *gatehouse.Capabilities) {
	if caps == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if caps.Generation != m.generationLocked(caps.TenantID, caps.UserID) {
		return
	}
	m.entries.Add(caps.UserID, caps)
}

// InvalidateUser bumps the user's generation.
func (m *Memory) InvalidateUser(_ context.Context, userID string) {
	m.mu.Lock()
	m.user[userID]++
	m.mu.Unlock()
	m.entries.Remove(userID)
}

// InvalidateTenant bumps the tenant's generation.
func (m *Memory) InvalidateTenant(_ context.Context, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenant[tenantID]++
}

// InvalidateAll bumps the global generation and drops every entry.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	m.global++
	m.mu.Unlock()
	m.entries.Purge()
}

// Len returns the number of cached projections, including stale ones not
// yet evicted.
func (m *Memory) Len() int { return m.entries.Len() }
