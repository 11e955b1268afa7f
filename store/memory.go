package store

import (
	"context"
	"sync"
)

// MemoryStore keeps per-domain decision counts in process memory
type MemoryStore struct {
	counts sync.Map // map[string]*domainCounts
}

type domainCounts struct {
	mu sync.Mutex
	Counts
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record adds ev to the counts of its domain
func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	val, _ := s.counts.LoadOrStore(ev.Domain, &domainCounts{})
	c := val.(*domainCounts)

	c.mu.Lock()
	if ev.Allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	c.mu.Unlock()
	return nil
}

// Counts returns the counts recorded for domain
func (s *MemoryStore) Counts(domain string) Counts {
	val, ok := s.counts.Load(domain)
	if !ok {
		return Counts{}
	}
	c := val.(*domainCounts)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Counts
}

// Clear removes all counts
func (s *MemoryStore) Clear() {
	s.counts.Range(func(key, _ any) bool {
		s.counts.Delete(key)
		return true
	})
}

// Close implements Store. It is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
