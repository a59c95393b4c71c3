package selectors

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory ProfileStore. It is safe for concurrent
// use and suitable for tests or single-process deployments; production
// installs typically put a database behind the same interface.
type MemoryStore struct {
	mu         sync.RWMutex
	admin      map[string][]AdminSelector
	discovered map[string]map[string]*DiscoveredSelector
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admin:      make(map[string][]AdminSelector),
		discovered: make(map[string]map[string]*DiscoveredSelector),
	}
}

// SetAdminSelectors replaces the admin-curated selector list for domain.
func (s *MemoryStore) SetAdminSelectors(domain string, selectors []AdminSelector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin[domain] = append([]AdminSelector(nil), selectors...)
}

// AdminSelectors returns the admin-curated selectors for domain.
func (s *MemoryStore) AdminSelectors(ctx context.Context, domain string) ([]AdminSelector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AdminSelector(nil), s.admin[domain]...), nil
}

// DiscoveredSelectors returns selectors previously found for domain,
// most used first.
func (s *MemoryStore) DiscoveredSelectors(ctx context.Context, domain string) ([]DiscoveredSelector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DiscoveredSelector, 0, len(s.discovered[domain]))
	for _, d := range s.discovered[domain] {
		out = append(out, *d)
	}
	sortDiscovered(out)
	return out, nil
}

// AddDiscoveredSelector records that selector was verified on domain.
// Repeat discoveries bump the usage count instead of duplicating.
func (s *MemoryStore) AddDiscoveredSelector(ctx context.Context, domain, selector, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := s.discovered[domain]
	if byName == nil {
		byName = make(map[string]*DiscoveredSelector)
		s.discovered[domain] = byName
	}
	if d, ok := byName[selector]; ok {
		d.UsageCount++
		d.Verified = true
		d.LastSeen = time.Now()
		return nil
	}
	byName[selector] = &DiscoveredSelector{
		Selector:   selector,
		Source:     source,
		UsageCount: 1,
		Verified:   true,
		LastSeen:   time.Now(),
	}
	return nil
}

func sortDiscovered(ds []DiscoveredSelector) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].UsageCount > ds[j].UsageCount
	})
}
