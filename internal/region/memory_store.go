package region

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory region store for demo/development mode.
type MemoryStore struct {
	regions map[string]*Region // by ID
	order   []string           // insertion order
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory region store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		regions: make(map[string]*Region),
	}
}

func (m *MemoryStore) Create(ctx context.Context, r *Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := cloneRegion(r)
	m.regions[r.ID] = cp
	m.order = append(m.order, r.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.regions[id]
	if !ok {
		return nil, ErrRegionNotFound
	}
	return cloneRegion(r), nil
}

// GetByIDs returns the regions that exist among ids, in insertion order.
// Unknown ids are skipped, not errors; callers decide what an empty
// resolution means.
func (m *MemoryStore) GetByIDs(ctx context.Context, ids []string) ([]*Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []*Region
	for _, id := range m.order {
		if want[id] {
			out = append(out, cloneRegion(m.regions[id]))
		}
	}
	return out, nil
}

func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*Region, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Region
	for _, id := range m.order {
		r := m.regions[id]
		if !matchesFilter(r, filter) {
			continue
		}
		matched = append(matched, cloneRegion(r))
	}

	// Most vulnerable first, name as tiebreaker.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].VulnerabilityIndex != matched[j].VulnerabilityIndex {
			return matched[i].VulnerabilityIndex > matched[j].VulnerabilityIndex
		}
		return matched[i].Name < matched[j].Name
	})

	total := len(matched)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*Region{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, total, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regions), nil
}

func matchesFilter(r *Region, filter ListFilter) bool {
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.ISOCode), q) {
			return false
		}
	}
	if filter.MinVulnerability != nil && r.VulnerabilityIndex < *filter.MinVulnerability {
		return false
	}
	if filter.MaxVulnerability != nil && r.VulnerabilityIndex > *filter.MaxVulnerability {
		return false
	}
	return true
}

func cloneRegion(r *Region) *Region {
	cp := *r
	cp.BaseHazardProb = make(map[string]float64, len(r.BaseHazardProb))
	for k, v := range r.BaseHazardProb {
		cp.BaseHazardProb[k] = v
	}
	return &cp
}
