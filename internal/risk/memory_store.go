package risk

import (
	"context"
	"sort"
	"sync"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory signal store for demo/development mode.
type MemoryStore struct {
	signals []*Signal // append order
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory signal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Create(ctx context.Context, s *Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.signals = append(m.signals, &cp)
	return nil
}

func (m *MemoryStore) ListByFootprint(ctx context.Context, footprintID string) ([]*Signal, error) {
	return m.list(func(s *Signal) bool { return s.FootprintID == footprintID })
}

func (m *MemoryStore) ListByRegion(ctx context.Context, regionID string) ([]*Signal, error) {
	return m.list(func(s *Signal) bool { return s.RegionID == regionID })
}

func (m *MemoryStore) list(match func(*Signal) bool) ([]*Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Signal
	// newest first before the score sort so ties stay stable
	for i := len(m.signals) - 1; i >= 0; i-- {
		if match(m.signals[i]) {
			cp := *m.signals[i]
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out, nil
}
