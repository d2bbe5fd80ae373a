package footprint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory footprint store for demo/development mode.
type MemoryStore struct {
	footprints map[string]*Footprint // by ID
	order      []string              // insertion order
	mu         sync.RWMutex
}

// NewMemoryStore creates a new in-memory footprint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		footprints: make(map[string]*Footprint),
	}
}

func (m *MemoryStore) Create(ctx context.Context, fp *Footprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.footprints[fp.ID] = cloneFootprint(fp)
	m.order = append(m.order, fp.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Footprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fp, ok := m.footprints[id]
	if !ok {
		return nil, ErrFootprintNotFound
	}
	return cloneFootprint(fp), nil
}

func (m *MemoryStore) GetByIDs(ctx context.Context, ids []string) ([]*Footprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []*Footprint
	for _, id := range m.order {
		if want[id] {
			out = append(out, cloneFootprint(m.footprints[id]))
		}
	}
	return out, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*Footprint, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Footprint
	for _, id := range m.order {
		fp := m.footprints[id]
		if fp.UserID != userID {
			continue
		}
		if filter.Category != "" && fp.Category != filter.Category {
			continue
		}
		matched = append(matched, cloneFootprint(fp))
	}

	// newest first, ties broken by ID for stable pages
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Date.After(matched[j].Date)
	})

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) Summary(ctx context.Context, userID string, days int) ([]CategorySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -days)

	totals := map[string]*CategorySummary{}
	var cats []string
	for _, id := range m.order {
		fp := m.footprints[id]
		if fp.UserID != userID || fp.Date.Before(cutoff) {
			continue
		}
		b, ok := totals[fp.Category]
		if !ok {
			b = &CategorySummary{Category: fp.Category}
			totals[fp.Category] = b
			cats = append(cats, fp.Category)
		}
		b.TotalCO2Kg += fp.CO2Kg
		b.Count++
	}

	out := make([]CategorySummary, 0, len(cats))
	for _, c := range cats {
		out = append(out, *totals[c])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalCO2Kg > out[j].TotalCO2Kg
	})
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fp, ok := m.footprints[id]
	if !ok {
		return ErrFootprintNotFound
	}
	if fp.UserID != userID {
		return ErrNotOwner
	}

	delete(m.footprints, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneFootprint(fp *Footprint) *Footprint {
	cp := *fp
	if fp.Meta != nil {
		cp.Meta = make(map[string]any, len(fp.Meta))
		for k, v := range fp.Meta {
			cp.Meta[k] = v
		}
	}
	return &cp
}
