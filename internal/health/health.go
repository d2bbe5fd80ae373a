// Package health runs named subsystem checks for the health endpoints.
package health

import (
	"context"
	"sync"
)

// Status is the result of one subsystem check.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one subsystem. It should honor ctx cancellation so a slow
// dependency cannot stall the health endpoint.
type Checker func(ctx context.Context) Status

type entry struct {
	name  string
	check Checker
}

// Registry holds checkers and runs them on demand. Checkers run in
// registration order so /health output is stable.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named checker.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.entries = append(r.entries, entry{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll runs every checker and reports whether all passed, plus the
// individual results. An empty registry is healthy.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(entries))
	for i, e := range entries {
		statuses[i] = e.check(ctx)
		if !statuses[i].Healthy {
			healthy = false
		}
	}
	return healthy, statuses
}
