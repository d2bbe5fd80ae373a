// Package footprint manages logged carbon-emitting activities: manual
// entries, bulk CSV imports, per-category summaries, and owner-scoped
// deletion. CO2 mass is computed once at write time and stored with the
// entry so reads never re-run the calculator.
package footprint

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store and service operations.
var (
	ErrFootprintNotFound = errors.New("footprint not found")
	ErrNotOwner          = errors.New("footprint belongs to another user")
)

// Footprint is one logged activity with its derived CO2 mass.
type Footprint struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Category  string         `json:"category"`
	CO2Kg     float64        `json:"co2_kg"`
	Date      time.Time      `json:"date"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ListFilter narrows ListByUser results.
type ListFilter struct {
	Category string
	Limit    int
	Offset   int
}

// CategorySummary is one aggregation bucket of a user's footprints. Period
// is the window token the bucket was computed over, stamped by the service.
type CategorySummary struct {
	Category   string  `json:"category"`
	TotalCO2Kg float64 `json:"total_co2_kg"`
	Count      int     `json:"count"`
	Period     string  `json:"period"`
}

// Store persists footprints.
type Store interface {
	// Create persists a new footprint. ID, CreatedAt and UpdatedAt are
	// assigned by the caller.
	Create(ctx context.Context, fp *Footprint) error

	// Get returns a footprint by ID or ErrFootprintNotFound.
	Get(ctx context.Context, id string) (*Footprint, error)

	// GetByIDs returns the footprints that exist among ids, regardless of
	// owner. Unknown IDs are skipped; ownership checks are the caller's.
	GetByIDs(ctx context.Context, ids []string) ([]*Footprint, error)

	// ListByUser returns a user's footprints newest-first with the total
	// count before pagination.
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*Footprint, int, error)

	// Summary aggregates a user's footprints by category over the trailing
	// window of `days` days, largest emitters first.
	Summary(ctx context.Context, userID string, days int) ([]CategorySummary, error)

	// Delete removes a footprint owned by userID. Returns
	// ErrFootprintNotFound if absent, ErrNotOwner if owned by someone else.
	Delete(ctx context.Context, userID, id string) error
}
