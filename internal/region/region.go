// Package region holds the static reference data for vulnerable countries.
//
// Regions are seeded once and read-only from the API's perspective: there is
// no create or update endpoint. Each record carries the hazard parameters the
// risk evaluator consumes (base hazard probabilities, vulnerability index,
// exposure fraction).
package region

import (
	"context"
	"errors"
	"time"
)

var ErrRegionNotFound = errors.New("region not found")

// Region describes one country's population and hazard-exposure parameters.
type Region struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	ISOCode            string             `json:"iso_code"`
	VulnerabilityIndex float64            `json:"vulnerability_index"`
	Population         int64              `json:"population"`
	BaseHazardProb     map[string]float64 `json:"base_hazard_prob"`
	ExposureFraction   float64            `json:"exposure_fraction"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// ListFilter narrows a region listing.
type ListFilter struct {
	Search           string   // matches name or ISO code, case-insensitive
	MinVulnerability *float64 // inclusive
	MaxVulnerability *float64 // inclusive
	Limit            int
	Offset           int
}

// Store persists region reference data.
type Store interface {
	Create(ctx context.Context, r *Region) error
	Get(ctx context.Context, id string) (*Region, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Region, error)
	List(ctx context.Context, filter ListFilter) ([]*Region, int, error)
	Count(ctx context.Context) (int, error)
}
