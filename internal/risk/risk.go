// Package risk maps pooled carbon footprints onto humanitarian risk signals
// for vulnerable regions. An evaluation pools the requested footprints into
// total emissions, scores every hazard for every requested region, and
// persists one signal per region/hazard pair.
package risk

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for risk operations.
var (
	ErrNoValidFootprints = errors.New("no valid footprints to evaluate")
	ErrNoValidRegions    = errors.New("no valid regions to evaluate")
	ErrForeignFootprint  = errors.New("access denied to some footprints")
)

// Signal is one persisted region/hazard risk assessment. RegionName and
// FootprintCategory are not stored; listings enrich them from the region
// and footprint records.
type Signal struct {
	ID                string    `json:"id"`
	FootprintID       string    `json:"footprint_id"`
	RegionID          string    `json:"region_id"`
	RiskType          string    `json:"risk_type"`
	RiskScore         float64   `json:"risk_score"`
	Explanation       string    `json:"explanation"`
	PeopleAtRisk      int64     `json:"people_at_risk"`
	CreatedAt         time.Time `json:"created_at"`
	RegionName        string    `json:"region_name,omitempty"`
	FootprintCategory string    `json:"footprint_category,omitempty"`
}

// Store persists risk signals.
type Store interface {
	Create(ctx context.Context, s *Signal) error

	// ListByFootprint returns signals referencing a footprint, highest
	// risk score first.
	ListByFootprint(ctx context.Context, footprintID string) ([]*Signal, error)

	// ListByRegion returns signals for a region, highest risk score first.
	ListByRegion(ctx context.Context, regionID string) ([]*Signal, error)
}
