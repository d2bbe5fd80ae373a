package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/cialabs/carbonrisk/internal/footprint"
	"github.com/cialabs/carbonrisk/internal/hazard"
	"github.com/cialabs/carbonrisk/internal/idgen"
	"github.com/cialabs/carbonrisk/internal/metrics"
	"github.com/cialabs/carbonrisk/internal/region"
	"github.com/cialabs/carbonrisk/internal/traces"
)

// Service evaluates footprints against regions and persists the resulting
// risk signals.
type Service struct {
	store      Store
	footprints footprint.Store
	regions    region.Store
}

// NewService creates a new risk service.
func NewService(store Store, footprints footprint.Store, regions region.Store) *Service {
	return &Service{store: store, footprints: footprints, regions: regions}
}

// RegionSummary aggregates one region's signals from a single evaluation.
type RegionSummary struct {
	RegionID       string  `json:"region_id"`
	RegionName     string  `json:"region_name"`
	TotalRiskScore float64 `json:"total_risk_score"`
	PeopleAtRisk   int64   `json:"people_at_risk"`
}

// Result is the outcome of one evaluation run.
type Result struct {
	RiskSignals       []*Signal       `json:"risk_signals"`
	TotalPeopleAtRisk int64           `json:"total_people_at_risk"`
	Summary           []RegionSummary `json:"summary"`
}

// Evaluate pools the user's named footprints into total emissions and scores
// every hazard for every named region. Signals are persisted one at a time;
// a storage failure mid-run leaves the earlier signals in place.
//
// Every resolved footprint must belong to the caller; a single foreign
// footprint rejects the whole request with ErrForeignFootprint. IDs that
// resolve to nothing are skipped, and an evaluation only fails with a
// not-found error when nothing resolves on either side.
func (s *Service) Evaluate(ctx context.Context, userID string, footprintIDs, regionIDs []string) (*Result, error) {
	start := time.Now()

	fps, err := s.footprints.GetByIDs(ctx, footprintIDs)
	if err != nil {
		metrics.RiskEvaluationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve footprints: %w", err)
	}
	for _, fp := range fps {
		if fp.UserID != userID {
			metrics.RiskEvaluationsTotal.WithLabelValues("forbidden").Inc()
			return nil, ErrForeignFootprint
		}
	}
	if len(fps) == 0 {
		metrics.RiskEvaluationsTotal.WithLabelValues("no_footprints").Inc()
		return nil, ErrNoValidFootprints
	}

	regions, err := s.regions.GetByIDs(ctx, regionIDs)
	if err != nil {
		metrics.RiskEvaluationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve regions: %w", err)
	}
	if len(regions) == 0 {
		metrics.RiskEvaluationsTotal.WithLabelValues("no_regions").Inc()
		return nil, ErrNoValidRegions
	}

	var totalTons float64
	for _, fp := range fps {
		totalTons += fp.CO2Kg / 1000
	}

	// Signals reference the first resolved footprint as the representative
	// of the pool.
	representative := fps[0].ID

	ctx, span := traces.StartSpan(ctx, "risk.evaluate",
		traces.UserID(userID),
		traces.FootprintCount(len(fps)),
		traces.RegionCount(len(regions)),
		traces.EmissionsTons(totalTons),
	)
	defer span.End()

	result := &Result{RiskSignals: []*Signal{}}

	for _, r := range regions {
		summary := RegionSummary{RegionID: r.ID, RegionName: r.Name}
		var regionPeople float64

		for _, ht := range hazard.Types {
			a, ok := hazard.Score(r, ht, totalTons)
			if !ok {
				continue
			}

			sig := &Signal{
				ID:           idgen.WithPrefix("sig_"),
				FootprintID:  representative,
				RegionID:     r.ID,
				RiskType:     string(ht),
				RiskScore:    a.RiskScore,
				Explanation:  a.Explanation,
				PeopleAtRisk: int64(a.PeopleAtRisk + 0.5),
				CreatedAt:    time.Now(),
			}
			if err := s.store.Create(ctx, sig); err != nil {
				metrics.RiskEvaluationsTotal.WithLabelValues("error").Inc()
				return nil, fmt.Errorf("persist signal for %s/%s: %w", r.ISOCode, ht, err)
			}
			metrics.RiskSignalsTotal.WithLabelValues(string(ht)).Inc()

			result.RiskSignals = append(result.RiskSignals, sig)
			summary.TotalRiskScore += a.RiskScore
			regionPeople += a.PeopleAtRisk
		}

		if summary.TotalRiskScore > 1 {
			summary.TotalRiskScore = 1
		}
		summary.PeopleAtRisk = int64(regionPeople + 0.5)
		result.TotalPeopleAtRisk += summary.PeopleAtRisk
		result.Summary = append(result.Summary, summary)
	}

	metrics.RiskEvaluationsTotal.WithLabelValues("ok").Inc()
	metrics.RiskEvaluationDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

// SignalsByFootprint returns persisted signals referencing one of the
// user's footprints, highest risk score first, enriched with the region
// name and footprint category.
func (s *Service) SignalsByFootprint(ctx context.Context, userID, footprintID string) ([]*Signal, error) {
	fp, err := s.footprints.Get(ctx, footprintID)
	if err != nil {
		return nil, err
	}
	if fp.UserID != userID {
		return nil, footprint.ErrNotOwner
	}

	signals, err := s.store.ListByFootprint(ctx, footprintID)
	if err != nil {
		return nil, err
	}

	regionNames, err := s.regionNames(ctx, signals)
	if err != nil {
		return nil, err
	}
	for _, sig := range signals {
		sig.FootprintCategory = fp.Category
		sig.RegionName = regionNames[sig.RegionID]
	}
	return signals, nil
}

// SignalsByRegion returns persisted signals for a region, highest risk score
// first, enriched with the region name and footprint category.
func (s *Service) SignalsByRegion(ctx context.Context, regionID string) ([]*Signal, error) {
	r, err := s.regions.Get(ctx, regionID)
	if err != nil {
		return nil, err
	}

	signals, err := s.store.ListByRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}

	categories, err := s.footprintCategories(ctx, signals)
	if err != nil {
		return nil, err
	}
	for _, sig := range signals {
		sig.RegionName = r.Name
		sig.FootprintCategory = categories[sig.FootprintID]
	}
	return signals, nil
}

func (s *Service) regionNames(ctx context.Context, signals []*Signal) (map[string]string, error) {
	ids := make([]string, 0, len(signals))
	seen := map[string]bool{}
	for _, sig := range signals {
		if !seen[sig.RegionID] {
			seen[sig.RegionID] = true
			ids = append(ids, sig.RegionID)
		}
	}

	regions, err := s.regions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve signal regions: %w", err)
	}
	names := make(map[string]string, len(regions))
	for _, r := range regions {
		names[r.ID] = r.Name
	}
	return names, nil
}

func (s *Service) footprintCategories(ctx context.Context, signals []*Signal) (map[string]string, error) {
	ids := make([]string, 0, len(signals))
	seen := map[string]bool{}
	for _, sig := range signals {
		if !seen[sig.FootprintID] {
			seen[sig.FootprintID] = true
			ids = append(ids, sig.FootprintID)
		}
	}

	fps, err := s.footprints.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve signal footprints: %w", err)
	}
	categories := make(map[string]string, len(fps))
	for _, fp := range fps {
		categories[fp.ID] = fp.Category
	}
	return categories, nil
}
