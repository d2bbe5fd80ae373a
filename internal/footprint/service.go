package footprint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cialabs/carbonrisk/internal/emission"
	"github.com/cialabs/carbonrisk/internal/idgen"
	"github.com/cialabs/carbonrisk/internal/metrics"
	"github.com/cialabs/carbonrisk/internal/traces"
	"github.com/cialabs/carbonrisk/internal/validation"
)

// Service provides footprint business logic.
type Service struct {
	store Store
}

// NewService creates a new footprint service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput is one manually logged activity.
type CreateInput struct {
	Category    string
	Amount      float64
	Unit        string
	Date        time.Time
	Description string
	Meta        map[string]string
}

// Create computes the CO2 mass for one activity and persists it.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*Footprint, error) {
	activity := emission.ParseRow(in.Category, in.Amount, in.Unit, in.Description, in.Date, in.Meta)

	now := time.Now()
	fp := &Footprint{
		ID:        idgen.WithPrefix("fp_"),
		UserID:    userID,
		Category:  string(activity.Category),
		CO2Kg:     activity.CO2Kg,
		Date:      activity.Date,
		Meta:      activity.Meta,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, fp); err != nil {
		return nil, fmt.Errorf("create footprint: %w", err)
	}

	metrics.FootprintsCreatedTotal.WithLabelValues("manual").Inc()
	metrics.EmissionsComputedKg.WithLabelValues(fp.Category).Add(fp.CO2Kg)
	return fp, nil
}

// List returns a user's footprints newest-first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]*Footprint, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.store.ListByUser(ctx, userID, filter)
}

// SummaryResult is the aggregated view of a user's recent footprints.
type SummaryResult struct {
	Summary         []CategorySummary `json:"summary"`
	Period          string            `json:"period"`
	TotalCategories int               `json:"total_categories"`
	TotalCO2Kg      float64           `json:"total_co2_kg"`
}

// Summary aggregates the user's footprints by category over the named
// period. Unrecognized periods fall back to 30d rather than failing.
func (s *Service) Summary(ctx context.Context, userID, period string) (*SummaryResult, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	days, ok := validation.SummaryPeriods[period]
	if !ok {
		period = "30d"
		days = validation.SummaryPeriods[period]
	}

	buckets, err := s.store.Summary(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("summarize footprints: %w", err)
	}
	if buckets == nil {
		buckets = []CategorySummary{}
	}

	result := &SummaryResult{
		Summary:         buckets,
		Period:          period,
		TotalCategories: len(buckets),
	}
	for i := range buckets {
		buckets[i].Period = period
		result.TotalCO2Kg += buckets[i].TotalCO2Kg
	}
	return result, nil
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported  int      `json:"imported"`
	Errors    []string `json:"errors"`
	TotalRows int      `json:"total_rows"`
}

// Import parses an uploaded CSV and persists every valid row as a footprint.
// Rows fail independently: bad rows are reported in Errors while the rest
// are stored.
func (s *Service) Import(ctx context.Context, userID string, rows []Row) (*ImportResult, error) {
	ctx, span := traces.StartSpan(ctx, "footprint.import",
		traces.UserID(userID),
		traces.CSVRows(len(rows)),
	)
	defer span.End()

	activities, rowErrs := ValidateRows(rows)
	result := &ImportResult{
		Errors:    rowErrs,
		TotalRows: len(rows),
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	now := time.Now()
	for _, a := range activities {
		fp := &Footprint{
			ID:        idgen.WithPrefix("fp_"),
			UserID:    userID,
			Category:  string(a.Category),
			CO2Kg:     a.CO2Kg,
			Date:      a.Date,
			Meta:      a.Meta,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.Create(ctx, fp); err != nil {
			return nil, fmt.Errorf("import footprint: %w", err)
		}
		result.Imported++
		metrics.FootprintsCreatedTotal.WithLabelValues("csv").Inc()
		metrics.EmissionsComputedKg.WithLabelValues(fp.Category).Add(fp.CO2Kg)
		metrics.CSVRowsTotal.WithLabelValues("imported").Inc()
	}
	for range rowErrs {
		metrics.CSVRowsTotal.WithLabelValues("rejected").Inc()
	}

	return result, nil
}

// Delete removes a footprint the user owns.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}
