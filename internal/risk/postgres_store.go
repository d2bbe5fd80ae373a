package risk

import (
	"context"
	"database/sql"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed signal store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_signals table if it doesn't exist. Footprint and
// region tables must already exist for the foreign keys.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_signals (
			id             VARCHAR(64) PRIMARY KEY,
			footprint_id   VARCHAR(64) NOT NULL REFERENCES footprints(id) ON DELETE CASCADE,
			region_id      VARCHAR(64) NOT NULL REFERENCES regions(id),
			risk_type      VARCHAR(32) NOT NULL,
			risk_score     NUMERIC(5,4) NOT NULL CHECK (risk_score BETWEEN 0 AND 1),
			explanation    TEXT NOT NULL,
			people_at_risk BIGINT NOT NULL CHECK (people_at_risk >= 0),
			created_at     TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_risk_signals_footprint ON risk_signals(footprint_id, risk_score DESC);
		CREATE INDEX IF NOT EXISTS idx_risk_signals_region ON risk_signals(region_id, risk_score DESC);
	`)
	return err
}

func (p *PostgresStore) Create(ctx context.Context, s *Signal) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO risk_signals (id, footprint_id, region_id, risk_type, risk_score, explanation, people_at_risk, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.FootprintID, s.RegionID, s.RiskType, s.RiskScore, s.Explanation, s.PeopleAtRisk, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert risk signal: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListByFootprint(ctx context.Context, footprintID string) ([]*Signal, error) {
	return p.list(ctx, `
		SELECT id, footprint_id, region_id, risk_type, risk_score, explanation, people_at_risk, created_at
		FROM risk_signals WHERE footprint_id = $1
		ORDER BY risk_score DESC, created_at DESC, id
	`, footprintID)
}

func (p *PostgresStore) ListByRegion(ctx context.Context, regionID string) ([]*Signal, error) {
	return p.list(ctx, `
		SELECT id, footprint_id, region_id, risk_type, risk_score, explanation, people_at_risk, created_at
		FROM risk_signals WHERE region_id = $1
		ORDER BY risk_score DESC, created_at DESC, id
	`, regionID)
}

func (p *PostgresStore) list(ctx context.Context, query string, arg any) ([]*Signal, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list risk signals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Signal
	for rows.Next() {
		var s Signal
		if err := rows.Scan(&s.ID, &s.FootprintID, &s.RegionID, &s.RiskType,
			&s.RiskScore, &s.Explanation, &s.PeopleAtRisk, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan risk signal: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
