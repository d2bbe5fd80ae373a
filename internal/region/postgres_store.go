package region

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed region store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the regions table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS regions (
			id                  VARCHAR(64) PRIMARY KEY,
			name                VARCHAR(255) NOT NULL,
			iso_code            VARCHAR(3) NOT NULL UNIQUE,
			vulnerability_index NUMERIC(4,3) NOT NULL CHECK (vulnerability_index BETWEEN 0 AND 1),
			population          BIGINT NOT NULL CHECK (population > 0),
			base_hazard_prob    JSONB NOT NULL,
			exposure_fraction   NUMERIC(4,3) NOT NULL CHECK (exposure_fraction BETWEEN 0 AND 1),
			created_at          TIMESTAMPTZ DEFAULT NOW(),
			updated_at          TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_regions_vulnerability ON regions(vulnerability_index DESC);
	`)
	return err
}

// Create inserts a region, replacing an existing row with the same ISO code.
// Used by the seeder; the API never creates regions.
func (p *PostgresStore) Create(ctx context.Context, r *Region) error {
	probs, err := json.Marshal(r.BaseHazardProb)
	if err != nil {
		return fmt.Errorf("marshal base_hazard_prob: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO regions (id, name, iso_code, vulnerability_index, population, base_hazard_prob, exposure_fraction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (iso_code) DO UPDATE SET
			name = EXCLUDED.name,
			vulnerability_index = EXCLUDED.vulnerability_index,
			population = EXCLUDED.population,
			base_hazard_prob = EXCLUDED.base_hazard_prob,
			exposure_fraction = EXCLUDED.exposure_fraction,
			updated_at = NOW()
	`, r.ID, r.Name, r.ISOCode, r.VulnerabilityIndex, r.Population, probs, r.ExposureFraction)
	if err != nil {
		return fmt.Errorf("insert region: %w", err)
	}
	return nil
}

// Get retrieves a region by ID.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Region, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, iso_code, vulnerability_index, population, base_hazard_prob, exposure_fraction, created_at, updated_at
		FROM regions WHERE id = $1
	`, id)

	r, err := scanRegion(row)
	if err == sql.ErrNoRows {
		return nil, ErrRegionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get region: %w", err)
	}
	return r, nil
}

// GetByIDs returns the regions that exist among ids. Unknown ids are skipped.
func (p *PostgresStore) GetByIDs(ctx context.Context, ids []string) ([]*Region, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, iso_code, vulnerability_index, population, base_hazard_prob, exposure_fraction, created_at, updated_at
		FROM regions WHERE id = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get regions by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Region
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// List returns regions matching the filter, most vulnerable first, plus the
// total matching count for pagination.
func (p *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Region, int, error) {
	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR iso_code ILIKE $%d)", len(args), len(args)))
	}
	if filter.MinVulnerability != nil {
		args = append(args, *filter.MinVulnerability)
		conditions = append(conditions, fmt.Sprintf("vulnerability_index >= $%d", len(args)))
	}
	if filter.MaxVulnerability != nil {
		args = append(args, *filter.MaxVulnerability)
		conditions = append(conditions, fmt.Sprintf("vulnerability_index <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM regions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count regions: %w", err)
	}

	query := `
		SELECT id, name, iso_code, vulnerability_index, population, base_hazard_prob, exposure_fraction, created_at, updated_at
		FROM regions` + where + `
		ORDER BY vulnerability_index DESC, name ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list regions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Region
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Count returns the total number of regions.
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM regions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count regions: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegion(row rowScanner) (*Region, error) {
	var r Region
	var probs []byte
	err := row.Scan(&r.ID, &r.Name, &r.ISOCode, &r.VulnerabilityIndex, &r.Population,
		&probs, &r.ExposureFraction, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(probs, &r.BaseHazardProb); err != nil {
		return nil, fmt.Errorf("unmarshal base_hazard_prob: %w", err)
	}
	return &r, nil
}
