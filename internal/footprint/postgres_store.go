package footprint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed footprint store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the footprints table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS footprints (
			id         VARCHAR(64) PRIMARY KEY,
			user_id    VARCHAR(64) NOT NULL,
			category   VARCHAR(100) NOT NULL,
			co2_kg     NUMERIC(14,4) NOT NULL CHECK (co2_kg >= 0),
			date       DATE NOT NULL,
			meta       JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_footprints_user_date ON footprints(user_id, date DESC);
		CREATE INDEX IF NOT EXISTS idx_footprints_user_category ON footprints(user_id, category);
	`)
	return err
}

// Create inserts a footprint.
func (p *PostgresStore) Create(ctx context.Context, fp *Footprint) error {
	var meta []byte
	if fp.Meta != nil {
		var err error
		meta, err = json.Marshal(fp.Meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO footprints (id, user_id, category, co2_kg, date, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, fp.ID, fp.UserID, fp.Category, fp.CO2Kg, fp.Date, meta, fp.CreatedAt, fp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert footprint: %w", err)
	}
	return nil
}

// Get retrieves a footprint by ID.
func (p *PostgresStore) Get(ctx context.Context, id string) (*Footprint, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, category, co2_kg, date, meta, created_at, updated_at
		FROM footprints WHERE id = $1
	`, id)

	fp, err := scanFootprint(row)
	if err == sql.ErrNoRows {
		return nil, ErrFootprintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get footprint: %w", err)
	}
	return fp, nil
}

// GetByIDs returns the footprints among ids regardless of owner. Unknown ids
// are skipped; ownership checks are the caller's.
func (p *PostgresStore) GetByIDs(ctx context.Context, ids []string) ([]*Footprint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, category, co2_kg, date, meta, created_at, updated_at
		FROM footprints WHERE id = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get footprints by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Footprint
	for rows.Next() {
		fp, err := scanFootprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan footprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

// ListByUser returns the user's footprints newest-first with the total
// matching count.
func (p *PostgresStore) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*Footprint, int, error) {
	where := " WHERE user_id = $1"
	args := []any{userID}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM footprints"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count footprints: %w", err)
	}

	query := `
		SELECT id, user_id, category, co2_kg, date, meta, created_at, updated_at
		FROM footprints` + where + `
		ORDER BY date DESC, id DESC`

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
		return nil, 0, fmt.Errorf("list footprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Footprint
	for rows.Next() {
		fp, err := scanFootprint(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan footprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, total, rows.Err()
}

// Summary aggregates the user's footprints by category over the trailing
// window, largest emitters first.
func (p *PostgresStore) Summary(ctx context.Context, userID string, days int) ([]CategorySummary, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT category, SUM(co2_kg), COUNT(*)
		FROM footprints
		WHERE user_id = $1 AND date >= CURRENT_DATE - $2 * INTERVAL '1 day'
		GROUP BY category
		ORDER BY SUM(co2_kg) DESC
	`, userID, days)
	if err != nil {
		return nil, fmt.Errorf("summarize footprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CategorySummary
	for rows.Next() {
		var b CategorySummary
		if err := rows.Scan(&b.Category, &b.TotalCO2Kg, &b.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete removes a footprint owned by userID.
func (p *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	var owner string
	err := p.db.QueryRowContext(ctx, `SELECT user_id FROM footprints WHERE id = $1`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrFootprintNotFound
	}
	if err != nil {
		return fmt.Errorf("get footprint owner: %w", err)
	}
	if owner != userID {
		return ErrNotOwner
	}

	_, err = p.db.ExecContext(ctx, `DELETE FROM footprints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete footprint: %w", err)
	}
	return nil
}

func scanFootprint(row interface{ Scan(dest ...any) error }) (*Footprint, error) {
	var fp Footprint
	var meta []byte
	err := row.Scan(&fp.ID, &fp.UserID, &fp.Category, &fp.CO2Kg, &fp.Date, &meta, &fp.CreatedAt, &fp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &fp.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	return &fp, nil
}
