package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config/connections/postgres"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

// SchoolRepo stores each tenant snapshot as one jsonb row.
type SchoolRepo struct {
	pg    *postgres.Postgres
	table string
}

func NewSchoolRepo(pg *postgres.Postgres) *SchoolRepo {
	return &SchoolRepo{pg: pg, table: "school_snapshots"}
}

func (r *SchoolRepo) GetTableName() string {
	return r.table
}

func (r *SchoolRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pg.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+r.table+` (
			id         text PRIMARY KEY,
			name       text NOT NULL DEFAULT '',
			payload    jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (r *SchoolRepo) Load(ctx context.Context, id string) (models.School, error) {
	var raw []byte
	err := r.pg.Pool.QueryRow(ctx,
		`SELECT payload FROM `+r.table+` WHERE id = $1`,
		id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.School{}, fmt.Errorf("%w: %s", ports.ErrSchoolNotFound, id)
	}
	if err != nil {
		return models.School{}, fmt.Errorf("load school %s: %w", id, err)
	}
	return decodeSchool(raw)
}

const upsertSchoolQuery = `
	INSERT INTO school_snapshots (id, name, payload, updated_at)
	VALUES ($1::text, $2::text, $3::jsonb, NOW())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
	    payload = EXCLUDED.payload,
	    updated_at = NOW();
`

func (r *SchoolRepo) Save(ctx context.Context, school models.School) error {
	if school.ID == "" {
		return errors.New("save school: empty id")
	}
	raw, err := json.Marshal(school)
	if err != nil {
		return err
	}
	if _, err := r.pg.Pool.Exec(ctx, upsertSchoolQuery, school.ID, school.Name, raw); err != nil {
		return fmt.Errorf("save school %s: %w", school.ID, err)
	}
	return nil
}

func (r *SchoolRepo) List(ctx context.Context) ([]models.School, error) {
	rows, err := r.pg.Pool.Query(ctx, `SELECT payload FROM `+r.table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.School, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		s, err := decodeSchool(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func decodeSchool(raw []byte) (models.School, error) {
	var s models.School
	if err := json.Unmarshal(raw, &s); err != nil {
		return models.School{}, fmt.Errorf("decode school: %w", err)
	}
	return s, nil
}

var _ ports.SchoolStore = (*SchoolRepo)(nil)
