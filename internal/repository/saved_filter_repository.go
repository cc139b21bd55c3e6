package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterhq/roster/internal/domain"
)

// savedFilterRepository implements SavedFilterRepository on Postgres. The
// filter config is stored as JSONB in its wire shape, so legacy configs
// using the logicalOperator alias round-trip untouched.
type savedFilterRepository struct {
	pool *pgxpool.Pool
}

// NewSavedFilterRepository creates a new saved filter repository
func NewSavedFilterRepository(pool *pgxpool.Pool) SavedFilterRepository {
	return &savedFilterRepository{pool: pool}
}

const savedFilterColumns = "id, organization_id, name, config, created_at, updated_at"

// Create persists a new saved filter
func (r *savedFilterRepository) Create(ctx context.Context, filter domain.SavedFilter) (domain.SavedFilter, error) {
	configJSON, err := filter.ConfigToJSONB()
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("failed to marshal filter config: %w", err)
	}

	if filter.ID == uuid.Nil {
		filter.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO saved_filters (id, organization_id, name, config)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+savedFilterColumns,
		filter.ID, filter.OrganizationID, filter.Name, configJSON,
	)

	created, err := scanSavedFilter(row)
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("failed to create saved filter: %w", err)
	}
	return created, nil
}

// GetByID retrieves a saved filter by ID
func (r *savedFilterRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.SavedFilter, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+savedFilterColumns+" FROM saved_filters WHERE id = $1", id)

	filter, err := scanSavedFilter(row)
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("failed to get saved filter: %w", err)
	}
	return filter, nil
}

// ListByOrganization retrieves all saved filters for an organization
func (r *savedFilterRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.SavedFilter, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+savedFilterColumns+" FROM saved_filters WHERE organization_id = $1 ORDER BY name",
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved filters: %w", err)
	}
	defer rows.Close()

	var filters []domain.SavedFilter
	for rows.Next() {
		filter, err := scanSavedFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved filter: %w", err)
		}
		filters = append(filters, filter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read saved filter rows: %w", err)
	}
	return filters, nil
}

// Update replaces a saved filter's name and config
func (r *savedFilterRepository) Update(ctx context.Context, filter domain.SavedFilter) (domain.SavedFilter, error) {
	configJSON, err := filter.ConfigToJSONB()
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("failed to marshal filter config: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE saved_filters SET name = $2, config = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+savedFilterColumns,
		filter.ID, filter.Name, configJSON,
	)

	updated, err := scanSavedFilter(row)
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("failed to update saved filter: %w", err)
	}
	return updated, nil
}

// Delete deletes a saved filter
func (r *savedFilterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM saved_filters WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete saved filter: %w", err)
	}
	return nil
}

func scanSavedFilter(row pgx.Row) (domain.SavedFilter, error) {
	var (
		id         uuid.UUID
		orgID      uuid.UUID
		name       string
		configJSON json.RawMessage
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&id, &orgID, &name, &configJSON, &createdAt, &updatedAt); err != nil {
		return domain.SavedFilter{}, err
	}

	config, err := domain.ConfigFromJSONB(configJSON)
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("failed to decode config for saved filter %s: %w", id, err)
	}

	return domain.SavedFilter{
		ID:             id,
		OrganizationID: orgID,
		Name:           name,
		Config:         config,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}
