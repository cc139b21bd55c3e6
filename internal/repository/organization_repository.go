package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rosterhq/roster/internal/domain"
)

// organizationRepository implements OrganizationRepository interface
type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const organizationColumns = "id, name, description, created_at, updated_at"

// Create creates a new organization
func (r *organizationRepository) Create(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO organizations (id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING `+organizationColumns,
		org.ID, org.Name, org.Description,
	)

	created, err := scanOrganization(row)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to create organization: %w", err)
	}
	return created, nil
}

// GetByID retrieves an organization by ID
func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+organizationColumns+" FROM organizations WHERE id = $1", id)

	org, err := scanOrganization(row)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// GetByName retrieves an organization by name
func (r *organizationRepository) GetByName(ctx context.Context, name string) (domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+organizationColumns+" FROM organizations WHERE name = $1", name)

	org, err := scanOrganization(row)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to get organization by name: %w", err)
	}
	return org, nil
}

// List retrieves all organizations
func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+organizationColumns+" FROM organizations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var organizations []domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read organization rows: %w", err)
	}
	return organizations, nil
}

// Update updates an organization
func (r *organizationRepository) Update(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE organizations SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+organizationColumns,
		org.ID, org.Name, org.Description,
	)

	updated, err := scanOrganization(row)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to update organization: %w", err)
	}
	return updated, nil
}

// Delete deletes an organization
func (r *organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM organizations WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func scanOrganization(row pgx.Row) (domain.Organization, error) {
	var org domain.Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return domain.Organization{}, err
	}
	return org, nil
}
