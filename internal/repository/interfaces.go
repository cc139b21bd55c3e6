package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/domain"
)

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, org domain.Organization) (domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
	GetByName(ctx context.Context, name string) (domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Update(ctx context.Context, org domain.Organization) (domain.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactRepository defines the interface for contact operations. List and
// ListAll accept a filter config; how much of it runs in the database versus
// in memory is an implementation concern (see contactRepository).
type ContactRepository interface {
	Create(ctx context.Context, contact domain.Contact) (domain.Contact, error)
	CreateBatch(ctx context.Context, contacts []domain.Contact) (int, error)
	ReplaceAll(ctx context.Context, organizationID uuid.UUID, contacts []domain.Contact) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error)
	List(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig, limit, offset int) ([]domain.Contact, int, error)
	ListAll(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig) ([]domain.Contact, error)
	Update(ctx context.Context, contact domain.Contact) (domain.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, organizationID uuid.UUID) (int64, error)
}

// SavedFilterRepository persists named filter configs per organization.
type SavedFilterRepository interface {
	Create(ctx context.Context, filter domain.SavedFilter) (domain.SavedFilter, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.SavedFilter, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.SavedFilter, error)
	Update(ctx context.Context, filter domain.SavedFilter) (domain.SavedFilter, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
