package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rosterhq/roster/internal/db"
	"github.com/rosterhq/roster/internal/domain"
	"github.com/rosterhq/roster/internal/query"
)

// contactRepository implements ContactRepository on Postgres. Contact
// fields live in a JSONB column. Translatable filters are pushed down as a
// superset prefilter over "fields ->> key" projections; the in-memory
// evaluator then re-checks every fetched row, so both list paths return
// exactly what the evaluator would.
type contactRepository struct {
	conn *db.Connection
}

// NewContactRepository creates a new contact repository
func NewContactRepository(conn *db.Connection) ContactRepository {
	return &contactRepository{conn: conn}
}

const contactColumns = "c.id, c.organization_id, c.fields, c.created_at, c.updated_at"

// Create creates a new contact
func (r *contactRepository) Create(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	fieldsJSON, err := contact.FieldsAsJSONB()
	if err != nil {
		return domain.Contact{}, fmt.Errorf("failed to marshal contact fields: %w", err)
	}

	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}

	row := r.conn.Pool.QueryRow(ctx,
		`INSERT INTO contacts (id, organization_id, fields)
		 VALUES ($1, $2, $3)
		 RETURNING id, organization_id, fields, created_at, updated_at`,
		contact.ID, contact.OrganizationID, fieldsJSON,
	)

	created, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return created, nil
}

// CreateBatch inserts contacts in one round trip and returns the number
// of rows staged.
func (r *contactRepository) CreateBatch(ctx context.Context, contacts []domain.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	rows, err := copyRows(contacts)
	if err != nil {
		return 0, err
	}

	copied, err := r.conn.Pool.CopyFrom(ctx,
		pgx.Identifier{"contacts"},
		[]string{"id", "organization_id", "fields"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to batch insert contacts: %w", err)
	}
	return int(copied), nil
}

// ReplaceAll atomically swaps an organization's contact set: existing
// contacts are deleted and the given ones inserted in one transaction, so
// a failed replacement leaves the previous set intact.
func (r *contactRepository) ReplaceAll(ctx context.Context, organizationID uuid.UUID, contacts []domain.Contact) (int, error) {
	rows, err := copyRows(contacts)
	if err != nil {
		return 0, err
	}

	var inserted int64
	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM contacts WHERE organization_id = $1", organizationID); err != nil {
			return fmt.Errorf("failed to clear existing contacts: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{"contacts"},
			[]string{"id", "organization_id", "fields"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to insert replacement contacts: %w", err)
		}
		inserted = copied
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to replace contacts: %w", err)
	}
	return int(inserted), nil
}

// GetByID retrieves a contact by ID
func (r *contactRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	row := r.conn.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM contacts c WHERE c.id = $1", contactColumns), id)

	contact, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// List returns a filtered page of contacts plus the total match count.
// Candidates come from loadCandidates (prefiltered in SQL when possible),
// then the filter engine decides membership and the page is cut in memory.
func (r *contactRepository) List(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig, limit, offset int) ([]domain.Contact, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	candidates, err := r.loadCandidates(ctx, organizationID, filter)
	if err != nil {
		return nil, 0, err
	}

	matched := filterContacts(candidates, filter)
	page, total := pageOf(matched, limit, offset)
	return page, total, nil
}

// ListAll returns every contact matching the filter, unpaginated. Used by
// the export path, which streams the full result set.
func (r *contactRepository) ListAll(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig) ([]domain.Contact, error) {
	candidates, err := r.loadCandidates(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	return filterContacts(candidates, filter), nil
}

// loadCandidates fetches the rows to evaluate the filter over. When the
// query translator can render a prefilter for the whole config, it runs in
// SQL to narrow the scan; the prefilter is a superset by contract, so the
// caller's in-memory evaluation still sees every possible match.
func (r *contactRepository) loadCandidates(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig) ([]domain.Contact, error) {
	where := "c.organization_id = $1"
	args := []any{organizationID}

	if query.Translatable(filter) {
		builder := query.NewContactQuery(1) // $1 is the organization scope
		query.Translate(builder.SelectAll(), filter)
		if clause := builder.WhereClause(); clause != "" {
			where += " AND " + clause
			args = append(args, builder.Args()...)
		}
	}

	rows, err := r.conn.Pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM contacts c WHERE %s ORDER BY c.created_at DESC", contactColumns, where),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// Update updates a contact's fields
func (r *contactRepository) Update(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	fieldsJSON, err := contact.FieldsAsJSONB()
	if err != nil {
		return domain.Contact{}, fmt.Errorf("failed to marshal contact fields: %w", err)
	}

	row := r.conn.Pool.QueryRow(ctx,
		`UPDATE contacts SET fields = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING id, organization_id, fields, created_at, updated_at`,
		contact.ID, fieldsJSON,
	)

	updated, err := scanContact(row)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return updated, nil
}

// Delete deletes a contact
func (r *contactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn.Pool.Exec(ctx, "DELETE FROM contacts WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// Count returns the total count of contacts for an organization
func (r *contactRepository) Count(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM contacts WHERE organization_id = $1", organizationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

func copyRows(contacts []domain.Contact) ([][]any, error) {
	rows := make([][]any, 0, len(contacts))
	for i := range contacts {
		fieldsJSON, err := contacts[i].FieldsAsJSONB()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal contact fields: %w", err)
		}
		id := contacts[i].ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows = append(rows, []any{id, contacts[i].OrganizationID, fieldsJSON})
	}
	return rows, nil
}

func filterContacts(contacts []domain.Contact, filter domain.FilterConfig) []domain.Contact {
	if filter.IsEmpty() {
		return contacts
	}
	matched := make([]domain.Contact, 0, len(contacts))
	for _, contact := range contacts {
		if filter.Matches(contact.Record()) {
			matched = append(matched, contact)
		}
	}
	return matched
}

// pageOf cuts a limit/offset window out of the matched set and returns it
// with the total match count.
func pageOf(matched []domain.Contact, limit, offset int) ([]domain.Contact, int) {
	total := len(matched)
	if offset >= total {
		return []domain.Contact{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total
}

func collectContacts(rows pgx.Rows) ([]domain.Contact, error) {
	var contacts []domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contact rows: %w", err)
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (domain.Contact, error) {
	var (
		id         uuid.UUID
		orgID      uuid.UUID
		fieldsJSON json.RawMessage
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&id, &orgID, &fieldsJSON, &createdAt, &updatedAt); err != nil {
		return domain.Contact{}, err
	}

	fields, err := domain.FromJSONBFields(fieldsJSON)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("failed to decode fields for contact %s: %w", id, err)
	}

	return domain.Contact{
		ID:             id,
		OrganizationID: orgID,
		Fields:         fields,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}
