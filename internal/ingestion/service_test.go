package ingestion

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rosterhq/roster/internal/domain"
)

// fakeContactRepo records CreateBatch and ReplaceAll calls; the other
// methods are unused by the ingestion service.
type fakeContactRepo struct {
	batches  [][]domain.Contact
	replaced []domain.Contact
	replaces int
	failOn   int
}

func (f *fakeContactRepo) Create(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	return contact, nil
}

func (f *fakeContactRepo) CreateBatch(ctx context.Context, contacts []domain.Contact) (int, error) {
	if f.failOn > 0 && len(f.batches)+1 == f.failOn {
		return 0, errors.New("storage unavailable")
	}
	batch := make([]domain.Contact, len(contacts))
	copy(batch, contacts)
	f.batches = append(f.batches, batch)
	return len(batch), nil
}

func (f *fakeContactRepo) ReplaceAll(ctx context.Context, organizationID uuid.UUID, contacts []domain.Contact) (int, error) {
	f.replaces++
	f.replaced = make([]domain.Contact, len(contacts))
	copy(f.replaced, contacts)
	return len(contacts), nil
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	return domain.Contact{}, errors.New("not implemented")
}

func (f *fakeContactRepo) List(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig, limit, offset int) ([]domain.Contact, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeContactRepo) ListAll(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig) ([]domain.Contact, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeContactRepo) Update(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	return contact, nil
}

func (f *fakeContactRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeContactRepo) Count(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeContactRepo) contacts() []domain.Contact {
	var all []domain.Contact
	for _, batch := range f.batches {
		all = append(all, batch...)
	}
	return all
}

func TestIngestCSV(t *testing.T) {
	repo := &fakeContactRepo{}
	service := NewService(repo)
	orgID := uuid.New()

	csvData := "First Name,Email,Years Experience,Remote\n" +
		"Alice,alice@example.com,5,true\n" +
		"Bob,bob@example.com,2.5,false\n"

	summary, err := service.Ingest(context.Background(), Request{
		OrganizationID: orgID,
		FileName:       "contacts.csv",
		Data:           strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}

	if summary.TotalRows != 2 || summary.ValidRows != 2 || summary.InvalidRows != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	wantFields := []string{"first_name", "email", "years_experience", "remote"}
	if !reflect.DeepEqual(summary.Fields, wantFields) {
		t.Fatalf("expected fields %v, got %v", wantFields, summary.Fields)
	}

	contacts := repo.contacts()
	if len(contacts) != 2 {
		t.Fatalf("expected 2 persisted contacts, got %d", len(contacts))
	}
	first := contacts[0]
	if first.OrganizationID != orgID {
		t.Fatalf("expected organization id %s, got %s", orgID, first.OrganizationID)
	}
	if first.Fields["first_name"] != "Alice" {
		t.Fatalf("expected first_name Alice, got %v", first.Fields["first_name"])
	}
	if first.Fields["years_experience"] != int64(5) {
		t.Fatalf("expected years_experience coerced to int64, got %T %v",
			first.Fields["years_experience"], first.Fields["years_experience"])
	}
	if first.Fields["remote"] != true {
		t.Fatalf("expected remote coerced to bool, got %v", first.Fields["remote"])
	}
	if contacts[1].Fields["years_experience"] != 2.5 {
		t.Fatalf("expected fractional value coerced to float64, got %v",
			contacts[1].Fields["years_experience"])
	}
}

func TestIngestSkipsBlankRowsAndReportsThem(t *testing.T) {
	repo := &fakeContactRepo{}
	service := NewService(repo)

	csvData := "name,email\nAlice,alice@example.com\n,,\nBob,bob@example.com\n"
	summary, err := service.Ingest(context.Background(), Request{
		OrganizationID: uuid.New(),
		FileName:       "contacts.csv",
		Data:           strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}

	if summary.TotalRows != 2 || summary.ValidRows != 2 {
		t.Fatalf("expected blank rows filtered before counting, got %+v", summary)
	}
	if len(repo.contacts()) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(repo.contacts()))
	}
}

func TestIngestBOMAndDuplicateHeaders(t *testing.T) {
	repo := &fakeContactRepo{}
	service := NewService(repo)

	csvData := "\xEF\xBB\xBFName,Name,\nAlice,Smith,note\n"
	summary, err := service.Ingest(context.Background(), Request{
		OrganizationID: uuid.New(),
		FileName:       "contacts.csv",
		Data:           strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}

	wantFields := []string{"name", "name_2", "column_3"}
	if !reflect.DeepEqual(summary.Fields, wantFields) {
		t.Fatalf("expected fields %v, got %v", wantFields, summary.Fields)
	}
	contact := repo.contacts()[0]
	if contact.Fields["name"] != "Alice" || contact.Fields["name_2"] != "Smith" {
		t.Fatalf("unexpected contact fields: %v", contact.Fields)
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	service := NewService(&fakeContactRepo{})

	_, err := service.Ingest(context.Background(), Request{
		OrganizationID: uuid.New(),
		FileName:       "contacts.pdf",
		Data:           strings.NewReader("data"),
	})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestIngestBatching(t *testing.T) {
	repo := &fakeContactRepo{}
	service := NewService(repo).WithBatchSize(2)

	csvData := "name\na\nb\nc\nd\ne\n"
	summary, err := service.Ingest(context.Background(), Request{
		OrganizationID: uuid.New(),
		FileName:       "contacts.csv",
		Data:           strings.NewReader(csvData),
	})
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}

	if summary.ValidRows != 5 {
		t.Fatalf("expected 5 valid rows, got %d", summary.ValidRows)
	}
	if len(repo.batches) != 3 {
		t.Fatalf("expected 3 batches of size <=2, got %d", len(repo.batches))
	}
	if len(repo.batches[0]) != 2 || len(repo.batches[2]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", repo.batches)
	}
}

func TestIngestReplaceModeSwapsInOneCall(t *testing.T) {
	repo := &fakeContactRepo{}
	service := NewService(repo).WithBatchSize(2)
	orgID := uuid.New()

	csvData := "name\na\nb\nc\nd\ne\n"
	summary, err := service.Ingest(context.Background(), Request{
		OrganizationID: orgID,
		FileName:       "contacts.csv",
		Data:           strings.NewReader(csvData),
		Replace:        true,
	})
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}

	if summary.ValidRows != 5 {
		t.Fatalf("expected 5 valid rows, got %d", summary.ValidRows)
	}
	if len(repo.batches) != 0 {
		t.Fatalf("expected no append batches in replace mode, got %d", len(repo.batches))
	}
	if repo.replaces != 1 {
		t.Fatalf("expected exactly one replace call, got %d", repo.replaces)
	}
	if len(repo.replaced) != 5 {
		t.Fatalf("expected all 5 contacts in the replacement set, got %d", len(repo.replaced))
	}
	if repo.replaced[0].OrganizationID != orgID {
		t.Fatalf("expected organization id %s, got %s", orgID, repo.replaced[0].OrganizationID)
	}
}

func TestIngestPersistFailureSurfaces(t *testing.T) {
	repo := &fakeContactRepo{failOn: 1}
	service := NewService(repo)

	csvData := "name\nAlice\n"
	_, err := service.Ingest(context.Background(), Request{
		OrganizationID: uuid.New(),
		FileName:       "contacts.csv",
		Data:           strings.NewReader(csvData),
	})
	if err == nil || !strings.Contains(err.Error(), "failed to persist contact batch") {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestCoerceScalar(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"2.5", 2.5},
		{"hello", "hello"},
		{"12abc", "12abc"},
	}
	for _, tc := range cases {
		if got := coerceScalar(tc.raw); got != tc.want {
			t.Errorf("coerceScalar(%q): expected %T %v, got %T %v", tc.raw, tc.want, tc.want, got, got)
		}
	}
}
