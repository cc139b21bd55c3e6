package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rosterhq/roster/internal/domain"
)

// fakeContactRepo serves a fixed contact set; only ListAll matters here.
type fakeContactRepo struct {
	contacts []domain.Contact
	err      error
}

func (f *fakeContactRepo) Create(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	return contact, nil
}

func (f *fakeContactRepo) CreateBatch(ctx context.Context, contacts []domain.Contact) (int, error) {
	return len(contacts), nil
}

func (f *fakeContactRepo) ReplaceAll(ctx context.Context, organizationID uuid.UUID, contacts []domain.Contact) (int, error) {
	return len(contacts), nil
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Contact, error) {
	return domain.Contact{}, errors.New("not implemented")
}

func (f *fakeContactRepo) List(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig, limit, offset int) ([]domain.Contact, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (f *fakeContactRepo) ListAll(ctx context.Context, organizationID uuid.UUID, filter domain.FilterConfig) ([]domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matched []domain.Contact
	for _, contact := range f.contacts {
		if contact.OrganizationID == organizationID && filter.Matches(contact.Record()) {
			matched = append(matched, contact)
		}
	}
	return matched, nil
}

func (f *fakeContactRepo) Update(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	return contact, nil
}

func (f *fakeContactRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeContactRepo) Count(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	return int64(len(f.contacts)), nil
}

func testContacts(orgID uuid.UUID) []domain.Contact {
	return []domain.Contact{
		domain.NewContact(orgID, map[string]any{"name": "Alice", "status": "active", "level": int64(3)}),
		domain.NewContact(orgID, map[string]any{"name": "Bob", "status": "inactive"}),
	}
}

func TestExportCSV(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeContactRepo{contacts: testContacts(orgID)}
	service := NewService(repo, nil)

	var buf bytes.Buffer
	result, err := service.Export(context.Background(), Request{
		OrganizationID: orgID,
		Format:         FormatCSV,
	}, &buf)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}

	if result.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Rows)
	}
	wantColumns := []string{"id", "level", "name", "status"}
	if !reflect.DeepEqual(result.Columns, wantColumns) {
		t.Fatalf("expected columns %v, got %v", wantColumns, result.Columns)
	}
	if result.Bytes != int64(buf.Len()) {
		t.Fatalf("expected byte count %d, got %d", buf.Len(), result.Bytes)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("unexpected csv parse error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if !reflect.DeepEqual(records[0], wantColumns) {
		t.Fatalf("unexpected header row: %v", records[0])
	}
	if records[1][1] != "3" || records[1][2] != "Alice" {
		t.Fatalf("unexpected first data row: %v", records[1])
	}
	// Bob has no level; the cell is blank rather than omitted.
	if records[2][1] != "" || records[2][2] != "Bob" {
		t.Fatalf("unexpected second data row: %v", records[2])
	}
}

func TestExportAppliesFilter(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeContactRepo{contacts: testContacts(orgID)}
	service := NewService(repo, nil)

	filter := domain.FilterConfig{Groups: []domain.FilterGroup{
		{Conditions: []domain.FilterCondition{
			{Field: "status", Operator: domain.OperatorEquals, Value: "active"},
		}},
	}}

	var buf bytes.Buffer
	result, err := service.Export(context.Background(), Request{
		OrganizationID: orgID,
		Filter:         filter,
		Format:         FormatCSV,
	}, &buf)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if result.Rows != 1 {
		t.Fatalf("expected only the active contact, got %d rows", result.Rows)
	}
}

func TestExportXLSX(t *testing.T) {
	orgID := uuid.New()
	repo := &fakeContactRepo{contacts: testContacts(orgID)}
	service := NewService(repo, nil)

	var buf bytes.Buffer
	result, err := service.Export(context.Background(), Request{
		OrganizationID: orgID,
		Format:         FormatXLSX,
	}, &buf)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if result.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Rows)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("expected a readable workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Contacts")
	if err != nil {
		t.Fatalf("unexpected sheet read error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][2] != "name" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	service := NewService(&fakeContactRepo{}, nil)

	var buf bytes.Buffer
	_, err := service.Export(context.Background(), Request{Format: "pdf"}, &buf)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		raw     string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ParseFormat(%q): expected ErrUnsupportedFormat, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q): expected %q, got %q (err %v)", tc.raw, tc.want, got, err)
		}
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	got := FileName("Acme Staffing", FormatCSV, now)
	want := "acme-staffing-20260314-093000.csv"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := FileName("  ", FormatXLSX, now); !strings.HasPrefix(got, "contacts-") {
		t.Fatalf("expected fallback name, got %q", got)
	}
}
