package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rosterhq/roster/internal/domain"
	"github.com/rosterhq/roster/internal/repository"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Service ingests tabular contact data. Column headers become field names
// after sanitation; cell values are coerced to the narrowest scalar that
// parses so filters over numeric and boolean fields behave sensibly.
type Service struct {
	contactRepo repository.ContactRepository
	batchSize   int
}

// NewService creates a new ingestion service.
func NewService(contactRepo repository.ContactRepository) *Service {
	return &Service{
		contactRepo: contactRepo,
		batchSize:   500,
	}
}

// WithBatchSize overrides how many contacts are persisted per round trip.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Request describes the ingestion input. Replace swaps the organization's
// whole contact set for the file's contents in one transaction instead of
// appending to it.
type Request struct {
	OrganizationID uuid.UUID
	FileName       string
	Data           io.Reader
	Replace        bool
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int      `json:"totalRows"`
	ValidRows   int      `json:"validRows"`
	InvalidRows int      `json:"invalidRows"`
	Fields      []string `json:"fields"`
	Errors      []string `json:"errors,omitempty"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// Ingest reads the uploaded file and persists one contact per data row.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{Fields: []string{}, Errors: []string{}}

	if req.OrganizationID == uuid.Nil {
		return summary, errors.New("organization id is required")
	}
	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if len(table.headers) == 0 {
		return summary, errors.New("no header row detected")
	}

	summary.TotalRows = len(table.rows)
	summary.Fields = table.headers

	const maxReportedErrors = 25

	// Replace mode holds every contact until the end so the swap happens
	// in one transaction; append mode flushes in batches.
	var all []domain.Contact
	batch := make([]domain.Contact, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := s.contactRepo.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to persist contact batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for rowIdx, row := range table.rows {
		fields := make(map[string]any, len(table.headers))
		empty := true
		for colIdx, header := range table.headers {
			if colIdx >= len(row) {
				continue
			}
			raw := strings.TrimSpace(row[colIdx])
			if raw == "" {
				continue
			}
			fields[header] = coerceScalar(raw)
			empty = false
		}

		if empty {
			summary.InvalidRows++
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: no values", rowIdx+2))
			}
			continue
		}

		contact := domain.NewContact(req.OrganizationID, fields)
		summary.ValidRows++

		if req.Replace {
			all = append(all, contact)
			continue
		}

		batch = append(batch, contact)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}

	if req.Replace {
		if _, err := s.contactRepo.ReplaceAll(ctx, req.OrganizationID, all); err != nil {
			return summary, fmt.Errorf("failed to replace contacts: %w", err)
		}
		return summary, nil
	}

	if err := flush(); err != nil {
		return summary, err
	}

	return summary, nil
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string

	for _, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := sanitizeHeaders(headerRow)
	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return tableData{headers: headers, rows: dataRows}, nil
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

// sanitizeHeaders normalizes column labels into snake_case field names and
// deduplicates collisions.
func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

// coerceScalar interprets a raw cell as the narrowest scalar that parses:
// bool, then integer, then float, falling back to the original string.
func coerceScalar(raw string) any {
	lowered := strings.ToLower(raw)
	if lowered == "true" {
		return true
	}
	if lowered == "false" {
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
