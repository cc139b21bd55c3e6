package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/rosterhq/roster/internal/domain"
	"github.com/rosterhq/roster/internal/repository"
)

// Format selects the file encoding for an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned when a request names a format the
// service cannot produce.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat normalizes a raw format string. An empty value defaults
// to CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the MIME type to serve the format with.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Request describes a single export run.
type Request struct {
	OrganizationID uuid.UUID
	Filter         domain.FilterConfig
	Format         Format
}

// Result summarizes what an export produced.
type Result struct {
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Bytes   int64    `json:"bytes"`
}

// Service streams filtered contact sets as CSV or XLSX files.
type Service struct {
	contacts repository.ContactRepository
	logger   *logrus.Logger
}

func NewService(contacts repository.ContactRepository, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{contacts: contacts, logger: logger}
}

// Export writes the matching contacts for the request to w in the
// requested format and reports how much was written.
func (s *Service) Export(ctx context.Context, req Request, w io.Writer) (Result, error) {
	switch req.Format {
	case FormatCSV, FormatXLSX:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	started := time.Now()
	contacts, err := s.contacts.ListAll(ctx, req.OrganizationID, req.Filter)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load contacts for export: %w", err)
	}

	columns := collectColumns(contacts)
	var result Result
	switch req.Format {
	case FormatCSV:
		result, err = writeCSV(w, columns, contacts)
	case FormatXLSX:
		result, err = writeXLSX(w, columns, contacts)
	}
	if err != nil {
		return Result{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": req.OrganizationID,
		"format":          req.Format,
		"rows":            result.Rows,
		"duration":        time.Since(started),
	}).Info("export completed")
	return result, nil
}

// FileName builds a download name from the organization label and the
// current time.
func FileName(label string, format Format, now time.Time) string {
	component := sanitizeFileComponent(label)
	return fmt.Sprintf("%s-%s.%s", component, now.UTC().Format("20060102-150405"), format)
}

// collectColumns returns the sorted union of field keys across the
// contact set. The id column always leads.
func collectColumns(contacts []domain.Contact) []string {
	seen := make(map[string]struct{})
	for _, contact := range contacts {
		for key := range contact.Fields {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	columns := make([]string, 0, len(keys)+1)
	columns = append(columns, "id")
	columns = append(columns, keys...)
	return columns
}

func rowValues(columns []string, contact domain.Contact) []string {
	values := make([]string, len(columns))
	for i, column := range columns {
		if column == "id" {
			values[i] = contact.ID.String()
			continue
		}
		values[i] = formatValue(contact.Fields[column])
	}
	return values
}

func writeCSV(w io.Writer, columns []string, contacts []domain.Contact) (Result, error) {
	counter := &countingWriter{writer: bufio.NewWriter(w)}
	writer := csv.NewWriter(counter)
	if err := writer.Write(columns); err != nil {
		return Result{}, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, contact := range contacts {
		if err := writer.Write(rowValues(columns, contact)); err != nil {
			return Result{}, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return Result{}, fmt.Errorf("failed to flush export: %w", err)
	}
	if err := counter.writer.Flush(); err != nil {
		return Result{}, fmt.Errorf("failed to flush export: %w", err)
	}
	return Result{Rows: len(contacts), Columns: columns, Bytes: counter.count}, nil
}

func writeXLSX(w io.Writer, columns []string, contacts []domain.Contact) (Result, error) {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Contacts"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create export sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return Result{}, fmt.Errorf("failed to prepare export sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return Result{}, fmt.Errorf("failed to write export header: %w", err)
	}
	for rowIdx, contact := range contacts {
		values := rowValues(columns, contact)
		row := make([]any, len(values))
		for i, value := range values {
			row[i] = value
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return Result{}, fmt.Errorf("failed to address export row: %w", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return Result{}, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	counter := &countingWriter{writer: bufio.NewWriter(w)}
	if _, err := file.WriteTo(counter); err != nil {
		return Result{}, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := counter.writer.Flush(); err != nil {
		return Result{}, fmt.Errorf("failed to flush export: %w", err)
	}
	return Result{Rows: len(contacts), Columns: columns, Bytes: counter.count}, nil
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return "contacts"
	}
	return result
}

type countingWriter struct {
	writer *bufio.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case float32, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case []byte:
		return string(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
