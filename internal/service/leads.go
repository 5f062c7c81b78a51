package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

// LeadsService exposes lead listing and the CSV import/export of leads,
// events and tasks.
type LeadsService struct {
	leads      repository.LeadsRepository
	events     repository.EventsRepository
	tasks      repository.TasksRepository
	normalizer *ContactNormalizer
}

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// UploadSummary reports how many rows were imported.
type UploadSummary struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// NewLeadsService creates a new instance of LeadsService.
func NewLeadsService(leads repository.LeadsRepository, events repository.EventsRepository, tasks repository.TasksRepository, normalizer *ContactNormalizer) *LeadsService {
	if normalizer == nil {
		normalizer = NewContactNormalizer(defaultPhoneRegion)
	}
	return &LeadsService{leads: leads, events: events, tasks: tasks, normalizer: normalizer}
}

// LeadCSVHeader is the column order of lead exports.
var LeadCSVHeader = []string{"first_name", "last_name", "email", "phone", "company", "job_title", "status", "priority", "source", "event_id"}

var (
	requiredLeadHeaders = []string{"first_name", "last_name", "email"}
	eventCSVHeader      = []string{"id", "name", "event_type", "status", "start_date", "end_date", "location", "budget", "target_leads", "actual_leads"}
	taskCSVHeader       = []string{"id", "event_id", "title", "description", "status", "priority", "due_date", "assigned_to"}
	leadPriorities      = []string{entity.PriorityHot, entity.PriorityWarm, entity.PriorityCold}
)

// ListLeads returns leads respecting pagination defaults.
func (s *LeadsService) ListLeads(ctx context.Context, filter repository.LeadFilter) ([]entity.Lead, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.leads.List(ctx, filter)
}

// ExportFilename names an export file, e.g. "leads-spring-expo-2024-05-01.csv".
// The event name is included when eventID resolves to a known event.
func (s *LeadsService) ExportFilename(ctx context.Context, kind string, eventID *uuid.UUID, now time.Time) string {
	parts := []string{kind}
	if eventID != nil && s.events != nil {
		if event, err := s.events.FindByID(ctx, *eventID); err == nil {
			if name := slug.Make(event.Name); name != "" {
				parts = append(parts, name)
			}
		}
	}
	parts = append(parts, now.UTC().Format("2006-01-02"))
	return strings.Join(parts, "-") + ".csv"
}

// ExportLeadsCSV writes every lead, optionally of one event, as CSV.
func (s *LeadsService) ExportLeadsCSV(ctx context.Context, w io.Writer, eventID *uuid.UUID) (int, error) {
	leads, err := s.leads.ListAll(ctx, eventID)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(LeadCSVHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, lead := range leads {
		record := []string{
			lead.FirstName,
			lead.LastName,
			lead.Email,
			deref(lead.Phone),
			deref(lead.Company),
			deref(lead.JobTitle),
			lead.Status,
			lead.Priority,
			deref(lead.Source),
			uuidString(lead.EventID),
		}
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(leads), nil
}

// ImportLeadsCSV ingests leads from a CSV reader. Names and emails are stored
// exactly as read so that an export can be re-imported unchanged.
func (s *LeadsService) ImportLeadsCSV(ctx context.Context, r io.Reader, defaultEventID *uuid.UUID) (UploadSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return UploadSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return UploadSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildHeaderIndex(header, requiredLeadHeaders)
	if valErr != nil {
		return UploadSummary{}, valErr
	}

	var (
		records []repository.NewLead
		skipped int
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return UploadSummary{}, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++
		col := func(name string) string {
			idx, ok := indexMap[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		if isBlankRow(row) {
			skipped++
			continue
		}

		firstName := col("first_name")
		lastName := col("last_name")
		email := col("email")
		if strings.TrimSpace(firstName) == "" && strings.TrimSpace(lastName) == "" {
			return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("missing name on row %d", rowNum)}
		}
		if !s.normalizer.ValidEmail(ctx, email) {
			return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid email value on row %d", rowNum)}
		}

		eventID := defaultEventID
		if raw := strings.TrimSpace(col("event_id")); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid event_id value on row %d", rowNum)}
			}
			eventID = &parsed
		}

		priority := strings.ToLower(strings.TrimSpace(col("priority")))
		if priority != "" && oneOf(priority, leadPriorities, "") == "" {
			return UploadSummary{}, CSVValidationError{Message: fmt.Sprintf("invalid priority value on row %d", rowNum)}
		}

		var phone *string
		if normalized := s.normalizer.NormalizePhone(col("phone")); normalized != "" {
			phone = &normalized
		}

		records = append(records, repository.NewLead{
			EventID:   eventID,
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Phone:     phone,
			Company:   normalizeString(col("company")),
			JobTitle:  normalizeString(col("job_title")),
			Source:    normalizeString(col("source")),
			Status:    strings.ToLower(strings.TrimSpace(col("status"))),
			Priority:  priority,
		})
	}

	inserted, err := s.leads.BulkInsert(ctx, records)
	if err != nil {
		return UploadSummary{}, err
	}

	return UploadSummary{
		Inserted: inserted,
		Skipped:  skipped,
		Total:    rowNum - 1,
	}, nil
}

// ExportEventsCSV writes every event as CSV.
func (s *LeadsService) ExportEventsCSV(ctx context.Context, w io.Writer) (int, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.ID.String(),
			e.Name,
			deref(e.EventType),
			e.Status,
			formatDate(e.StartDate),
			formatDate(e.EndDate),
			deref(e.Location),
			formatFloat(e.Budget),
			formatInt(e.TargetLeads),
			formatInt(e.ActualLeads),
		})
	}
	return len(events), writeCSV(w, eventCSVHeader, rows)
}

// ExportTasksCSV writes every task, optionally of one event, as CSV.
func (s *LeadsService) ExportTasksCSV(ctx context.Context, w io.Writer, eventID *uuid.UUID) (int, error) {
	tasks, err := s.tasks.ListAll(ctx, eventID)
	if err != nil {
		return 0, err
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID.String(),
			uuidString(t.EventID),
			t.Title,
			deref(t.Description),
			t.Status,
			t.Priority,
			formatDate(t.DueDate),
			deref(t.AssignedTo),
		})
	}
	return len(tasks), writeCSV(w, taskCSVHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func buildHeaderIndex(header []string, required []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	missing := make([]string, 0)
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
