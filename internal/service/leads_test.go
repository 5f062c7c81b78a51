package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

func strPtr(v string) *string { return &v }

func TestLeadsService_CSVRoundTrip(t *testing.T) {
	eventID := uuid.New()
	source := newMemLeads(
		entity.Lead{ID: uuid.New(), EventID: &eventID, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: strPtr("+14155551234"), Status: "new", Priority: "hot"},
		entity.Lead{ID: uuid.New(), FirstName: "José", LastName: "O'Brien, Jr.", Email: "Jose.OBrien@Example.org", Company: strPtr("Acme \"Labs\""), Status: "contacted", Priority: "warm"},
		entity.Lead{ID: uuid.New(), FirstName: " Zoë", LastName: "Müller ", Email: "zoe@bücher.de", Status: "new", Priority: "cold"},
	)

	svc := NewLeadsService(source, newMemEvents(), newMemTasks(), nil)
	var buf bytes.Buffer
	n, err := svc.ExportLeadsCSV(context.Background(), &buf, nil)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 exported leads, got %d", n)
	}

	exported, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("exported csv unreadable: %v", err)
	}
	if strings.Join(exported[0], ",") != strings.Join(LeadCSVHeader, ",") {
		t.Fatalf("unexpected header: %v", exported[0])
	}

	target := newMemLeads()
	importer := NewLeadsService(target, newMemEvents(), newMemTasks(), nil)
	summary, err := importer.ImportLeadsCSV(context.Background(), bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("unexpected import error: %v", err)
	}
	if summary.Inserted != 3 || summary.Total != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for i, row := range exported[1:] {
		got := target.inserted[i]
		if got.FirstName != row[0] || got.LastName != row[1] || got.Email != row[2] {
			t.Fatalf("row %d not preserved: exported %v, imported %+v", i, row[:3], got)
		}
	}

	originals := map[string]entity.Lead{}
	for _, lead := range source.leads {
		originals[lead.Email] = *lead
	}
	for _, got := range target.inserted {
		orig, ok := originals[got.Email]
		if !ok {
			t.Fatalf("unexpected email %q after round trip", got.Email)
		}
		if orig.FirstName != got.FirstName || orig.LastName != got.LastName {
			t.Fatalf("names changed: %q %q vs %q %q", orig.FirstName, orig.LastName, got.FirstName, got.LastName)
		}
		if (orig.EventID == nil) != (got.EventID == nil) {
			t.Fatalf("event id not preserved for %s", got.Email)
		}
	}
}

func TestLeadsService_ImportLeadsCSV(t *testing.T) {
	defaultEvent := uuid.New()
	otherEvent := uuid.New()
	csvData := strings.Join([]string{
		"\ufeffFirst_Name,last_name,email,phone,company,priority,event_id,extra",
		"Ada,Lovelace,ada@example.com,(415) 555-1234,Acme,HOT,,x",
		",,,,,,,",
		"Alan,Turing,alan@example.com,ext 99,,," + otherEvent.String() + ",",
	}, "\n")

	repo := newMemLeads()
	svc := NewLeadsService(repo, newMemEvents(), newMemTasks(), NewContactNormalizer("US"))
	summary, err := svc.ImportLeadsCSV(context.Background(), strings.NewReader(csvData), &defaultEvent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Inserted != 2 || summary.Skipped != 1 || summary.Total != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	ada := repo.inserted[0]
	if ada.Phone == nil || *ada.Phone != "+14155551234" {
		t.Fatalf("expected normalized phone, got %v", ada.Phone)
	}
	if ada.Priority != "hot" || ada.EventID == nil || *ada.EventID != defaultEvent {
		t.Fatalf("unexpected lead: %+v", ada)
	}
	if ada.Company == nil || *ada.Company != "Acme" || ada.JobTitle != nil {
		t.Fatalf("unexpected optional fields: %+v", ada)
	}

	alan := repo.inserted[1]
	if alan.Phone == nil || *alan.Phone != "ext 99" {
		t.Fatalf("expected raw phone kept, got %v", alan.Phone)
	}
	if alan.EventID == nil || *alan.EventID != otherEvent {
		t.Fatalf("expected row event id, got %v", alan.EventID)
	}
}

func TestLeadsService_ImportLeadsCSVValidation(t *testing.T) {
	svc := NewLeadsService(newMemLeads(), newMemEvents(), newMemTasks(), nil)

	cases := []struct {
		name string
		data string
		want string
	}{
		{"empty", "", "csv file is empty"},
		{"missing columns", "first_name,phone\nAda,123\n", "missing required columns: last_name, email"},
		{"bad email", "first_name,last_name,email\nAda,Lovelace,not-an-email\n", "invalid email value on row 2"},
		{"missing name", "first_name,last_name,email\n , ,a@example.com\n", "missing name on row 2"},
		{"bad event", "first_name,last_name,email,event_id\nAda,L,a@example.com,123\n", "invalid event_id value on row 2"},
		{"bad priority", "first_name,last_name,email,priority\nAda,L,a@example.com,urgent\n", "invalid priority value on row 2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ImportLeadsCSV(context.Background(), strings.NewReader(tc.data), nil)
			var csvErr CSVValidationError
			if !errors.As(err, &csvErr) {
				t.Fatalf("expected CSVValidationError, got %v", err)
			}
			if csvErr.Message != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, csvErr.Message)
			}
		})
	}
}

func TestLeadsService_ListLeadsAppliesDefaults(t *testing.T) {
	var received repository.LeadFilter
	repo := &recordingLeads{memLeads: newMemLeads()}
	repo.onList = func(filter repository.LeadFilter) { received = filter }

	svc := NewLeadsService(repo, newMemEvents(), newMemTasks(), nil)
	if _, err := svc.ListLeads(context.Background(), repository.LeadFilter{Page: -1, PerPage: 500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Page != 1 || received.PerPage != 100 {
		t.Fatalf("expected defaults applied, got %+v", received)
	}
}

type recordingLeads struct {
	*memLeads
	onList func(filter repository.LeadFilter)
}

func (r *recordingLeads) List(ctx context.Context, filter repository.LeadFilter) ([]entity.Lead, error) {
	if r.onList != nil {
		r.onList(filter)
	}
	return r.memLeads.List(ctx, filter)
}

func TestLeadsService_ExportEventsAndTasks(t *testing.T) {
	eventID := uuid.New()
	start := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	budget := 12500.5
	target := 200
	events := newMemEvents(entity.Event{ID: eventID, Name: "Summit, 2026", Status: "planning", StartDate: &start, Budget: &budget, TargetLeads: &target})
	tasks := newMemTasks(entity.Task{ID: uuid.New(), EventID: &eventID, Title: "Print badges", Status: "todo", Priority: "low"})
	svc := NewLeadsService(newMemLeads(), events, tasks, nil)

	var eventsBuf bytes.Buffer
	if n, err := svc.ExportEventsCSV(context.Background(), &eventsBuf); err != nil || n != 1 {
		t.Fatalf("unexpected events export: %d %v", n, err)
	}
	rows, err := csv.NewReader(&eventsBuf).ReadAll()
	if err != nil {
		t.Fatalf("read events csv: %v", err)
	}
	if rows[1][1] != "Summit, 2026" || rows[1][4] != "2026-05-01T09:00:00Z" || rows[1][7] != "12500.50" || rows[1][8] != "200" {
		t.Fatalf("unexpected event row: %v", rows[1])
	}

	var tasksBuf bytes.Buffer
	if n, err := svc.ExportTasksCSV(context.Background(), &tasksBuf, &eventID); err != nil || n != 1 {
		t.Fatalf("unexpected tasks export: %d %v", n, err)
	}
	if !strings.Contains(tasksBuf.String(), "Print badges") || !strings.HasPrefix(tasksBuf.String(), "id,event_id,title") {
		t.Fatalf("unexpected tasks csv: %s", tasksBuf.String())
	}
}

func TestLeadsService_ExportFilename(t *testing.T) {
	eventID := uuid.New()
	svc := NewLeadsService(newMemLeads(), newMemEvents(entity.Event{ID: eventID, Name: "Spring Expo: Berlin 2026"}), newMemTasks(), nil)
	now := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*60*60))

	tests := []struct {
		name    string
		kind    string
		eventID *uuid.UUID
		want    string
	}{
		{name: "no event", kind: "events", want: "events-2026-03-10.csv"},
		{name: "known event", kind: "leads", eventID: &eventID, want: "leads-spring-expo-berlin-2026-2026-03-10.csv"},
		{name: "unknown event", kind: "tasks", eventID: ptrUUID(uuid.New()), want: "tasks-2026-03-10.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ExportFilename(context.Background(), tt.kind, tt.eventID, now); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	return &id
}
