package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/service"
)

type stubLeadsRepository struct {
	leads  []entity.Lead
	filter repository.LeadFilter
	bulk   func(ctx context.Context, leads []repository.NewLead) (int, error)
}

func (s *stubLeadsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Lead, error) {
	return nil, repository.ErrLeadNotFound
}

func (s *stubLeadsRepository) List(ctx context.Context, filter repository.LeadFilter) ([]entity.Lead, error) {
	s.filter = filter
	return s.leads, nil
}

func (s *stubLeadsRepository) ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Lead, error) {
	return s.leads, nil
}

func (s *stubLeadsRepository) BulkInsert(ctx context.Context, leads []repository.NewLead) (int, error) {
	if s.bulk != nil {
		return s.bulk(ctx, leads)
	}
	return len(leads), nil
}

func (s *stubLeadsRepository) MergeMetadata(ctx context.Context, id uuid.UUID, key string, value any) error {
	return nil
}

type stubEventsRepository struct {
	events []entity.Event
}

func (s *stubEventsRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	return nil, repository.ErrEventNotFound
}

func (s *stubEventsRepository) ListAll(ctx context.Context) ([]entity.Event, error) {
	return s.events, nil
}

type stubTasksRepository struct {
	tasks []entity.Task
}

func (s *stubTasksRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return nil, repository.ErrTaskNotFound
}

func (s *stubTasksRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit int) ([]entity.Task, error) {
	return s.tasks, nil
}

func (s *stubTasksRepository) ListAll(ctx context.Context, eventID *uuid.UUID) ([]entity.Task, error) {
	return s.tasks, nil
}

func (s *stubTasksRepository) Create(ctx context.Context, task repository.NewTask) (*entity.Task, error) {
	return nil, context.Canceled
}

func newLeadsHandler(leads *stubLeadsRepository) *LeadsHandler {
	svc := service.NewLeadsService(leads, &stubEventsRepository{}, &stubTasksRepository{}, service.NewContactNormalizer("US"))
	return NewLeadsHandler(svc)
}

func TestLeadsHandler_ImportMissingFile(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/leads/import", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = newLeadsHandler(&stubLeadsRepository{}).ImportCSV(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLeadsHandler_ImportInvalidCSV(t *testing.T) {
	e := echo.New()
	req, rec := multipartRequest(t, "file", "leads.csv", "company,address\nAcme,Main St\n", nil)
	c := e.NewContext(req, rec)

	_ = newLeadsHandler(&stubLeadsRepository{}).ImportCSV(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid csv, got %d", rec.Code)
	}
}

func TestLeadsHandler_ImportInvalidEventID(t *testing.T) {
	e := echo.New()
	req, rec := multipartRequest(t, "file", "leads.csv", validLeadsCSV(), map[string]string{"eventId": "nope"})
	c := e.NewContext(req, rec)

	_ = newLeadsHandler(&stubLeadsRepository{}).ImportCSV(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad eventId, got %d", rec.Code)
	}
}

func TestLeadsHandler_ImportRepositoryError(t *testing.T) {
	e := echo.New()
	req, rec := multipartRequest(t, "file", "leads.csv", validLeadsCSV(), nil)
	c := e.NewContext(req, rec)

	handler := newLeadsHandler(&stubLeadsRepository{
		bulk: func(ctx context.Context, leads []repository.NewLead) (int, error) {
			return 0, context.DeadlineExceeded
		},
	})

	_ = handler.ImportCSV(c)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLeadsHandler_ImportSuccess(t *testing.T) {
	e := echo.New()
	eventID := uuid.New()
	req, rec := multipartRequest(t, "file", "leads.csv", validLeadsCSV(), map[string]string{"eventId": eventID.String()})
	c := e.NewContext(req, rec)

	handler := newLeadsHandler(&stubLeadsRepository{
		bulk: func(ctx context.Context, leads []repository.NewLead) (int, error) {
			if len(leads) != 1 {
				t.Fatalf("expected 1 lead, got %d", len(leads))
			}
			if leads[0].EventID == nil || *leads[0].EventID != eventID {
				t.Fatalf("expected default event id to be applied")
			}
			return 1, nil
		},
	})

	_ = handler.ImportCSV(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"inserted":1`) {
		t.Fatalf("expected summary in body, got %s", rec.Body.String())
	}
}

func TestLeadsHandler_List(t *testing.T) {
	e := echo.New()
	eventID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/leads?eventId="+eventID.String()+"&priority=hot&page=2&perPage=500", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	repo := &stubLeadsRepository{leads: []entity.Lead{{ID: uuid.New(), FirstName: "Ada", Email: "ada@example.com"}}}
	if err := newLeadsHandler(repo).List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.filter.EventID == nil || *repo.filter.EventID != eventID || repo.filter.Priority != "hot" {
		t.Fatalf("unexpected filter: %+v", repo.filter)
	}
	if repo.filter.Page != 2 || repo.filter.PerPage != 100 {
		t.Fatalf("expected clamped paging, got %+v", repo.filter)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/leads?eventId=bad", nil)
	rec = httptest.NewRecorder()
	_ = newLeadsHandler(repo).List(e.NewContext(req, rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad eventId, got %d", rec.Code)
	}
}

func TestLeadsHandler_ExportCSV(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/leads/export", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	repo := &stubLeadsRepository{leads: []entity.Lead{{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Status: "new", Priority: "hot"}}}
	if err := newLeadsHandler(repo).ExportCSV(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "leads-") {
		t.Fatalf("expected attachment filename, got %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "first_name,last_name,email") || !strings.HasPrefix(lines[1], "Ada,Lovelace,ada@example.com") {
		t.Fatalf("unexpected csv body: %q", rec.Body.String())
	}
}

func TestLeadsHandler_ExportEventsAndTasks(t *testing.T) {
	e := echo.New()
	eventID := uuid.New()
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := service.NewLeadsService(
		&stubLeadsRepository{},
		&stubEventsRepository{events: []entity.Event{{ID: eventID, Name: "Expo", Status: "planning", StartDate: &start}}},
		&stubTasksRepository{tasks: []entity.Task{{ID: uuid.New(), EventID: &eventID, Title: "Book venue", Status: "todo", Priority: "high"}}},
		nil,
	)
	handler := NewLeadsHandler(svc)

	rec := httptest.NewRecorder()
	if err := handler.ExportEventsCSV(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/events/export", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), eventID.String()+",Expo,") {
		t.Fatalf("unexpected events csv: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	if err := handler.ExportTasksCSV(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tasks/export?eventId="+eventID.String(), nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Book venue") {
		t.Fatalf("unexpected tasks csv: %q", rec.Body.String())
	}
}

func multipartRequest(t *testing.T, field, filename, content string, fields map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/leads/import", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	return req, rec
}

func validLeadsCSV() string {
	return "first_name,last_name,email,phone,priority\nAda,Lovelace,ada@example.com,(415) 555-1234,hot\n"
}
