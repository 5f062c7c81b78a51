package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/middleware"
	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/service"
)

type stubCompanyRepository struct {
	profiles map[string]entity.CompanyIntelligence
}

func (s *stubCompanyRepository) FindByUser(ctx context.Context, userID string) (*entity.CompanyIntelligence, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, repository.ErrCompanyIntelligenceNotFound
	}
	return &profile, nil
}

func (s *stubCompanyRepository) Upsert(ctx context.Context, profile *entity.CompanyIntelligence) (*entity.CompanyIntelligence, error) {
	if s.profiles == nil {
		s.profiles = map[string]entity.CompanyIntelligence{}
	}
	stored := *profile
	stored.ID = uuid.New()
	s.profiles[profile.UserID] = stored
	return &stored, nil
}

func TestCompanyIntelligenceHandler(t *testing.T) {
	e := echo.New()
	repo := &stubCompanyRepository{}
	h := NewCompanyIntelligenceHandler(service.NewCompanyIntelligenceService(repo))

	c, rec := jsonContext(e, http.MethodGet, "/api/company-intelligence", nil)
	c.Set(middleware.ContextKeyUserID, "user-1")
	_ = h.Get(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", rec.Code)
	}

	c, rec = jsonContext(e, http.MethodPut, "/api/company-intelligence", map[string]any{"isDraft": true})
	c.Set(middleware.ContextKeyUserID, "user-1")
	_ = h.Save(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected draft save to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if payload := decodeEnvelope(t, rec); payload.Message != "draft saved" {
		t.Fatalf("unexpected message %q", payload.Message)
	}

	c, rec = jsonContext(e, http.MethodPut, "/api/company-intelligence", map[string]any{"isDraft": false})
	c.Set(middleware.ContextKeyUserID, "user-1")
	_ = h.Save(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for final save without name, got %d", rec.Code)
	}

	c, rec = jsonContext(e, http.MethodPut, "/api/company-intelligence", map[string]any{"companyName": "Acme"})
	c.Set(middleware.ContextKeyUserID, "user-1")
	_ = h.Save(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected save to succeed, got %d", rec.Code)
	}

	c, rec = jsonContext(e, http.MethodGet, "/api/company-intelligence", nil)
	c.Set(middleware.ContextKeyUserID, "user-1")
	_ = h.Get(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after save, got %d", rec.Code)
	}
	if repo.profiles["user-1"].CompanyName != "Acme" {
		t.Fatalf("expected last write to win, got %+v", repo.profiles["user-1"])
	}

	c, rec = jsonContext(e, http.MethodGet, "/api/company-intelligence", nil)
	_ = h.Get(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a caller, got %d", rec.Code)
	}
}
