package service

import (
	"context"
	"errors"
	"strings"

	"github.com/eventra/dashboard/api/internal/dto"
	"github.com/eventra/dashboard/api/internal/entity"
	"github.com/eventra/dashboard/api/internal/repository"
)

const maxCompanyFieldLength = 2000

// CompanyIntelligenceService reads and saves the caller's company profile.
type CompanyIntelligenceService struct {
	repo repository.CompanyIntelligenceRepository
}

// NewCompanyIntelligenceService constructs the service.
func NewCompanyIntelligenceService(repo repository.CompanyIntelligenceRepository) *CompanyIntelligenceService {
	return &CompanyIntelligenceService{repo: repo}
}

// Get returns the profile saved by userID.
func (s *CompanyIntelligenceService) Get(ctx context.Context, userID string) (*entity.CompanyIntelligence, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ValidationError{Field: "userId", Message: "userId is required"}
	}
	profile, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyIntelligenceNotFound) {
			return nil, NotFoundError{Resource: "company intelligence"}
		}
		return nil, err
	}
	return profile, nil
}

// Save stores the profile. A final save needs a company name; drafts do not.
func (s *CompanyIntelligenceService) Save(ctx context.Context, userID string, req dto.CompanyIntelligenceRequest) (*entity.CompanyIntelligence, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ValidationError{Field: "userId", Message: "userId is required"}
	}
	name := strings.TrimSpace(req.CompanyName)
	if name == "" && !req.IsDraft {
		return nil, ValidationError{Field: "companyName", Message: "companyName is required"}
	}

	profile := &entity.CompanyIntelligence{
		UserID:      userID,
		CompanyName: name,
		Preferences: req.Preferences,
		IsDraft:     req.IsDraft,
	}
	fields := []struct {
		name string
		in   *string
		out  **string
	}{
		{"industry", req.Industry, &profile.Industry},
		{"description", req.Description, &profile.Description},
		{"targetAudience", req.TargetAudience, &profile.TargetAudience},
		{"valueProposition", req.ValueProposition, &profile.ValueProposition},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		trimmed := strings.TrimSpace(*f.in)
		if len([]rune(trimmed)) > maxCompanyFieldLength {
			return nil, ValidationError{Field: f.name, Message: f.name + " is too long"}
		}
		if trimmed != "" {
			*f.out = &trimmed
		}
	}
	if profile.Preferences == nil {
		profile.Preferences = map[string]any{}
	}

	return s.repo.Upsert(ctx, profile)
}
