package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/dashboard/api/internal/entity"
)

// ErrCompanyIntelligenceNotFound indicates the user has not saved a company profile yet.
var ErrCompanyIntelligenceNotFound = errors.New("company intelligence not found")

// CompanyIntelligenceRepository stores one company profile per user.
type CompanyIntelligenceRepository interface {
	FindByUser(ctx context.Context, userID string) (*entity.CompanyIntelligence, error)
	Upsert(ctx context.Context, profile *entity.CompanyIntelligence) (*entity.CompanyIntelligence, error)
}

// PGXCompanyIntelligenceRepository implements CompanyIntelligenceRepository using pgx.
type PGXCompanyIntelligenceRepository struct {
	pool pgxPool
}

// NewPGXCompanyIntelligenceRepository wires a pgx backed repository.
func NewPGXCompanyIntelligenceRepository(pool *pgxpool.Pool) *PGXCompanyIntelligenceRepository {
	return &PGXCompanyIntelligenceRepository{pool: pool}
}

const companyIntelligenceColumns = `id, user_id, company_name, industry, description, target_audience, value_proposition, preferences, is_draft, created_at, updated_at`

// FindByUser returns the profile owned by userID.
func (r *PGXCompanyIntelligenceRepository) FindByUser(ctx context.Context, userID string) (*entity.CompanyIntelligence, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyIntelligenceColumns+` FROM company_intelligence WHERE user_id = $1`, userID)
	profile, err := scanCompanyIntelligence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyIntelligenceNotFound
		}
		return nil, fmt.Errorf("fetch company intelligence: %w", err)
	}
	return profile, nil
}

// Upsert writes the profile; the last write wins.
func (r *PGXCompanyIntelligenceRepository) Upsert(ctx context.Context, profile *entity.CompanyIntelligence) (*entity.CompanyIntelligence, error) {
	if profile == nil {
		return nil, fmt.Errorf("company intelligence payload is nil")
	}
	if profile.UserID == "" {
		return nil, fmt.Errorf("company intelligence user id is required")
	}
	preferences, err := marshalObject(profile.Preferences)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO company_intelligence (user_id, company_name, industry, description, target_audience, value_proposition, preferences, is_draft, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, NOW())
        ON CONFLICT ON CONSTRAINT company_intelligence_user_key DO UPDATE SET
            company_name = EXCLUDED.company_name,
            industry = EXCLUDED.industry,
            description = EXCLUDED.description,
            target_audience = EXCLUDED.target_audience,
            value_proposition = EXCLUDED.value_proposition,
            preferences = EXCLUDED.preferences,
            is_draft = EXCLUDED.is_draft,
            updated_at = NOW()
        RETURNING `+companyIntelligenceColumns,
		profile.UserID,
		profile.CompanyName,
		stringOrNil(profile.Industry),
		stringOrNil(profile.Description),
		stringOrNil(profile.TargetAudience),
		stringOrNil(profile.ValueProposition),
		preferences,
		profile.IsDraft,
	)
	stored, err := scanCompanyIntelligence(row)
	if err != nil {
		return nil, fmt.Errorf("upsert company intelligence: %w", err)
	}
	return stored, nil
}

func scanCompanyIntelligence(row rowScanner) (*entity.CompanyIntelligence, error) {
	var (
		c                entity.CompanyIntelligence
		industry         sql.NullString
		description      sql.NullString
		targetAudience   sql.NullString
		valueProposition sql.NullString
		preferences      []byte
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CompanyName,
		&industry,
		&description,
		&targetAudience,
		&valueProposition,
		&preferences,
		&c.IsDraft,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Industry = nullStringToPtr(industry)
	c.Description = nullStringToPtr(description)
	c.TargetAudience = nullStringToPtr(targetAudience)
	c.ValueProposition = nullStringToPtr(valueProposition)
	if c.Preferences, err = jsonObject(preferences); err != nil {
		return nil, err
	}
	return &c, nil
}
