package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/dashboard/api/internal/entity"
)

// UsageRepository records completion calls and counts them for the daily ceiling.
type UsageRepository interface {
	Record(ctx context.Context, usage *entity.AIUsage) error
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// PGXUsageRepository implements UsageRepository using pgx.
type PGXUsageRepository struct {
	pool pgxPool
}

// NewPGXUsageRepository wires a pgx backed repository.
func NewPGXUsageRepository(pool *pgxpool.Pool) *PGXUsageRepository {
	return &PGXUsageRepository{pool: pool}
}

// Record appends a usage row.
func (r *PGXUsageRepository) Record(ctx context.Context, usage *entity.AIUsage) error {
	if usage == nil {
		return fmt.Errorf("usage payload is nil")
	}
	_, err := r.pool.Exec(ctx, `
        INSERT INTO ai_usage (user_id, feature, model, input_tokens, output_tokens, estimated_cost)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, usage.UserID, usage.Feature, usage.Model, usage.InputTokens, usage.OutputTokens, usage.EstimatedCost)
	if err != nil {
		return fmt.Errorf("record ai usage: %w", err)
	}
	return nil
}

// CountSince counts usage rows for a user created after since.
func (r *PGXUsageRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ai_usage WHERE user_id = $1 AND created_at > $2`, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ai usage: %w", err)
	}
	return count, nil
}
