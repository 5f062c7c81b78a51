package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/dashboard/api/internal/entity"
)

// ErrInsightNotFound indicates there is no live cached insight for the key.
var ErrInsightNotFound = errors.New("insight not found")

// InsightKey identifies one cached insight row.
type InsightKey struct {
	EntityType  string
	EntityID    uuid.UUID
	InsightType string
}

// InsightsRepository persists the generic AI insight cache.
type InsightsRepository interface {
	Upsert(ctx context.Context, insight *entity.AIInsight) (*entity.AIInsight, error)
	Find(ctx context.Context, key InsightKey, now time.Time) (*entity.AIInsight, error)
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, now time.Time) ([]entity.AIInsight, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// PGXInsightsRepository implements InsightsRepository using pgx.
type PGXInsightsRepository struct {
	pool pgxPool
}

// NewPGXInsightsRepository wires a pgx backed repository.
func NewPGXInsightsRepository(pool *pgxpool.Pool) *PGXInsightsRepository {
	return &PGXInsightsRepository{pool: pool}
}

const insightColumns = `id, entity_type, entity_id, insight_type, content, confidence_score, model, expires_at, created_at, updated_at`

// Upsert stores the insight, replacing any previous row with the same key.
func (r *PGXInsightsRepository) Upsert(ctx context.Context, insight *entity.AIInsight) (*entity.AIInsight, error) {
	if insight == nil {
		return nil, fmt.Errorf("insight payload is nil")
	}
	if insight.EntityType == "" || insight.InsightType == "" || insight.EntityID == uuid.Nil {
		return nil, fmt.Errorf("insight key is incomplete")
	}
	content := insight.Content
	if len(content) == 0 {
		content = json.RawMessage("{}")
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO ai_insights (entity_type, entity_id, insight_type, content, confidence_score, model, expires_at, updated_at)
        VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, NOW())
        ON CONFLICT ON CONSTRAINT ai_insights_entity_key DO UPDATE SET
            content = EXCLUDED.content,
            confidence_score = EXCLUDED.confidence_score,
            model = EXCLUDED.model,
            expires_at = EXCLUDED.expires_at,
            updated_at = NOW()
        RETURNING `+insightColumns,
		insight.EntityType,
		insight.EntityID,
		insight.InsightType,
		string(content),
		floatOrNil(insight.ConfidenceScore),
		stringOrNil(insight.Model),
		timeOrNil(insight.ExpiresAt),
	)

	stored, err := scanInsight(row)
	if err != nil {
		return nil, fmt.Errorf("upsert insight: %w", err)
	}
	return stored, nil
}

// Find returns the cached insight for key if it has not expired at now.
func (r *PGXInsightsRepository) Find(ctx context.Context, key InsightKey, now time.Time) (*entity.AIInsight, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+insightColumns+`
        FROM ai_insights
        WHERE entity_type = $1 AND entity_id = $2 AND insight_type = $3
          AND (expires_at IS NULL OR expires_at > $4)
        ORDER BY updated_at DESC
        LIMIT 1
    `, key.EntityType, key.EntityID, key.InsightType, now)

	insight, err := scanInsight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsightNotFound
		}
		return nil, fmt.Errorf("fetch insight: %w", err)
	}
	return insight, nil
}

// ListForEntity returns every unexpired insight of an entity, newest first.
func (r *PGXInsightsRepository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, now time.Time) ([]entity.AIInsight, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+insightColumns+`
        FROM ai_insights
        WHERE entity_type = $1 AND entity_id = $2
          AND (expires_at IS NULL OR expires_at > $3)
        ORDER BY updated_at DESC, insight_type ASC
    `, entityType, entityID, now)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var insights []entity.AIInsight
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, *insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return insights, nil
}

// DeleteExpired removes insights whose expiry is at or before the cutoff.
func (r *PGXInsightsRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ai_insights WHERE expires_at IS NOT NULL AND expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired insights: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func scanInsight(row rowScanner) (*entity.AIInsight, error) {
	var (
		i          entity.AIInsight
		content    []byte
		confidence sql.NullFloat64
		model      sql.NullString
		expiresAt  sql.NullTime
	)
	err := row.Scan(
		&i.ID,
		&i.EntityType,
		&i.EntityID,
		&i.InsightType,
		&content,
		&confidence,
		&model,
		&expiresAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		i.Content = json.RawMessage(content)
	} else {
		i.Content = json.RawMessage("{}")
	}
	i.ConfidenceScore = nullFloatToPtr(confidence)
	i.Model = nullStringToPtr(model)
	i.ExpiresAt = nullTimeToPtr(expiresAt)
	return &i, nil
}
