package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity types used as the first part of the insight cache key.
const (
	EntityLead     = "lead"
	EntityEvent    = "event"
	EntityTask     = "task"
	EntityTemplate = "template"
)

// AIInsight is a cached, expiring LLM result keyed by entity type, entity id and insight type.
type AIInsight struct {
	ID              uuid.UUID       `json:"id"`
	EntityType      string          `json:"entityType"`
	EntityID        uuid.UUID       `json:"entityId"`
	InsightType     string          `json:"insightType"`
	Content         json.RawMessage `json:"content"`
	ConfidenceScore *float64        `json:"confidenceScore,omitempty"`
	Model           *string         `json:"model,omitempty"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Expired reports whether the insight is no longer servable at now.
func (i AIInsight) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// AIUsage records one completion call for cost and rate bookkeeping.
type AIUsage struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"userId"`
	Feature       string    `json:"feature"`
	Model         string    `json:"model"`
	InputTokens   int       `json:"inputTokens"`
	OutputTokens  int       `json:"outputTokens"`
	EstimatedCost float64   `json:"estimatedCost"`
	CreatedAt     time.Time `json:"createdAt"`
}
