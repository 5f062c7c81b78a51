package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead priorities.
const (
	PriorityHot  = "hot"
	PriorityWarm = "warm"
	PriorityCold = "cold"
)

// MetadataKeyAIIntelligence is the lead metadata key holding the latest AI insight.
const MetadataKeyAIIntelligence = "ai_intelligence"

// Lead is a sales prospect, usually captured at an event.
type Lead struct {
	ID        uuid.UUID      `json:"id"`
	EventID   *uuid.UUID     `json:"eventId,omitempty"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Phone     *string        `json:"phone,omitempty"`
	Company   *string        `json:"company,omitempty"`
	JobTitle  *string        `json:"jobTitle,omitempty"`
	Source    *string        `json:"source,omitempty"`
	Status    string         `json:"status"`
	Priority  string         `json:"priority"`
	Notes     *string        `json:"notes,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// FullName joins first and last name, skipping blanks.
func (l Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// AIIntelligence is the versioned record stored under metadata.ai_intelligence.
type AIIntelligence struct {
	Version     int            `json:"version"`
	InsightType string         `json:"insight_type"`
	Model       string         `json:"model,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Data        map[string]any `json:"data"`
}

// AIIntelligenceVersion is bumped whenever the AIIntelligence shape changes.
const AIIntelligenceVersion = 1
