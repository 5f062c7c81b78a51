package entity

import (
	"time"

	"github.com/google/uuid"
)

// CompanyIntelligence is the per-user company profile used as prompt context.
type CompanyIntelligence struct {
	ID               uuid.UUID      `json:"id"`
	UserID           string         `json:"userId"`
	CompanyName      string         `json:"companyName"`
	Industry         *string        `json:"industry,omitempty"`
	Description      *string        `json:"description,omitempty"`
	TargetAudience   *string        `json:"targetAudience,omitempty"`
	ValueProposition *string        `json:"valueProposition,omitempty"`
	Preferences      map[string]any `json:"preferences"`
	IsDraft          bool           `json:"isDraft"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}
