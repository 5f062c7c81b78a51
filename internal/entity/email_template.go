package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmailTemplate is a reusable email skeleton with {{variable}} placeholders.
type EmailTemplate struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	Category      string         `json:"category"`
	Goal          string         `json:"goal"`
	Tone          string         `json:"tone"`
	SubjectLines  []SubjectLine  `json:"subjectLines"`
	ContentBlocks []ContentBlock `json:"contentBlocks"`
	CTAs          []CTA          `json:"ctas"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// PrimarySubject returns the primary subject line, falling back to the first one.
func (t EmailTemplate) PrimarySubject() string {
	for _, s := range t.SubjectLines {
		if s.IsPrimary {
			return s.Text
		}
	}
	if len(t.SubjectLines) > 0 {
		return t.SubjectLines[0].Text
	}
	return ""
}

// SubjectLine is one candidate subject for a template.
type SubjectLine struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsPrimary bool      `json:"isPrimary"`
}

// ContentBlock is an ordered section of the template body.
type ContentBlock struct {
	ID        uuid.UUID `json:"id"`
	BlockType string    `json:"blockType"`
	Content   string    `json:"content"`
	Position  int       `json:"position"`
}

// CTA is a call to action rendered at the end of a template.
type CTA struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	URL   *string   `json:"url,omitempty"`
	Style string    `json:"style"`
}
