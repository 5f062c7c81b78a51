package entity

import (
	"time"

	"github.com/google/uuid"
)

// Event is a marketing event that owns leads and tasks.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *string    `json:"userId,omitempty"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	EventType   *string    `json:"eventType,omitempty"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	TargetLeads *int       `json:"targetLeads,omitempty"`
	ActualLeads *int       `json:"actualLeads,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
