package entity

import (
	"time"

	"github.com/google/uuid"
)

// Task is a to-do item attached to an event.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	EventID     *uuid.UUID `json:"eventId,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  *string    `json:"assignedTo,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
