package models

import (
	"time"

	"github.com/google/uuid"
)

// ClassPhase is the derived temporal state of a class. It is never stored;
// it is computed from the start/end instants at read time.
type ClassPhase string

const (
	PhaseNotStarted ClassPhase = "not-started"
	PhaseInProgress ClassPhase = "in-progress"
	PhaseFinished   ClassPhase = "finished"
)

// Class represents a scheduled training session.
type Class struct {
	ID           uuid.UUID  `json:"id"`
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Date         time.Time  `json:"date"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	InstructorID uuid.UUID  `json:"instructor_id"`
	CategoryID   uuid.UUID  `json:"category_id"`
	Capacity     int        `json:"capacity"`
	IsRecurring  bool       `json:"is_recurring"`
	RecurrenceID *uuid.UUID `json:"recurrence_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ClassDetail is a Class joined with instructor/category names and its
// active check-in count, as returned by list and detail endpoints.
type ClassDetail struct {
	Class
	InstructorName string     `json:"instructor_name"`
	CategoryType   string     `json:"category_type"`
	Status         ClassPhase `json:"status"`
	CheckinCount   int        `json:"checkin_count"`
}
