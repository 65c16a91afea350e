package models

import (
	"time"

	"github.com/google/uuid"
)

// Belt is a graduation rank with the number of completed classes required
// to be promoted out of it.
type Belt struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	RequiredClasses int       `json:"required_classes"`
	CreatedAt       time.Time `json:"created_at"`
}

// Category classifies a class (age group / skill level).
type Category struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
