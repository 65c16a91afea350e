package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckinStatus is the persisted state of a check-in. Only "done" rows
// consume class capacity.
type CheckinStatus string

const (
	CheckinDone      CheckinStatus = "done"
	CheckinCancelled CheckinStatus = "cancelled"
)

// Checkin is a user's attendance commitment to a class. At most one row
// exists per (user, class) pair; cancellation and reactivation reuse it.
type Checkin struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	ClassID     uuid.UUID     `json:"class_id"`
	Status      CheckinStatus `json:"status"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
