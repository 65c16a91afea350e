package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailConfirmation is a one-shot account activation code. The code itself
// is never stored, only its bcrypt hash.
type EmailConfirmation struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	CodeHash   string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsConsumed bool      `json:"is_consumed"`
	CreatedAt  time.Time `json:"created_at"`
}
