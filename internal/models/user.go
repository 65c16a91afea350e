package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the academy.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// User represents an academy member.
type User struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Password         string    `json:"-"`
	Role             Role      `json:"role"`
	IsActive         bool      `json:"is_active"`
	BeltID           uuid.UUID `json:"belt_id"`
	CompletedClasses int       `json:"completed_classes"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	BeltID           uuid.UUID `json:"belt_id"`
	CompletedClasses int       `json:"completed_classes"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		BeltID:           u.BeltID,
		CompletedClasses: u.CompletedClasses,
		AvatarURL:        u.AvatarURL,
		CreatedAt:        u.CreatedAt,
	}
}
