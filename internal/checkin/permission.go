package checkin

import (
	"github.com/google/uuid"

	"github.com/mataleao/backend/internal/models"
)

// Principal is the authenticated actor of a check-in operation, resolved from
// the JWT by the surrounding middleware.
type Principal struct {
	ID   uuid.UUID
	Role models.Role
}

// Allowed reports whether the principal may create or cancel a check-in for
// the target user on the given class. Pure decision function; callers
// translate a false result into ErrForbidden.
//
// Precedence: admins may act on anyone; instructors only on classes they
// teach (any target); students only on themselves.
func Allowed(p Principal, targetUserID uuid.UUID, class *models.Class) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleInstructor:
		return class != nil && class.InstructorID == p.ID
	case models.RoleStudent:
		return targetUserID == p.ID
	default:
		return false
	}
}
