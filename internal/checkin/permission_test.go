package checkin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mataleao/backend/internal/models"
)

func TestAllowed(t *testing.T) {
	self := uuid.New()
	other := uuid.New()
	instructorID := uuid.New()

	ownClass := &models.Class{ID: uuid.New(), InstructorID: instructorID}
	otherClass := &models.Class{ID: uuid.New(), InstructorID: uuid.New()}

	tests := []struct {
		name   string
		p      Principal
		target uuid.UUID
		class  *models.Class
		want   bool
	}{
		{"admin on self", Principal{ID: self, Role: models.RoleAdmin}, self, otherClass, true},
		{"admin on other user any class", Principal{ID: self, Role: models.RoleAdmin}, other, otherClass, true},
		{"admin on nil class", Principal{ID: self, Role: models.RoleAdmin}, other, nil, true},

		{"instructor on own class self", Principal{ID: instructorID, Role: models.RoleInstructor}, instructorID, ownClass, true},
		{"instructor on own class other user", Principal{ID: instructorID, Role: models.RoleInstructor}, other, ownClass, true},
		{"instructor on another instructor's class", Principal{ID: instructorID, Role: models.RoleInstructor}, other, otherClass, false},
		{"instructor on another class even for self", Principal{ID: instructorID, Role: models.RoleInstructor}, instructorID, otherClass, false},
		{"instructor with nil class", Principal{ID: instructorID, Role: models.RoleInstructor}, other, nil, false},

		{"student on self", Principal{ID: self, Role: models.RoleStudent}, self, otherClass, true},
		{"student on other user", Principal{ID: self, Role: models.RoleStudent}, other, otherClass, false},

		{"unknown role denied", Principal{ID: self, Role: models.Role("visitor")}, self, otherClass, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.p, tt.target, tt.class))
		})
	}
}
