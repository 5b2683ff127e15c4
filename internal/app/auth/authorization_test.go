package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

func TestValidateCourseOwnership(t *testing.T) {
	course := &models.Course{ID: 1, InstructorID: 10}

	tests := []struct {
		name    string
		actor   Actor
		wantErr bool
	}{
		{"owner", Actor{UserID: 10, Role: models.RoleInstructor}, false},
		{"admin", Actor{UserID: 1, Role: models.RoleAdmin}, false},
		{"other instructor", Actor{UserID: 11, Role: models.RoleInstructor}, true},
		{"student", Actor{UserID: 12, Role: models.RoleStudent}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCourseOwnership(tt.actor, course)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, ValidateCourseOwnership(Actor{UserID: 10}, nil), ErrNotOwner)
}

func TestValidateInstructor(t *testing.T) {
	assert.NoError(t, ValidateInstructor(Actor{Role: models.RoleInstructor}))
	assert.NoError(t, ValidateInstructor(Actor{Role: models.RoleAdmin}))
	assert.ErrorIs(t, ValidateInstructor(Actor{Role: models.RoleStudent}), ErrNotInstructor)
}

func TestValidateUserOwnership(t *testing.T) {
	assert.NoError(t, ValidateUserOwnership(Actor{UserID: 3}, 3))
	assert.NoError(t, ValidateUserOwnership(Actor{UserID: 1, Role: models.RoleAdmin}, 3))
	assert.ErrorIs(t, ValidateUserOwnership(Actor{UserID: 4}, 3), apperrors.ErrPermissionDenied)
}
