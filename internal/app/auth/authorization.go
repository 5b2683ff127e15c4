package auth

import (
	"fmt"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// Authorization errors built on the central permission sentinel
var (
	ErrNotInstructor = fmt.Errorf("only instructors can perform this action: %w", apperrors.ErrPermissionDenied)
	ErrNotOwner      = fmt.Errorf("you don't have permission for this resource: %w", apperrors.ErrPermissionDenied)
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID int64
	Role   models.RoleType
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsInstructor reports whether the actor teaches courses
func (a Actor) IsInstructor() bool {
	return a.Role == models.RoleInstructor
}

// IsStudent reports whether the actor is a learner
func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}

// CanManageCourse reports whether the actor owns the course or is an admin
func (a Actor) CanManageCourse(course *models.Course) bool {
	if course == nil {
		return false
	}
	return a.IsAdmin() || course.IsOwnedBy(a.UserID)
}

// ValidateInstructor returns ErrNotInstructor unless the actor can author courses
func ValidateInstructor(a Actor) error {
	if a.IsInstructor() || a.IsAdmin() {
		return nil
	}
	return ErrNotInstructor
}

// ValidateCourseOwnership returns ErrNotOwner unless the actor may manage the course
func ValidateCourseOwnership(a Actor, course *models.Course) error {
	if !a.CanManageCourse(course) {
		return ErrNotOwner
	}
	return nil
}

// ValidateUserOwnership allows the owner of a record or an admin
func ValidateUserOwnership(a Actor, ownerID int64) error {
	if a.IsAdmin() || a.UserID == ownerID {
		return nil
	}
	return ErrNotOwner
}
