package dto

import "github.com/yigit/learnsphere/internal/app/models"

// UserFilterRequest represents admin user filtering parameters
type UserFilterRequest struct {
	Role   string `form:"role" binding:"omitempty,oneof=STUDENT INSTRUCTOR ADMIN"`
	Search string `form:"search"`
}

// UpdateUserStatusRequest activates or deactivates an account
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UpdateUserRoleRequest changes the role of an account
type UpdateUserRoleRequest struct {
	Role models.RoleType `json:"role" binding:"required,oneof=STUDENT INSTRUCTOR ADMIN"`
}

// NewUserResponses converts a slice of users
func NewUserResponses(users []*models.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
