package dto

import "github.com/yigit/learnsphere/internal/app/models"

// CreateApplicationRequest submits a course or instructor application
type CreateApplicationRequest struct {
	Type      models.ApplicationType `json:"type" binding:"required,oneof=COURSE INSTRUCTOR"`
	CourseID  *int64                 `json:"courseId" binding:"omitempty,min=1"`
	Statement string                 `json:"statement" binding:"required"`
}

// ApplicationFilterRequest filters reviewer listings
type ApplicationFilterRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED WITHDRAWN"`
	Type   string `form:"type" binding:"omitempty,oneof=COURSE INSTRUCTOR"`
}
