package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
)

// AdminController handles user management, course review and platform stats
type AdminController struct {
	adminService services.AdminService
}

// NewAdminController creates a new AdminController
func NewAdminController(adminService services.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "STUDENT, INSTRUCTOR or ADMIN"
// @Param search query string false "Name or email"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.UserResponse}}
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	var filter dto.UserFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	users, total, err := c.adminService.ListUsers(ctx.Request.Context(), &filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, helpers.NewPaginatedResponse(dto.NewUserResponses(users), total, page, size), "")
}

// SetUserStatus godoc
// @Summary Activate or deactivate a user
// @Description Deactivation revokes the user's refresh tokens
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserStatusRequest true "Status"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Own account"
// @Router /admin/users/{id}/status [patch]
func (c *AdminController) SetUserStatus(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	user, err := c.adminService.SetUserStatus(ctx.Request.Context(), actor, id, *req.IsActive)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewUserResponse(user), "User status updated")
}

// SetUserRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRoleRequest true "Role"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /admin/users/{id}/role [patch]
func (c *AdminController) SetUserRole(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	user, err := c.adminService.SetUserRole(ctx.Request.Context(), actor, id, req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewUserResponse(user), "User role updated")
}

// ListCourses godoc
// @Summary List courses in any status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "DRAFT, PENDING_REVIEW, PUBLISHED, REJECTED or ARCHIVED"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.CourseResponse}}
// @Router /admin/courses [get]
func (c *AdminController) ListCourses(ctx *gin.Context) {
	var filter dto.CourseStatusFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	courses, total, err := c.adminService.ListCourses(ctx.Request.Context(), models.CourseStatus(filter.Status), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, helpers.NewPaginatedResponse(dto.NewCourseResponses(courses), total, page, size), "")
}

// ReviewCourse godoc
// @Summary Approve or reject a course
// @Description PENDING_REVIEW courses only. A rejection needs a note.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.ReviewDecisionRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Not pending review"
// @Router /admin/courses/{id}/review [patch]
func (c *AdminController) ReviewCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReviewDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	course, err := c.adminService.ReviewCourse(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseResponse(course), "Course reviewed")
}

// Stats godoc
// @Summary Platform statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminStatsResponse}
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.adminService.Stats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, stats, "")
}
