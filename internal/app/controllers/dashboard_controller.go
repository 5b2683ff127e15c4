package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
)

// DashboardController serves the student and instructor landing pages
type DashboardController struct {
	dashboardService services.DashboardService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// Student godoc
// @Summary Student dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentDashboardResponse}
// @Router /student/dashboard [get]
func (c *DashboardController) Student(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	dash, err := c.dashboardService.StudentDashboard(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dash, "")
}

// Instructor godoc
// @Summary Instructor dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.InstructorDashboardResponse}
// @Router /instructor/dashboard [get]
func (c *DashboardController) Instructor(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	dash, err := c.dashboardService.InstructorDashboard(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dash, "")
}
