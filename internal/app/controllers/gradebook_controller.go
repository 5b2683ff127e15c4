package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
)

// GradebookController exposes grading schemes, the gradebook and student grades
type GradebookController struct {
	gradebookService services.GradebookService
}

// NewGradebookController creates a new GradebookController
func NewGradebookController(gradebookService services.GradebookService) *GradebookController {
	return &GradebookController{gradebookService: gradebookService}
}

// GetScheme godoc
// @Summary Grading scheme of a course
// @Tags gradebook
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.GradingScheme}
// @Router /instructor/courses/{id}/grading-scheme [get]
func (c *GradebookController) GetScheme(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	scheme, err := c.gradebookService.GetScheme(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, scheme, "")
}

// SaveScheme godoc
// @Summary Replace the grading scheme
// @Description Category weights must sum to 100. The letter scale must be strictly descending.
// @Tags gradebook
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.GradingSchemeRequest true "Scheme"
// @Success 200 {object} dto.APIResponse{data=models.GradingScheme}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id}/grading-scheme [put]
func (c *GradebookController) SaveScheme(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.GradingSchemeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	scheme, err := c.gradebookService.SaveScheme(ctx.Request.Context(), actor, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, scheme, "Grading scheme saved")
}

// Gradebook godoc
// @Summary Course gradebook
// @Description One row per enrolled student with a cell per assessment and the final grade
// @Tags gradebook
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.GradebookResponse}
// @Router /instructor/courses/{id}/gradebook [get]
func (c *GradebookController) Gradebook(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	book, err := c.gradebookService.Gradebook(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, book, "")
}

// SetManualGrade godoc
// @Summary Enter or override a grade
// @Tags gradebook
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.ManualGradeRequest true "Grade"
// @Success 200 {object} dto.APIResponse{data=models.Grade}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id}/grades [put]
func (c *GradebookController) SetManualGrade(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ManualGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	grade, err := c.gradebookService.SetManualGrade(ctx.Request.Context(), actor, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, grade, "Grade saved")
}

// ExportCSV godoc
// @Summary Export the gradebook
// @Tags gradebook
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {file} file "gradebook CSV"
// @Router /instructor/courses/{id}/gradebook/export [get]
func (c *GradebookController) ExportCSV(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := c.gradebookService.ExportCSV(ctx.Request.Context(), actor, courseID, &buf); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="gradebook-course-%d.csv"`, courseID))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// StudentGrades godoc
// @Summary My grades
// @Description Per enrolled course: gradebook entries and the final grade
// @Tags gradebook
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentCourseGrades}
// @Router /student/grades [get]
func (c *GradebookController) StudentGrades(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	grades, err := c.gradebookService.StudentGrades(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, grades, "")
}
