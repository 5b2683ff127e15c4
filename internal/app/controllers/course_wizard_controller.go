package controllers

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// CourseWizardController drives the five step course creation wizard
type CourseWizardController struct {
	wizardService services.CourseWizardService
}

// NewCourseWizardController creates a new CourseWizardController
func NewCourseWizardController(wizardService services.CourseWizardService) *CourseWizardController {
	return &CourseWizardController{wizardService: wizardService}
}

// CreateDraft godoc
// @Summary Start a course draft
// @Tags course-wizard
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.APIResponse{data=models.CourseDraft}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/course-drafts [post]
func (c *CourseWizardController) CreateDraft(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	draft, err := c.wizardService.CreateDraft(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, draft, "Draft created")
}

// ListDrafts godoc
// @Summary My course drafts
// @Tags course-wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.CourseDraft}
// @Router /instructor/course-drafts [get]
func (c *CourseWizardController) ListDrafts(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	drafts, err := c.wizardService.ListDrafts(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, drafts, "")
}

// GetDraft godoc
// @Summary Get a course draft
// @Tags course-wizard
// @Produce json
// @Security BearerAuth
// @Param id path int true "Draft ID"
// @Success 200 {object} dto.APIResponse{data=models.CourseDraft}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/course-drafts/{id} [get]
func (c *CourseWizardController) GetDraft(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	draft, err := c.wizardService.GetDraft(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, draft, "")
}

// SaveStep godoc
// @Summary Save a wizard step
// @Description Validates the step payload, stores it and advances currentStep. A step is only writable once unlocked.
// @Tags course-wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Draft ID"
// @Param step path int true "Step 1-5"
// @Param request body object false "basicInfo, curriculum, details or pricing payload; empty for step 5"
// @Success 200 {object} dto.APIResponse{data=models.CourseDraft}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Step locked"
// @Router /instructor/course-drafts/{id}/steps/{step} [put]
func (c *CourseWizardController) SaveStep(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	step, err := strconv.Atoi(ctx.Param("step"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("step", "must be a number"))
		return
	}

	// Step 5 is sent without a body
	body, err := ctx.GetRawData()
	if err != nil || (len(bytes.TrimSpace(body)) > 0 && !json.Valid(body)) {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid request format"))
		return
	}

	draft, err := c.wizardService.SaveStep(ctx.Request.Context(), actor, id, step, json.RawMessage(body))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, draft, "Step saved")
}

// Back godoc
// @Summary Go back one wizard step
// @Tags course-wizard
// @Produce json
// @Security BearerAuth
// @Param id path int true "Draft ID"
// @Success 200 {object} dto.APIResponse{data=models.CourseDraft}
// @Router /instructor/course-drafts/{id}/back [post]
func (c *CourseWizardController) Back(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	draft, err := c.wizardService.Back(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, draft, "")
}

// Submit godoc
// @Summary Create the course from a finished draft
// @Tags course-wizard
// @Produce json
// @Security BearerAuth
// @Param id path int true "Draft ID"
// @Success 201 {object} dto.APIResponse{data=dto.CourseDetailResponse}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Incomplete or already submitted"
// @Router /instructor/course-drafts/{id}/submit [post]
func (c *CourseWizardController) Submit(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.wizardService.Submit(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewCourseDetailResponse(course), "Course created")
}

// DeleteDraft godoc
// @Summary Delete a course draft
// @Tags course-wizard
// @Produce json
// @Security BearerAuth
// @Param id path int true "Draft ID"
// @Success 200 {object} dto.APIResponse
// @Router /instructor/course-drafts/{id} [delete]
func (c *CourseWizardController) DeleteDraft(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.wizardService.DeleteDraft(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, "Draft deleted")
}
