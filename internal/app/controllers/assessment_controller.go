package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// AssessmentController exposes the assessment builder, grading and student endpoints
type AssessmentController struct {
	assessmentService services.AssessmentService
}

// NewAssessmentController creates a new AssessmentController
func NewAssessmentController(assessmentService services.AssessmentService) *AssessmentController {
	return &AssessmentController{assessmentService: assessmentService}
}

// ListCourseAssessments godoc
// @Summary Assessments of a course
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Assessment}
// @Router /instructor/courses/{id}/assessments [get]
func (c *AssessmentController) ListCourseAssessments(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	assessments, err := c.assessmentService.ListCourseAssessments(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, assessments, "")
}

// CreateAssessment godoc
// @Summary Create an assessment
// @Description Creates a DRAFT quiz, exam, assignment or project with its questions
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 201 {object} dto.APIResponse{data=models.Assessment}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id}/assessments [post]
func (c *AssessmentController) CreateAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	a, err := c.assessmentService.CreateAssessment(ctx.Request.Context(), actor, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, a, "Assessment created")
}

// GetAssessment godoc
// @Summary Get an assessment with its answer key
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Router /instructor/assessments/{id} [get]
func (c *AssessmentController) GetAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	a, err := c.assessmentService.GetAssessment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, a, "")
}

// UpdateAssessment godoc
// @Summary Replace a draft assessment
// @Description Replaces the assessment and its full question list
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Not a draft"
// @Router /instructor/assessments/{id} [put]
func (c *AssessmentController) UpdateAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	a, err := c.assessmentService.UpdateAssessment(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, a, "Assessment updated")
}

// DeleteAssessment godoc
// @Summary Delete a draft assessment
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse
// @Router /instructor/assessments/{id} [delete]
func (c *AssessmentController) DeleteAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.assessmentService.DeleteAssessment(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, "Assessment deleted")
}

// PublishAssessment godoc
// @Summary Publish an assessment
// @Description Opens the assessment to enrolled students and notifies them
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Router /instructor/assessments/{id}/publish [post]
func (c *AssessmentController) PublishAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	a, err := c.assessmentService.PublishAssessment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, a, "Assessment published")
}

// CloseAssessment godoc
// @Summary Close an assessment
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Router /instructor/assessments/{id}/close [post]
func (c *AssessmentController) CloseAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	a, err := c.assessmentService.CloseAssessment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, a, "Assessment closed")
}

// ListSubmissions godoc
// @Summary Submissions of an assessment
// @Tags grading
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param status query string false "PENDING_REVIEW or GRADED"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Router /instructor/assessments/{id}/submissions [get]
func (c *AssessmentController) ListSubmissions(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	status := models.SubmissionStatus(ctx.Query("status"))
	if status != "" && !status.IsValid() {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("status", "unknown submission status"))
		return
	}

	subs, err := c.assessmentService.ListSubmissions(ctx.Request.Context(), actor, id, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, subs, "")
}

// GradeSubmission godoc
// @Summary Grade a submission
// @Description Awards points for answers that need review and records the best attempt in the gradebook
// @Tags grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Param request body dto.GradeSubmissionRequest true "Scores"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Already graded"
// @Router /instructor/submissions/{id}/grade [post]
func (c *AssessmentController) GradeSubmission(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.GradeSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	sub, err := c.assessmentService.GradeSubmission(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sub, "Submission graded")
}

// ListStudentAssessments godoc
// @Summary My assessments
// @Description Published assessments of enrolled courses with attempts, best score and status
// @Tags student-assessments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentAssessmentSummary}
// @Router /student/assessments [get]
func (c *AssessmentController) ListStudentAssessments(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	list, err := c.assessmentService.ListStudentAssessments(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, list, "")
}

// GetStudentAssessment godoc
// @Summary Take an assessment
// @Description Returns the questions without correct answers and the caller's previous attempts
// @Tags student-assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentAssessmentResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Not enrolled"
// @Router /student/assessments/{id} [get]
func (c *AssessmentController) GetStudentAssessment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	a, err := c.assessmentService.GetStudentAssessment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, a, "")
}

// Submit godoc
// @Summary Submit an attempt
// @Description Objective questions are graded immediately. Short answers and assignments wait for review.
// @Tags student-assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param request body dto.SubmitAssessmentRequest true "Answers"
// @Success 201 {object} dto.APIResponse{data=models.Submission}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Closed, past due or out of attempts"
// @Router /student/assessments/{id}/submissions [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	sub, err := c.assessmentService.Submit(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, sub, "Submission received")
}
