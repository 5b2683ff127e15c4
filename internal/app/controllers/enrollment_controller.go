package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
)

// EnrollmentController handles student enrollments and lesson progress
type EnrollmentController struct {
	enrollmentService services.EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{enrollmentService: enrollmentService}
}

// ListMyCourses godoc
// @Summary My courses
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Enrollment}
// @Router /student/courses [get]
func (c *EnrollmentController) ListMyCourses(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	enrollments, err := c.enrollmentService.ListMyCourses(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, enrollments, "")
}

// GetMyCourse godoc
// @Summary My enrollment in a course
// @Description Enrollment with the course outline and completed lessons
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Enrollment}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /student/courses/{id} [get]
func (c *EnrollmentController) GetMyCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.GetMyCourse(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, enrollment, "")
}

// Enroll godoc
// @Summary Enroll in a free course
// @Description Paid courses go through checkout and application courses through an application
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 201 {object} dto.APIResponse{data=models.Enrollment}
// @Failure 402 {object} dto.APIResponse{error=dto.ErrorDetail} "Payment required"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Already enrolled or full"
// @Router /student/courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, enrollment, "Enrolled")
}

// Drop godoc
// @Summary Drop a course
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse
// @Router /student/courses/{id} [delete]
func (c *EnrollmentController) Drop(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.enrollmentService.Drop(ctx.Request.Context(), actor, courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, "Course dropped")
}

// CompleteLesson godoc
// @Summary Mark a lesson complete
// @Description Recomputes progress. The enrollment completes when every lesson is done.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} dto.APIResponse{data=models.Enrollment}
// @Router /student/courses/{id}/lessons/{lessonId}/complete [post]
func (c *EnrollmentController) CompleteLesson(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	lessonID, ok := parseIDParam(ctx, "lessonId")
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.CompleteLesson(ctx.Request.Context(), actor, courseID, lessonID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, enrollment, "Lesson completed")
}
