package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// InstructorCourseController manages the courses of the signed-in instructor
type InstructorCourseController struct {
	courseService services.InstructorCourseService
	logger        zerolog.Logger
}

// NewInstructorCourseController creates a new InstructorCourseController
func NewInstructorCourseController(courseService services.InstructorCourseService, logger zerolog.Logger) *InstructorCourseController {
	return &InstructorCourseController{
		courseService: courseService,
		logger:        logger,
	}
}

// CreateCourse godoc
// @Summary Create a course without the wizard
// @Description Validates every step of the composite body and creates a DRAFT course
// @Tags instructor-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course"
// @Success 201 {object} dto.APIResponse{data=dto.CourseDetailResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses [post]
func (c *InstructorCourseController) CreateCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	course, err := c.courseService.CreateCourse(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewCourseDetailResponse(course), "Course created")
}

// ListCourses godoc
// @Summary My courses
// @Tags instructor-courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseResponse}
// @Router /instructor/courses [get]
func (c *InstructorCourseController) ListCourses(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	courses, err := c.courseService.ListCourses(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseResponses(courses), "")
}

// GetCourse godoc
// @Summary Get one of my courses
// @Tags instructor-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseDetailResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id} [get]
func (c *InstructorCourseController) GetCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.GetCourse(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseDetailResponse(course), "")
}

// UpdateCourse godoc
// @Summary Update a course
// @Description Replaces basic info, details and pricing. Not allowed while in review or once archived.
// @Tags instructor-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Course"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id} [put]
func (c *InstructorCourseController) UpdateCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}

	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseResponse(course), "Course updated")
}

// DeleteCourse godoc
// @Summary Delete a course
// @Description Only DRAFT and REJECTED courses can be deleted
// @Tags instructor-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id} [delete]
func (c *InstructorCourseController) DeleteCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.courseService.DeleteCourse(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, "Course deleted")
}

// SubmitForReview godoc
// @Summary Submit a course for review
// @Tags instructor-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "No lessons yet"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id}/submit-review [post]
func (c *InstructorCourseController) SubmitForReview(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.SubmitForReview(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseResponse(course), "Course submitted for review")
}

// ArchiveCourse godoc
// @Summary Archive a published course
// @Tags instructor-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id}/archive [post]
func (c *InstructorCourseController) ArchiveCourse(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.courseService.ArchiveCourse(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseResponse(course), "Course archived")
}

// UploadThumbnail godoc
// @Summary Upload a course thumbnail
// @Tags instructor-courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param thumbnail formData file true "Image, at most 5 MB"
// @Success 200 {object} dto.APIResponse{data=dto.ThumbnailResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /instructor/courses/{id}/thumbnail [post]
func (c *InstructorCourseController) UploadThumbnail(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	header, err := ctx.FormFile("thumbnail")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("thumbnail", "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		c.logger.Error().Err(err).Msg("Could not open uploaded thumbnail")
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.courseService.UploadThumbnail(ctx.Request.Context(), actor, id, services.ThumbnailUpload{
		Content:     file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ThumbnailResponse{ThumbnailURL: url}, "Thumbnail uploaded"))
}

// ListStudents godoc
// @Summary Students of a course
// @Tags instructor-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseStudentResponse}
// @Router /instructor/courses/{id}/students [get]
func (c *InstructorCourseController) ListStudents(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	students, err := c.courseService.ListStudents(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, students, "")
}
