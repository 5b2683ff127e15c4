package controllers

import (
	"github.com/gin-gonic/gin"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
)

// CatalogController serves the public course catalog
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

// ListCourses godoc
// @Summary Browse published courses
// @Description Lists published courses with search, filters, sorting and pagination
// @Tags catalog
// @Produce json
// @Param search query string false "Matches title, subtitle and description"
// @Param categoryId query int false "Category"
// @Param level query string false "BEGINNER, INTERMEDIATE, ADVANCED or ALL_LEVELS"
// @Param isFree query bool false "Only free or only paid courses"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param sort query string false "newest, popular, price_asc, price_desc or title"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.CourseResponse}}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	var filter dto.CourseFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.RespondBindingError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	courses, total, err := c.catalogService.ListCourses(ctx.Request.Context(), &filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, helpers.NewPaginatedResponse(dto.NewCourseResponses(courses), total, page, size), "")
}

// GetCourse godoc
// @Summary Course details
// @Description Returns a published course with its sections and lessons. Owners and admins also see unpublished courses.
// @Tags catalog
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseDetailResponse}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /courses/{id} [get]
func (c *CatalogController) GetCourse(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var actor *authz.Actor
	if a, signedIn := middleware.CurrentActor(ctx); signedIn {
		actor = &a
	}

	course, err := c.catalogService.GetCourse(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewCourseDetailResponse(course), "")
}

// ListCategories godoc
// @Summary Course categories
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Category}
// @Router /categories [get]
func (c *CatalogController) ListCategories(ctx *gin.Context) {
	categories, err := c.catalogService.ListCategories(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, categories, "")
}
