package services

import (
	"context"
	"time"

	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/cache"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
)

const (
	categoriesCacheKey = "catalog:categories"
	categoriesCacheTTL = 10 * time.Minute
)

// CatalogService serves the public course catalog
type CatalogService interface {
	ListCourses(ctx context.Context, req *dto.CourseFilterRequest, page, size int) ([]*models.Course, int64, error)
	GetCourse(ctx context.Context, actor *authz.Actor, id int64) (*models.Course, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type catalogServiceImpl struct {
	courseRepo   CourseStore
	categoryRepo CategoryStore
	cache        cache.Cache
}

// NewCatalogService creates a new catalog service
func NewCatalogService(courseRepo CourseStore, categoryRepo CategoryStore, c cache.Cache) CatalogService {
	return &catalogServiceImpl{
		courseRepo:   courseRepo,
		categoryRepo: categoryRepo,
		cache:        c,
	}
}

// catalogFilter converts query parameters into a published-only filter
func catalogFilter(req *dto.CourseFilterRequest) repositories.CourseFilter {
	filter := repositories.CourseFilter{
		Statuses:   []models.CourseStatus{models.CoursePublished},
		CategoryID: req.CategoryID,
		Level:      models.CourseLevel(req.Level),
		Search:     req.Search,
		IsFree:     req.IsFree,
		Sort:       req.Sort,
	}
	if req.MinPrice != nil {
		filter.MinPriceCents = helpers.Int64Ptr(amountToCents(*req.MinPrice))
	}
	if req.MaxPrice != nil {
		filter.MaxPriceCents = helpers.Int64Ptr(amountToCents(*req.MaxPrice))
	}
	if filter.Sort == "" {
		filter.Sort = repositories.SortNewest
	}
	return filter
}

// ListCourses lists published courses
func (s *catalogServiceImpl) ListCourses(ctx context.Context, req *dto.CourseFilterRequest, page, size int) ([]*models.Course, int64, error) {
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, 0, apperrors.NewValidationError("minPrice", "must not exceed maxPrice")
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.courseRepo.List(ctx, catalogFilter(req), offset, limit)
}

// GetCourse returns a course with its outline. Unpublished courses are visible to their owner and admins only.
func (s *catalogServiceImpl) GetCourse(ctx context.Context, actor *authz.Actor, id int64) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePublished && (actor == nil || !actor.CanManageCourse(course)) {
		return nil, apperrors.ErrCourseNotFound
	}

	sections, err := s.courseRepo.GetOutline(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Sections = sections
	return course, nil
}

// ListCategories returns every category, cached when a cache is configured
func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return cache.Cached(ctx, s.cache, categoriesCacheKey, categoriesCacheTTL, s.categoryRepo.List)
}
