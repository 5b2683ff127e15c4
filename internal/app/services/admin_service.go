package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/cache"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
)

const adminStatsCacheKey = "admin:stats"

// AdminService covers user management, course review and platform statistics
type AdminService interface {
	ListUsers(ctx context.Context, req *dto.UserFilterRequest, page, size int) ([]*models.User, int64, error)
	SetUserStatus(ctx context.Context, actor authz.Actor, userID int64, active bool) (*models.User, error)
	SetUserRole(ctx context.Context, actor authz.Actor, userID int64, role models.RoleType) (*models.User, error)
	ListCourses(ctx context.Context, status models.CourseStatus, page, size int) ([]*models.Course, int64, error)
	ReviewCourse(ctx context.Context, actor authz.Actor, courseID int64, req *dto.ReviewDecisionRequest) (*models.Course, error)
	Stats(ctx context.Context) (*dto.AdminStatsResponse, error)
}

type adminServiceImpl struct {
	userRepo   UserStore
	tokenRepo  TokenStore
	courseRepo CourseStore
	statsRepo  StatsStore
	notifier   Notifier
	cache      cache.Cache
	statsTTL   time.Duration
	logger     zerolog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo UserStore,
	tokenRepo TokenStore,
	courseRepo CourseStore,
	statsRepo StatsStore,
	notifier Notifier,
	c cache.Cache,
	statsTTL time.Duration,
	logger zerolog.Logger,
) AdminService {
	return &adminServiceImpl{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		courseRepo: courseRepo,
		statsRepo:  statsRepo,
		notifier:   notifier,
		cache:      c,
		statsTTL:   statsTTL,
		logger:     logger,
	}
}

// ListUsers pages over accounts filtered by role and a name or email search
func (s *adminServiceImpl) ListUsers(ctx context.Context, req *dto.UserFilterRequest, page, size int) ([]*models.User, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.userRepo.List(ctx, repositories.UserFilter{
		Role:   models.RoleType(req.Role),
		Search: strings.TrimSpace(req.Search),
	}, offset, limit)
}

// SetUserStatus activates or deactivates an account. Deactivation revokes every refresh token.
func (s *adminServiceImpl) SetUserStatus(ctx context.Context, actor authz.Actor, userID int64, active bool) (*models.User, error) {
	if userID == actor.UserID && !active {
		return nil, apperrors.NewConflictError("you cannot deactivate your own account")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, active); err != nil {
		return nil, err
	}
	if !active {
		if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
			s.logger.Error().Err(err).Int64("userID", userID).Msg("Could not revoke tokens of deactivated user")
		}
	}
	user.IsActive = active
	s.logger.Info().Int64("userID", userID).Bool("active", active).Int64("adminID", actor.UserID).Msg("User status changed")
	return user, nil
}

// SetUserRole changes the role of another account
func (s *adminServiceImpl) SetUserRole(ctx context.Context, actor authz.Actor, userID int64, role models.RoleType) (*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("role", "must be one of STUDENT, INSTRUCTOR, ADMIN")
	}
	if userID == actor.UserID {
		return nil, apperrors.NewConflictError("you cannot change your own role")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user.Role = role
	_ = s.cache.Delete(ctx, adminStatsCacheKey)
	return user, nil
}

// ListCourses pages over courses in any status
func (s *adminServiceImpl) ListCourses(ctx context.Context, status models.CourseStatus, page, size int) ([]*models.Course, int64, error) {
	filter := repositories.CourseFilter{Sort: repositories.SortNewest}
	if status != "" {
		filter.Statuses = []models.CourseStatus{status}
	}
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.courseRepo.List(ctx, filter, offset, limit)
}

// ReviewCourse publishes or rejects a course waiting for review and tells the instructor
func (s *adminServiceImpl) ReviewCourse(ctx context.Context, actor authz.Actor, courseID int64, req *dto.ReviewDecisionRequest) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePendingReview {
		return nil, fmt.Errorf("%w: course is %s", apperrors.ErrInvalidTransition, course.Status)
	}

	var status models.CourseStatus
	switch req.Decision {
	case string(models.ApplicationApproved):
		status = models.CoursePublished
	case string(models.ApplicationRejected):
		status = models.CourseRejected
	default:
		return nil, apperrors.NewValidationError("decision", "must be APPROVED or REJECTED")
	}
	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	if status == models.CourseRejected && note == nil {
		return nil, apperrors.NewValidationError("note", "is required when rejecting a course")
	}

	if err := s.courseRepo.UpdateStatus(ctx, courseID, status, note); err != nil {
		return nil, err
	}
	course.Status = status
	course.ReviewNote = note
	if status == models.CoursePublished && course.PublishedAt == nil {
		now := time.Now()
		course.PublishedAt = &now
	}
	_ = s.cache.Delete(ctx, adminStatsCacheKey)
	s.logger.Info().Int64("courseID", courseID).Str("status", string(status)).Int64("adminID", actor.UserID).Msg("Course reviewed")

	n := &models.Notification{
		UserID: course.InstructorID,
		Type:   models.NotificationCourse,
		Link:   fmt.Sprintf("/instructor/courses/%d", course.ID),
	}
	if status == models.CoursePublished {
		n.Title = "Course published"
		n.Message = fmt.Sprintf("%s is now live in the catalog.", course.Title)
	} else {
		n.Title = "Course needs changes"
		n.Message = fmt.Sprintf("%s was not approved: %s", course.Title, *note)
	}
	s.notifier.NotifyWithEmail(ctx, n)
	return course, nil
}

// Stats returns the platform counters, cached for the configured TTL
func (s *adminServiceImpl) Stats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	return cache.Cached(ctx, s.cache, adminStatsCacheKey, s.statsTTL, s.loadStats)
}

func (s *adminServiceImpl) loadStats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	var resp dto.AdminStatsResponse
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		resp.UsersByRole, err = s.statsRepo.UsersByRole(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.CoursesByStatus, err = s.statsRepo.CoursesByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.EnrollmentsByStatus, err = s.statsRepo.EnrollmentsByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		resp.PaymentsByStatus, err = s.statsRepo.PaymentsByStatus(ctx)
		return err
	})
	g.Go(func() error {
		cents, err := s.statsRepo.RevenueCents(ctx, 0)
		if err != nil {
			return err
		}
		resp.Revenue = dto.CentsToAmount(cents)
		return nil
	})
	g.Go(func() (err error) {
		resp.PendingApplications, err = s.statsRepo.PendingApplications(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &resp, nil
}
