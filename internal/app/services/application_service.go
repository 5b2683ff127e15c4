package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/repositories"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/metrics"
	"github.com/yigit/learnsphere/internal/pkg/validation"
)

const (
	statementMinLength = 20
	statementMaxLength = 5000
)

// ApplicationService handles course and instructor applications
type ApplicationService interface {
	Apply(ctx context.Context, actor authz.Actor, req *dto.CreateApplicationRequest) (*models.Application, error)
	ListMine(ctx context.Context, actor authz.Actor) ([]*models.Application, error)
	Withdraw(ctx context.Context, actor authz.Actor, id int64) (*models.Application, error)
	ListForReview(ctx context.Context, actor authz.Actor, req *dto.ApplicationFilterRequest) ([]*models.Application, error)
	Decide(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewDecisionRequest) (*models.Application, error)
}

type applicationServiceImpl struct {
	applicationRepo ApplicationStore
	courseRepo      CourseStore
	userRepo        UserStore
	enrollmentRepo  EnrollmentStore
	notifier        Notifier
	logger          zerolog.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	applicationRepo ApplicationStore,
	courseRepo CourseStore,
	userRepo UserStore,
	enrollmentRepo EnrollmentStore,
	notifier Notifier,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationServiceImpl{
		applicationRepo: applicationRepo,
		courseRepo:      courseRepo,
		userRepo:        userRepo,
		enrollmentRepo:  enrollmentRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// Apply submits a new PENDING application
func (s *applicationServiceImpl) Apply(ctx context.Context, actor authz.Actor, req *dto.CreateApplicationRequest) (*models.Application, error) {
	statement := strings.TrimSpace(req.Statement)
	if !validation.NewStringValidation(statement).WithMinLength(statementMinLength).WithMaxLength(statementMaxLength).Validate() {
		return nil, apperrors.NewValidationError("statement", fmt.Sprintf("must be between %d and %d characters", statementMinLength, statementMaxLength))
	}

	app := &models.Application{
		ApplicantID: actor.UserID,
		Type:        req.Type,
		Statement:   statement,
		Status:      models.ApplicationPending,
	}
	filter := repositories.ApplicationFilter{ApplicantID: actor.UserID, Type: req.Type, Status: models.ApplicationPending}

	var course *models.Course
	switch req.Type {
	case models.ApplicationCourse:
		if req.CourseID == nil {
			return nil, apperrors.NewValidationError("courseId", "is required for course applications")
		}
		c, err := s.courseRepo.GetByID(ctx, *req.CourseID)
		if err != nil {
			return nil, err
		}
		if c.Status != models.CoursePublished {
			return nil, apperrors.ErrCourseNotPublished
		}
		if !c.RequiresApplication {
			return nil, apperrors.NewValidationError("courseId", "course does not take applications")
		}
		e, err := s.enrollmentRepo.Get(ctx, actor.UserID, c.ID)
		if err == nil && e.IsActive() {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrEnrollmentNotFound) {
			return nil, err
		}
		course = c
		app.CourseID = &c.ID
		app.CourseTitle = c.Title
		filter.CourseID = c.ID

	case models.ApplicationInstructor:
		if !actor.IsStudent() {
			return nil, apperrors.NewForbiddenError("only students can apply to teach")
		}

	default:
		return nil, apperrors.NewValidationError("type", "must be COURSE or INSTRUCTOR")
	}

	pending, err := s.applicationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, apperrors.ErrApplicationExists
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("applicationID", app.ID).Str("type", string(app.Type)).Msg("Application submitted")

	if course != nil {
		s.notifier.Notify(ctx, &models.Notification{
			UserID:  course.InstructorID,
			Type:    models.NotificationApplication,
			Title:   "New application",
			Message: fmt.Sprintf("A student applied to %s.", course.Title),
			Link:    "/instructor/applications",
		})
	}
	return app, nil
}

// ListMine lists the caller's applications
func (s *applicationServiceImpl) ListMine(ctx context.Context, actor authz.Actor) ([]*models.Application, error) {
	return s.applicationRepo.List(ctx, repositories.ApplicationFilter{ApplicantID: actor.UserID})
}

// Withdraw cancels a PENDING application of the caller
func (s *applicationServiceImpl) Withdraw(ctx context.Context, actor authz.Actor, id int64) (*models.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.ValidateUserOwnership(actor, app.ApplicantID); err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, fmt.Errorf("%w: application is %s", apperrors.ErrInvalidTransition, app.Status)
	}

	if err := s.applicationRepo.Decide(ctx, id, models.ApplicationWithdrawn, nil, ""); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationWithdrawn
	return app, nil
}

// ListForReview lists what the caller may decide. Instructors only see course applications to their courses.
func (s *applicationServiceImpl) ListForReview(ctx context.Context, actor authz.Actor, req *dto.ApplicationFilterRequest) ([]*models.Application, error) {
	filter := repositories.ApplicationFilter{
		Type:   models.ApplicationType(req.Type),
		Status: models.ApplicationStatus(req.Status),
	}
	if !actor.IsAdmin() {
		if err := authz.ValidateInstructor(actor); err != nil {
			return nil, err
		}
		filter.InstructorID = actor.UserID
		filter.Type = models.ApplicationCourse
	}
	return s.applicationRepo.List(ctx, filter)
}

// canDecide reports whether the actor may review the application
func (s *applicationServiceImpl) canDecide(ctx context.Context, actor authz.Actor, app *models.Application) (*models.Course, error) {
	var course *models.Course
	if app.CourseID != nil {
		c, err := s.courseRepo.GetByID(ctx, *app.CourseID)
		if err != nil {
			return nil, err
		}
		course = c
	}

	if actor.IsAdmin() {
		return course, nil
	}
	if app.Type != models.ApplicationCourse || course == nil {
		return nil, apperrors.NewForbiddenError("only admins can decide instructor applications")
	}
	if err := authz.ValidateCourseOwnership(actor, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Decide approves or rejects a PENDING application and applies its effect
func (s *applicationServiceImpl) Decide(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewDecisionRequest) (*models.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.canDecide(ctx, actor, app)
	if err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, fmt.Errorf("%w: application is %s", apperrors.ErrInvalidTransition, app.Status)
	}

	status := models.ApplicationStatus(req.Decision)
	if status != models.ApplicationApproved && status != models.ApplicationRejected {
		return nil, apperrors.NewValidationError("decision", "must be APPROVED or REJECTED")
	}
	note := strings.TrimSpace(req.Note)
	reviewerID := actor.UserID
	if err := s.applicationRepo.Decide(ctx, id, status, &reviewerID, note); err != nil {
		return nil, err
	}
	app.Status = status
	app.ReviewerID = &reviewerID
	app.ReviewNote = note

	message := s.applyDecision(ctx, app, course)
	s.logger.Info().Int64("applicationID", id).Str("status", string(status)).Int64("reviewerID", reviewerID).Msg("Application decided")

	s.notifier.NotifyWithEmail(ctx, &models.Notification{
		UserID:  app.ApplicantID,
		Type:    models.NotificationApplication,
		Title:   "Application " + strings.ToLower(string(status)),
		Message: message,
		Link:    "/student/applications",
	})
	return app, nil
}

// applyDecision performs the side effect of an approval and returns the applicant message.
// Failures are logged since the decision itself is already stored.
func (s *applicationServiceImpl) applyDecision(ctx context.Context, app *models.Application, course *models.Course) string {
	subject := "your instructor application"
	if course != nil {
		subject = "your application to " + course.Title
	}
	if app.Status == models.ApplicationRejected {
		if app.ReviewNote != "" {
			return fmt.Sprintf("We declined %s: %s", subject, app.ReviewNote)
		}
		return fmt.Sprintf("We declined %s.", subject)
	}

	if app.Type == models.ApplicationInstructor {
		if err := s.userRepo.UpdateRole(ctx, app.ApplicantID, models.RoleInstructor); err != nil {
			s.logger.Error().Err(err).Int64("userID", app.ApplicantID).Msg("Could not promote applicant to instructor")
		}
		return "Your instructor application was approved. Sign in again to start teaching."
	}

	if course == nil || !course.IsFree {
		return fmt.Sprintf("We approved %s. You can now complete the purchase.", subject)
	}

	if err := checkAdmission(ctx, s.enrollmentRepo, s.applicationRepo, course, app.ApplicantID); err != nil {
		s.logger.Warn().Err(err).Int64("applicationID", app.ID).Msg("Approved applicant could not be enrolled")
		return fmt.Sprintf("We approved %s.", subject)
	}
	e, err := s.enrollmentRepo.Enroll(ctx, app.ApplicantID, course.ID, nil)
	if err != nil {
		s.logger.Error().Err(err).Int64("applicationID", app.ID).Msg("Could not enroll approved applicant")
		return fmt.Sprintf("We approved %s.", subject)
	}
	metrics.RecordEnrollment(string(e.Status))
	return fmt.Sprintf("We approved %s. You are now enrolled.", subject)
}
