package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/metrics"
)

// EnrollmentService handles a student's course memberships and progress
type EnrollmentService interface {
	ListMyCourses(ctx context.Context, actor authz.Actor) ([]*models.Enrollment, error)
	GetMyCourse(ctx context.Context, actor authz.Actor, courseID int64) (*models.Enrollment, error)
	Enroll(ctx context.Context, actor authz.Actor, courseID int64) (*models.Enrollment, error)
	Drop(ctx context.Context, actor authz.Actor, courseID int64) error
	CompleteLesson(ctx context.Context, actor authz.Actor, courseID, lessonID int64) (*models.Enrollment, error)
}

type enrollmentServiceImpl struct {
	enrollmentRepo  EnrollmentStore
	courseRepo      CourseStore
	applicationRepo ApplicationStore
	notifier        Notifier
	logger          zerolog.Logger
	now             func() time.Time
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	enrollmentRepo EnrollmentStore,
	courseRepo CourseStore,
	applicationRepo ApplicationStore,
	notifier Notifier,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentServiceImpl{
		enrollmentRepo:  enrollmentRepo,
		courseRepo:      courseRepo,
		applicationRepo: applicationRepo,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

// checkAdmission verifies everything but payment before a student joins a course
func checkAdmission(ctx context.Context, enrollments EnrollmentStore, applications ApplicationStore, course *models.Course, studentID int64) error {
	if course.Status != models.CoursePublished {
		return apperrors.ErrCourseNotPublished
	}

	existing, err := enrollments.Get(ctx, studentID, course.ID)
	switch {
	case err == nil && existing.IsActive():
		return apperrors.ErrAlreadyEnrolled
	case err != nil && !apperrors.Is(err, apperrors.ErrEnrollmentNotFound):
		return err
	}

	if course.RequiresApplication {
		status, err := applications.LatestStatus(ctx, studentID, course.ID)
		if err != nil {
			return err
		}
		if status != models.ApplicationApproved {
			return apperrors.ErrApplicationNeeded
		}
	}

	active, err := enrollments.CountActive(ctx, course.ID)
	if err != nil {
		return err
	}
	if !course.HasCapacity(active) {
		return apperrors.ErrCourseFull
	}
	return nil
}

// enrollmentNotice tells the student about a new enrollment
func enrollmentNotice(studentID int64, course *models.Course) *models.Notification {
	return &models.Notification{
		UserID:  studentID,
		Type:    models.NotificationEnrollment,
		Title:   "Enrolled",
		Message: fmt.Sprintf("You are now enrolled in %s.", course.Title),
		Link:    fmt.Sprintf("/student/courses/%d", course.ID),
	}
}

// ListMyCourses lists the student's active and completed enrollments
func (s *enrollmentServiceImpl) ListMyCourses(ctx context.Context, actor authz.Actor) ([]*models.Enrollment, error) {
	return s.enrollmentRepo.ListByStudent(ctx, actor.UserID)
}

// GetMyCourse returns the enrollment with the full course outline
func (s *enrollmentServiceImpl) GetMyCourse(ctx context.Context, actor authz.Actor, courseID int64) (*models.Enrollment, error) {
	e, err := activeEnrollment(ctx, s.enrollmentRepo, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sections, err := s.courseRepo.GetOutline(ctx, courseID)
	if err != nil {
		return nil, err
	}
	course.Sections = sections
	e.Course = course
	return e, nil
}

// Enroll joins a free course
func (s *enrollmentServiceImpl) Enroll(ctx context.Context, actor authz.Actor, courseID int64) (*models.Enrollment, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePublished {
		return nil, apperrors.ErrCourseNotPublished
	}
	if !course.IsFree {
		return nil, apperrors.ErrPaymentRequired
	}
	if err := checkAdmission(ctx, s.enrollmentRepo, s.applicationRepo, course, actor.UserID); err != nil {
		return nil, err
	}

	e, err := s.enrollmentRepo.Enroll(ctx, actor.UserID, courseID, nil)
	if err != nil {
		return nil, err
	}
	metrics.RecordEnrollment(string(e.Status))
	s.logger.Info().Int64("courseID", courseID).Int64("studentID", actor.UserID).Msg("Student enrolled")

	s.notifier.Notify(ctx, enrollmentNotice(actor.UserID, course))
	e.Course = course
	return e, nil
}

// Drop leaves a course. Progress is kept for a later re-enrollment.
func (s *enrollmentServiceImpl) Drop(ctx context.Context, actor authz.Actor, courseID int64) error {
	e, err := activeEnrollment(ctx, s.enrollmentRepo, actor.UserID, courseID)
	if err != nil {
		return err
	}
	if err := s.enrollmentRepo.Drop(ctx, e.ID); err != nil {
		return err
	}
	metrics.RecordEnrollment(string(models.EnrollmentDropped))
	return nil
}

// progressOf is the rounded share of completed lessons, capped at 100
func progressOf(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(completed) / float64(total) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// CompleteLesson marks a lesson done and completes the enrollment at 100%
func (s *enrollmentServiceImpl) CompleteLesson(ctx context.Context, actor authz.Actor, courseID, lessonID int64) (*models.Enrollment, error) {
	e, err := activeEnrollment(ctx, s.enrollmentRepo, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}

	lessonCourseID, err := s.courseRepo.CourseIDOfLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lessonCourseID != courseID {
		return nil, apperrors.ErrLessonNotFound
	}
	if e.HasCompletedLesson(lessonID) {
		return e, nil
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	e.CompletedLessonIDs = append(e.CompletedLessonIDs, lessonID)
	e.Progress = progressOf(len(e.CompletedLessonIDs), course.Counts.Lessons)
	justCompleted := e.Progress >= 100 && e.Status != models.EnrollmentCompleted
	if justCompleted {
		now := s.now()
		e.Status = models.EnrollmentCompleted
		e.CompletedAt = &now
	}

	if err := s.enrollmentRepo.UpdateProgress(ctx, e); err != nil {
		return nil, err
	}

	if justCompleted {
		metrics.RecordEnrollment(string(models.EnrollmentCompleted))
		s.notifier.Notify(ctx, &models.Notification{
			UserID:  actor.UserID,
			Type:    models.NotificationEnrollment,
			Title:   "Course completed",
			Message: fmt.Sprintf("Congratulations, you completed %s.", course.Title),
			Link:    fmt.Sprintf("/student/courses/%d", courseID),
		})
	}
	return e, nil
}
