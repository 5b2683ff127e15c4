package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/metrics"
)

// Student assessment list statuses
const (
	AssessmentNotStarted    = "NOT_STARTED"
	AssessmentPendingReview = "PENDING_REVIEW"
	AssessmentGraded        = "GRADED"
	AssessmentOverdue       = "OVERDUE"
)

// AssessmentService builds, publishes and grades assessments
type AssessmentService interface {
	ListCourseAssessments(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.Assessment, error)
	CreateAssessment(ctx context.Context, actor authz.Actor, courseID int64, req *dto.AssessmentRequest) (*models.Assessment, error)
	GetAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error)
	UpdateAssessment(ctx context.Context, actor authz.Actor, id int64, req *dto.AssessmentRequest) (*models.Assessment, error)
	DeleteAssessment(ctx context.Context, actor authz.Actor, id int64) error
	PublishAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error)
	CloseAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error)

	ListSubmissions(ctx context.Context, actor authz.Actor, assessmentID int64, status models.SubmissionStatus) ([]*models.Submission, error)
	GradeSubmission(ctx context.Context, actor authz.Actor, submissionID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error)

	ListStudentAssessments(ctx context.Context, actor authz.Actor) ([]dto.StudentAssessmentSummary, error)
	GetStudentAssessment(ctx context.Context, actor authz.Actor, id int64) (*dto.StudentAssessmentResponse, error)
	Submit(ctx context.Context, actor authz.Actor, id int64, req *dto.SubmitAssessmentRequest) (*models.Submission, error)
}

type assessmentServiceImpl struct {
	assessmentRepo AssessmentStore
	submissionRepo SubmissionStore
	courseRepo     CourseStore
	enrollmentRepo EnrollmentStore
	gradeRepo      GradeStore
	notifier       Notifier
	logger         zerolog.Logger
	now            func() time.Time
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	assessmentRepo AssessmentStore,
	submissionRepo SubmissionStore,
	courseRepo CourseStore,
	enrollmentRepo EnrollmentStore,
	gradeRepo GradeStore,
	notifier Notifier,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentServiceImpl{
		assessmentRepo: assessmentRepo,
		submissionRepo: submissionRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		gradeRepo:      gradeRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// managedAssessment loads an assessment of a course the caller manages
func (s *assessmentServiceImpl) managedAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, *models.Course, error) {
	a, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	course, err := ownedCourse(ctx, s.courseRepo, actor, a.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return a, course, nil
}

// ListCourseAssessments lists every assessment of an owned course
func (s *assessmentServiceImpl) ListCourseAssessments(ctx context.Context, actor authz.Actor, courseID int64) ([]*models.Assessment, error) {
	if _, err := ownedCourse(ctx, s.courseRepo, actor, courseID); err != nil {
		return nil, err
	}
	return s.assessmentRepo.ListByCourse(ctx, courseID)
}

// CreateAssessment validates the builder payload and stores a DRAFT assessment
func (s *assessmentServiceImpl) CreateAssessment(ctx context.Context, actor authz.Actor, courseID int64, req *dto.AssessmentRequest) (*models.Assessment, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status == models.CourseArchived {
		return nil, apperrors.ErrCourseNotEditable
	}
	if err := ValidateAssessmentRequest(req); err != nil {
		return nil, err
	}

	a := buildAssessment(courseID, req)
	if err := s.assessmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	a.CourseTitle = course.Title
	return a, nil
}

// GetAssessment returns an assessment with its answer key
func (s *assessmentServiceImpl) GetAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error) {
	a, _, err := s.managedAssessment(ctx, actor, id)
	return a, err
}

// UpdateAssessment replaces a DRAFT assessment and its whole question list
func (s *assessmentServiceImpl) UpdateAssessment(ctx context.Context, actor authz.Actor, id int64, req *dto.AssessmentRequest) (*models.Assessment, error) {
	current, _, err := s.managedAssessment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.AssessmentDraft {
		return nil, apperrors.ErrAssessmentNotEditable
	}
	if err := ValidateAssessmentRequest(req); err != nil {
		return nil, err
	}

	a := buildAssessment(current.CourseID, req)
	a.ID = current.ID
	a.CreatedAt = current.CreatedAt
	if err := s.assessmentRepo.Replace(ctx, a); err != nil {
		return nil, err
	}
	a.CourseTitle = current.CourseTitle
	return a, nil
}

// DeleteAssessment removes a DRAFT assessment
func (s *assessmentServiceImpl) DeleteAssessment(ctx context.Context, actor authz.Actor, id int64) error {
	a, _, err := s.managedAssessment(ctx, actor, id)
	if err != nil {
		return err
	}
	if a.Status != models.AssessmentDraft {
		return apperrors.ErrAssessmentNotEditable
	}
	return s.assessmentRepo.Delete(ctx, id)
}

// PublishAssessment opens a DRAFT assessment and tells the enrolled students
func (s *assessmentServiceImpl) PublishAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error) {
	a, course, err := s.managedAssessment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AssessmentDraft {
		return nil, fmt.Errorf("%w: assessment is %s", apperrors.ErrInvalidTransition, a.Status)
	}
	if a.Type.RequiresQuestions() && len(a.Questions) == 0 {
		return nil, apperrors.NewValidationError("questions", "at least one question is required")
	}

	if err := s.assessmentRepo.UpdateStatus(ctx, id, models.AssessmentPublished); err != nil {
		return nil, err
	}
	a.Status = models.AssessmentPublished

	studentIDs, err := s.enrollmentRepo.ActiveStudentIDs(ctx, a.CourseID)
	if err != nil {
		s.logger.Error().Err(err).Int64("assessmentID", id).Msg("Could not load students to notify")
		return a, nil
	}
	message := fmt.Sprintf("%s is now available in %s.", a.Title, course.Title)
	if a.DueAt != nil {
		message = fmt.Sprintf("%s is now available in %s. Due %s.", a.Title, course.Title, a.DueAt.Format(time.RFC1123))
	}
	for _, studentID := range studentIDs {
		s.notifier.Notify(ctx, &models.Notification{
			UserID:  studentID,
			Type:    models.NotificationAssessment,
			Title:   "New " + strings.ToLower(string(a.Type)),
			Message: message,
			Link:    fmt.Sprintf("/student/assessments/%d", a.ID),
		})
	}
	return a, nil
}

// CloseAssessment stops accepting submissions
func (s *assessmentServiceImpl) CloseAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error) {
	a, _, err := s.managedAssessment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AssessmentPublished {
		return nil, fmt.Errorf("%w: assessment is %s", apperrors.ErrInvalidTransition, a.Status)
	}

	if err := s.assessmentRepo.UpdateStatus(ctx, id, models.AssessmentClosed); err != nil {
		return nil, err
	}
	a.Status = models.AssessmentClosed
	return a, nil
}

// ListSubmissions lists the attempts of an owned assessment
func (s *assessmentServiceImpl) ListSubmissions(ctx context.Context, actor authz.Actor, assessmentID int64, status models.SubmissionStatus) ([]*models.Submission, error) {
	if _, _, err := s.managedAssessment(ctx, actor, assessmentID); err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByAssessment(ctx, assessmentID, status)
}

// GradeSubmission scores the pending answers, refreshes the gradebook and notifies the student
func (s *assessmentServiceImpl) GradeSubmission(ctx context.Context, actor authz.Actor, submissionID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error) {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	a, _, err := s.managedAssessment(ctx, actor, sub.AssessmentID)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubmissionGraded {
		return nil, apperrors.ErrAlreadyGraded
	}

	if err := applyManualScores(a, sub, req); err != nil {
		return nil, err
	}
	now := s.now()
	graderID := actor.UserID
	sub.Feedback = strings.TrimSpace(req.Feedback)
	sub.GradedBy = &graderID
	sub.GradedAt = &now
	applyResult(a, sub)

	if err := s.submissionRepo.UpdateGrading(ctx, sub); err != nil {
		return nil, err
	}
	metrics.RecordSubmission(string(sub.Status))

	if err := recordBestAttempt(ctx, s.gradeRepo, s.submissionRepo, a, sub.StudentID); err != nil {
		s.logger.Error().Err(err).Int64("submissionID", sub.ID).Msg("Could not update gradebook")
	}

	s.notifier.Notify(ctx, &models.Notification{
		UserID:  sub.StudentID,
		Type:    models.NotificationGrade,
		Title:   "Submission graded",
		Message: fmt.Sprintf("Your attempt at %s scored %.2f%%.", a.Title, sub.Percentage),
		Link:    fmt.Sprintf("/student/assessments/%d", a.ID),
	})
	return sub, nil
}

// activeEnrollment fails with ErrNotEnrolled unless the student has access to the course
func activeEnrollment(ctx context.Context, repo EnrollmentStore, studentID, courseID int64) (*models.Enrollment, error) {
	e, err := repo.Get(ctx, studentID, courseID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrEnrollmentNotFound) {
			return nil, apperrors.ErrNotEnrolled
		}
		return nil, err
	}
	if !e.IsActive() {
		return nil, apperrors.ErrNotEnrolled
	}
	return e, nil
}

// summarize derives the list status of an assessment from the student's attempts
func summarize(a *models.Assessment, subs []*models.Submission, now time.Time) dto.StudentAssessmentSummary {
	summary := dto.StudentAssessmentSummary{
		ID:           a.ID,
		CourseID:     a.CourseID,
		CourseTitle:  a.CourseTitle,
		Title:        a.Title,
		Type:         string(a.Type),
		DueAt:        a.DueAt,
		MaxAttempts:  a.MaxAttempts,
		AttemptsUsed: len(subs),
		Status:       AssessmentNotStarted,
	}

	for _, sub := range subs {
		if sub.Status != models.SubmissionGraded {
			continue
		}
		if summary.BestScore == nil || sub.Percentage > *summary.BestScore {
			best := sub.Percentage
			summary.BestScore = &best
		}
	}

	switch {
	case summary.BestScore != nil:
		summary.Status = AssessmentGraded
	case len(subs) > 0:
		summary.Status = AssessmentPendingReview
	case a.IsLateAt(now):
		summary.Status = AssessmentOverdue
	}
	return summary
}

// ListStudentAssessments lists the published assessments of the student's courses
func (s *assessmentServiceImpl) ListStudentAssessments(ctx context.Context, actor authz.Actor) ([]dto.StudentAssessmentSummary, error) {
	assessments, err := s.assessmentRepo.ListForStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissionRepo.ListAllByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	byAssessment := make(map[int64][]*models.Submission)
	for _, sub := range subs {
		byAssessment[sub.AssessmentID] = append(byAssessment[sub.AssessmentID], sub)
	}

	now := s.now()
	out := make([]dto.StudentAssessmentSummary, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, summarize(a, byAssessment[a.ID], now))
	}
	return out, nil
}

// GetStudentAssessment returns the questions without the answer key
func (s *assessmentServiceImpl) GetStudentAssessment(ctx context.Context, actor authz.Actor, id int64) (*dto.StudentAssessmentResponse, error) {
	a, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AssessmentDraft {
		return nil, apperrors.ErrAssessmentNotFound
	}
	if _, err := activeEnrollment(ctx, s.enrollmentRepo, actor.UserID, a.CourseID); err != nil {
		return nil, err
	}

	subs, err := s.submissionRepo.ListByStudent(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentAssessmentResponse(a, subs), nil
}

// Submit records and auto-grades an attempt
func (s *assessmentServiceImpl) Submit(ctx context.Context, actor authz.Actor, id int64, req *dto.SubmitAssessmentRequest) (*models.Submission, error) {
	a, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AssessmentDraft {
		return nil, apperrors.ErrAssessmentNotFound
	}
	if _, err := activeEnrollment(ctx, s.enrollmentRepo, actor.UserID, a.CourseID); err != nil {
		return nil, err
	}

	now := s.now()
	if !a.IsOpenAt(now) {
		return nil, apperrors.ErrAssessmentNotOpen
	}
	late := a.IsLateAt(now)
	if late && !a.AllowLate {
		return nil, apperrors.ErrDeadlinePassed
	}

	prior, err := s.submissionRepo.ListByStudent(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(prior) >= a.MaxAttempts {
		return nil, apperrors.ErrMaxAttemptsReached
	}

	var answers []models.Answer
	if len(a.Questions) == 0 {
		content := strings.TrimSpace(req.Content)
		if content == "" {
			return nil, apperrors.NewValidationError("content", "is required")
		}
		answers = []models.Answer{{Answer: content}}
	} else {
		answers, err = gradeAnswers(a, req.Answers)
		if err != nil {
			return nil, err
		}
	}

	sub := &models.Submission{
		AssessmentID: a.ID,
		StudentID:    actor.UserID,
		Attempt:      len(prior) + 1,
		Answers:      answers,
		IsLate:       late,
		SubmittedAt:  now,
	}
	applyResult(a, sub)
	if sub.Status == models.SubmissionGraded {
		sub.GradedAt = &now
	}

	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	metrics.RecordSubmission(string(sub.Status))

	if sub.Status == models.SubmissionGraded {
		if err := recordBestAttempt(ctx, s.gradeRepo, s.submissionRepo, a, actor.UserID); err != nil {
			s.logger.Error().Err(err).Int64("submissionID", sub.ID).Msg("Could not update gradebook")
		}
	}
	return sub, nil
}
