package services

import (
	"context"
	"time"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/repositories"
)

// The store interfaces below are the parts of the repositories each service uses.
// The repositories package satisfies all of them.

// UserStore persists accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	List(ctx context.Context, filter repositories.UserFilter, offset, limit uint64) ([]*models.User, int64, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, active bool) error
	UpdateRole(ctx context.Context, id int64, role models.RoleType) error
}

// TokenStore persists refresh tokens
type TokenStore interface {
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// CategoryStore reads catalog categories
type CategoryStore interface {
	List(ctx context.Context) ([]*models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
}

// CourseStore persists courses and their outline
type CourseStore interface {
	List(ctx context.Context, filter repositories.CourseFilter, offset, limit uint64) ([]*models.Course, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	GetOutline(ctx context.Context, courseID int64) ([]*models.CourseSection, error)
	CreateWithOutline(ctx context.Context, course *models.Course, sections []*models.CourseSection, draftID *int64) error
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id int64, status models.CourseStatus, note *string) error
	UpdateThumbnail(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
	CourseIDOfLesson(ctx context.Context, lessonID int64) (int64, error)
}

// DraftStore persists wizard drafts
type DraftStore interface {
	Create(ctx context.Context, draft *models.CourseDraft) error
	GetByID(ctx context.Context, id int64) (*models.CourseDraft, error)
	ListByInstructor(ctx context.Context, instructorID int64) ([]*models.CourseDraft, error)
	Update(ctx context.Context, draft *models.CourseDraft) error
	Delete(ctx context.Context, id int64) error
}

// AssessmentStore persists assessments with their questions
type AssessmentStore interface {
	Create(ctx context.Context, a *models.Assessment) error
	Replace(ctx context.Context, a *models.Assessment) error
	GetByID(ctx context.Context, id int64) (*models.Assessment, error)
	ListByCourse(ctx context.Context, courseID int64, statuses ...models.AssessmentStatus) ([]*models.Assessment, error)
	ListForStudent(ctx context.Context, studentID int64) ([]*models.Assessment, error)
	UpdateStatus(ctx context.Context, id int64, status models.AssessmentStatus) error
	Delete(ctx context.Context, id int64) error
}

// SubmissionStore persists assessment attempts
type SubmissionStore interface {
	Create(ctx context.Context, s *models.Submission) error
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID int64, status models.SubmissionStatus) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, assessmentID, studentID int64) ([]*models.Submission, error)
	ListAllByStudent(ctx context.Context, studentID int64) ([]*models.Submission, error)
	ListPendingForInstructor(ctx context.Context, instructorID int64, limit uint64) ([]*models.Submission, error)
	UpdateGrading(ctx context.Context, s *models.Submission) error
}

// GradeStore persists grading schemes and gradebook cells
type GradeStore interface {
	GetScheme(ctx context.Context, courseID int64) (*models.GradingScheme, error)
	SaveScheme(ctx context.Context, s *models.GradingScheme) error
	Upsert(ctx context.Context, g *models.Grade) (bool, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error)
	ListByStudent(ctx context.Context, studentID int64, limit uint64) ([]*models.Grade, error)
}

// ApplicationStore persists applications
type ApplicationStore interface {
	Create(ctx context.Context, a *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	List(ctx context.Context, filter repositories.ApplicationFilter) ([]*models.Application, error)
	LatestStatus(ctx context.Context, applicantID, courseID int64) (models.ApplicationStatus, error)
	Decide(ctx context.Context, id int64, status models.ApplicationStatus, reviewerID *int64, note string) error
}

// EnrollmentStore persists enrollments
type EnrollmentStore interface {
	Enroll(ctx context.Context, studentID, courseID int64, paymentID *int64) (*models.Enrollment, error)
	Get(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error)
	ListRecentForInstructor(ctx context.Context, instructorID int64, limit uint64) ([]*models.Enrollment, error)
	CountActive(ctx context.Context, courseID int64) (int, error)
	ActiveStudentIDs(ctx context.Context, courseID int64) ([]int64, error)
	UpdateProgress(ctx context.Context, e *models.Enrollment) error
	Drop(ctx context.Context, id int64) error
}

// PaymentStore persists payments and applies their transitions
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindPending(ctx context.Context, userID, courseID int64) (*models.Payment, error)
	List(ctx context.Context, filter repositories.PaymentFilter, offset, limit uint64) ([]*models.Payment, int64, error)
	UpdateStatus(ctx context.Context, p *models.Payment, from models.PaymentStatus) error
	CompleteAndEnroll(ctx context.Context, p *models.Payment) (*models.Enrollment, error)
	RefundAndDrop(ctx context.Context, p *models.Payment) error
	ExpireStale(ctx context.Context, before time.Time) ([]*models.Payment, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID int64, unreadOnly bool, offset, limit uint64) ([]*models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, userID, id int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, id int64) error
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}

// StatsStore answers aggregate queries
type StatsStore interface {
	UsersByRole(ctx context.Context) (map[string]int64, error)
	CoursesByStatus(ctx context.Context) (map[string]int64, error)
	EnrollmentsByStatus(ctx context.Context) (map[string]int64, error)
	PaymentsByStatus(ctx context.Context) (map[string]int64, error)
	RevenueCents(ctx context.Context, instructorID int64) (int64, error)
	PendingApplications(ctx context.Context) (int64, error)
	DistinctStudents(ctx context.Context, instructorID int64) (int, error)
}

// Notifier delivers in-app notifications. Delivery failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
	NotifyWithEmail(ctx context.Context, n *models.Notification)
}
