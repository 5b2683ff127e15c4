package repositories

import (
	"github.com/yigit/learnsphere/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	TokenRepository        *TokenRepository
	CategoryRepository     *CategoryRepository
	CourseRepository       *CourseRepository
	CourseDraftRepository  *CourseDraftRepository
	AssessmentRepository   *AssessmentRepository
	SubmissionRepository   *SubmissionRepository
	GradeRepository        *GradeRepository
	ApplicationRepository  *ApplicationRepository
	PaymentRepository      *PaymentRepository
	EnrollmentRepository   *EnrollmentRepository
	NotificationRepository *NotificationRepository
	StatsRepository        *StatsRepository
}

// NewRepositories initializes all repositories
func NewRepositories(pg *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(pg.Pool),
		TokenRepository:        NewTokenRepository(pg.Pool),
		CategoryRepository:     NewCategoryRepository(pg.Pool),
		CourseRepository:       NewCourseRepository(pg),
		CourseDraftRepository:  NewCourseDraftRepository(pg.Pool),
		AssessmentRepository:   NewAssessmentRepository(pg),
		SubmissionRepository:   NewSubmissionRepository(pg.Pool),
		GradeRepository:        NewGradeRepository(pg.Pool),
		ApplicationRepository:  NewApplicationRepository(pg.Pool),
		PaymentRepository:      NewPaymentRepository(pg),
		EnrollmentRepository:   NewEnrollmentRepository(pg.Pool),
		NotificationRepository: NewNotificationRepository(pg.Pool),
		StatsRepository:        NewStatsRepository(pg.Pool),
	}
}
