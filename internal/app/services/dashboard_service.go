package services

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/app/repositories"
)

const (
	dashboardRecentLimit = 5
	pendingReviewLimit   = 10
	upcomingWindow       = 14 * 24 * time.Hour
)

// DashboardService aggregates the landing pages
type DashboardService interface {
	StudentDashboard(ctx context.Context, actor authz.Actor) (*dto.StudentDashboardResponse, error)
	InstructorDashboard(ctx context.Context, actor authz.Actor) (*dto.InstructorDashboardResponse, error)
}

type dashboardServiceImpl struct {
	enrollmentRepo   EnrollmentStore
	assessmentRepo   AssessmentStore
	submissionRepo   SubmissionStore
	gradeRepo        GradeStore
	applicationRepo  ApplicationStore
	paymentRepo      PaymentStore
	notificationRepo NotificationStore
	courseRepo       CourseStore
	statsRepo        StatsStore
	currency         string
	now              func() time.Time
}

// DashboardStores groups the stores the dashboards read from
type DashboardStores struct {
	Enrollments   EnrollmentStore
	Assessments   AssessmentStore
	Submissions   SubmissionStore
	Grades        GradeStore
	Applications  ApplicationStore
	Payments      PaymentStore
	Notifications NotificationStore
	Courses       CourseStore
	Stats         StatsStore
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(stores DashboardStores, currency string) DashboardService {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &dashboardServiceImpl{
		enrollmentRepo:   stores.Enrollments,
		assessmentRepo:   stores.Assessments,
		submissionRepo:   stores.Submissions,
		gradeRepo:        stores.Grades,
		applicationRepo:  stores.Applications,
		paymentRepo:      stores.Payments,
		notificationRepo: stores.Notifications,
		courseRepo:       stores.Courses,
		statsRepo:        stores.Stats,
		currency:         currency,
		now:              time.Now,
	}
}

// upcomingAssessments keeps the assessments due within the window that have no attempt yet, soonest first
func upcomingAssessments(assessments []*models.Assessment, subs []*models.Submission, now time.Time) []*models.Assessment {
	attempted := make(map[int64]bool, len(subs))
	for _, s := range subs {
		attempted[s.AssessmentID] = true
	}

	horizon := now.Add(upcomingWindow)
	upcoming := []*models.Assessment{}
	for _, a := range assessments {
		if a.Status != models.AssessmentPublished || a.DueAt == nil || attempted[a.ID] {
			continue
		}
		if a.DueAt.Before(now) || a.DueAt.After(horizon) {
			continue
		}
		upcoming = append(upcoming, a)
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].DueAt.Before(*upcoming[j].DueAt) })
	return upcoming
}

// averagePercentage is the mean of the entries, nil without entries
func averagePercentage(grades []*models.Grade) *float64 {
	if len(grades) == 0 {
		return nil
	}
	sum := 0.0
	for _, g := range grades {
		sum += g.Percentage
	}
	avg := roundPercentage(sum / float64(len(grades)))
	return &avg
}

// StudentDashboard runs the eight student queries concurrently. Any failure fails the whole page.
func (s *dashboardServiceImpl) StudentDashboard(ctx context.Context, actor authz.Actor) (*dto.StudentDashboardResponse, error) {
	var (
		resp      dto.StudentDashboardResponse
		allGrades []*models.Grade
	)
	userID := actor.UserID
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		resp.Courses, err = s.enrollmentRepo.ListByStudent(ctx, userID)
		return err
	})
	g.Go(func() error {
		assessments, err := s.assessmentRepo.ListForStudent(ctx, userID)
		if err != nil {
			return err
		}
		subs, err := s.submissionRepo.ListAllByStudent(ctx, userID)
		if err != nil {
			return err
		}
		resp.UpcomingAssessments = upcomingAssessments(assessments, subs, s.now())
		return nil
	})
	g.Go(func() (err error) {
		resp.RecentGrades, err = s.gradeRepo.ListByStudent(ctx, userID, dashboardRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		resp.Applications, err = s.applicationRepo.List(ctx, repositories.ApplicationFilter{ApplicantID: userID})
		return err
	})
	g.Go(func() error {
		payments, _, err := s.paymentRepo.List(ctx, repositories.PaymentFilter{UserID: userID}, 0, dashboardRecentLimit)
		if err != nil {
			return err
		}
		resp.RecentPayments = dto.NewPaymentResponses(payments)
		return nil
	})
	g.Go(func() (err error) {
		resp.UnreadNotifications, err = s.notificationRepo.UnreadCount(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		resp.Notifications, _, err = s.notificationRepo.List(ctx, userID, false, 0, dashboardRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		allGrades, err = s.gradeRepo.ListByStudent(ctx, userID, 0)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, e := range resp.Courses {
		resp.Stats.Enrolled++
		if e.Status == models.EnrollmentCompleted {
			resp.Stats.Completed++
		}
	}
	resp.Stats.AverageGrade = averagePercentage(allGrades)
	return &resp, nil
}

// InstructorDashboard runs the instructor queries concurrently
func (s *dashboardServiceImpl) InstructorDashboard(ctx context.Context, actor authz.Actor) (*dto.InstructorDashboardResponse, error) {
	resp := dto.InstructorDashboardResponse{Currency: s.currency}
	userID := actor.UserID
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		courses, _, err := s.courseRepo.List(ctx, repositories.CourseFilter{InstructorID: userID}, 0, 0)
		if err != nil {
			return err
		}
		resp.Courses = dto.NewCourseResponses(courses)
		return nil
	})
	g.Go(func() (err error) {
		resp.PendingSubmissions, err = s.submissionRepo.ListPendingForInstructor(ctx, userID, pendingReviewLimit)
		return err
	})
	g.Go(func() (err error) {
		resp.PendingApplications, err = s.applicationRepo.List(ctx, repositories.ApplicationFilter{
			InstructorID: userID,
			Type:         models.ApplicationCourse,
			Status:       models.ApplicationPending,
		})
		return err
	})
	g.Go(func() error {
		cents, err := s.statsRepo.RevenueCents(ctx, userID)
		if err != nil {
			return err
		}
		resp.Revenue = dto.CentsToAmount(cents)
		return nil
	})
	g.Go(func() (err error) {
		resp.RecentEnrollments, err = s.enrollmentRepo.ListRecentForInstructor(ctx, userID, dashboardRecentLimit)
		return err
	})
	g.Go(func() (err error) {
		resp.TotalStudents, err = s.statsRepo.DistinctStudents(ctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &resp, nil
}
