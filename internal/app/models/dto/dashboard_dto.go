package dto

import "github.com/yigit/learnsphere/internal/app/models"

// StudentStats are the headline numbers of the student dashboard
type StudentStats struct {
	Enrolled     int      `json:"enrolled"`
	Completed    int      `json:"completed"`
	AverageGrade *float64 `json:"averageGrade"`
}

// StudentDashboardResponse aggregates the student landing page
type StudentDashboardResponse struct {
	Courses             []*models.Enrollment   `json:"courses"`
	UpcomingAssessments []*models.Assessment   `json:"upcomingAssessments"`
	RecentGrades        []*models.Grade        `json:"recentGrades"`
	Applications        []*models.Application  `json:"applications"`
	RecentPayments      []*PaymentResponse     `json:"recentPayments"`
	UnreadNotifications int64                  `json:"unreadNotifications"`
	Notifications       []*models.Notification `json:"notifications"`
	Stats               StudentStats           `json:"stats"`
}

// InstructorDashboardResponse aggregates the instructor landing page
type InstructorDashboardResponse struct {
	Courses             []CourseResponse      `json:"courses"`
	PendingSubmissions  []*models.Submission  `json:"pendingSubmissions"`
	PendingApplications []*models.Application `json:"pendingApplications"`
	Revenue             float64               `json:"revenue"`
	Currency            string                `json:"currency"`
	RecentEnrollments   []*models.Enrollment  `json:"recentEnrollments"`
	TotalStudents       int                   `json:"totalStudents"`
}

// AdminStatsResponse aggregates platform counters
type AdminStatsResponse struct {
	UsersByRole         map[string]int64 `json:"usersByRole"`
	CoursesByStatus     map[string]int64 `json:"coursesByStatus"`
	EnrollmentsByStatus map[string]int64 `json:"enrollmentsByStatus"`
	PaymentsByStatus    map[string]int64 `json:"paymentsByStatus"`
	Revenue             float64          `json:"revenue"`
	PendingApplications int64            `json:"pendingApplications"`
}
