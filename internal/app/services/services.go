// Package services holds the business logic behind the HTTP controllers.
//
// Services defined in this package:
//   - AuthService: registration, login and refresh token rotation
//   - CatalogService: the public course catalog and categories
//   - CourseWizardService: the five step course creation wizard
//   - InstructorCourseService: course management for instructors
//   - AssessmentService: assessment builder, submissions and grading
//   - GradebookService: grading schemes, final grades and CSV export
//   - ApplicationService: course and instructor applications
//   - PaymentService: checkout, gateway callbacks and refunds
//   - EnrollmentService: enrollments and lesson progress
//   - NotificationService: the in-app inbox with live push and email fan-out
//   - DashboardService: student and instructor landing pages
//   - AdminService: user management, course review and platform stats
package services
