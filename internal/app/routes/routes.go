package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/learnsphere/internal/app/controllers"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/middleware"
	"github.com/yigit/learnsphere/internal/pkg/metrics"
	"github.com/yigit/learnsphere/internal/pkg/websocket"
)

// Handlers groups every controller the router mounts
type Handlers struct {
	Auth             *controllers.AuthController
	Catalog          *controllers.CatalogController
	InstructorCourse *controllers.InstructorCourseController
	CourseWizard     *controllers.CourseWizardController
	Assessment       *controllers.AssessmentController
	Gradebook        *controllers.GradebookController
	Application      *controllers.ApplicationController
	Payment          *controllers.PaymentController
	Enrollment       *controllers.EnrollmentController
	Notification     *controllers.NotificationController
	Dashboard        *controllers.DashboardController
	Admin            *controllers.AdminController
	Health           *controllers.HealthController
	WebSocket        *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) {
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.NoRoute(middleware.RespondNotFound)

	api := router.Group("/api")
	api.Use(rateLimiter.Handler())

	api.GET("/health", h.Health.Health)

	// --- Public routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", authMiddleware.JWTAuth(), h.Auth.Me)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", h.Catalog.ListCourses)
		courses.GET("/:id", authMiddleware.OptionalAuth(), h.Catalog.GetCourse)
	}
	api.GET("/categories", h.Catalog.ListCategories)

	// Signed by the gateway, not by a user token
	api.POST("/payments/webhook", h.Payment.Webhook)

	// --- Authenticated routes ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	payments := authenticated.Group("/payments")
	{
		payments.POST("/checkout", authMiddleware.RoleRequired(models.RoleStudent), h.Payment.Checkout)
		payments.POST("/verify", h.Payment.Verify)
		payments.GET("/:id", h.Payment.Get)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.GET("/ws", h.WebSocket.HandleConnection)
		notifications.PATCH("/read-all", h.Notification.MarkAllAsRead)
		notifications.PATCH("/:id/read", h.Notification.MarkAsRead)
		notifications.DELETE("/:id", h.Notification.Delete)
	}

	student := authenticated.Group("/student")
	student.Use(authMiddleware.RoleRequired(models.RoleStudent))
	{
		student.GET("/dashboard", h.Dashboard.Student)

		student.GET("/courses", h.Enrollment.ListMyCourses)
		student.GET("/courses/:id", h.Enrollment.GetMyCourse)
		student.POST("/courses/:id/enroll", h.Enrollment.Enroll)
		student.DELETE("/courses/:id", h.Enrollment.Drop)
		student.POST("/courses/:id/lessons/:lessonId/complete", h.Enrollment.CompleteLesson)

		student.GET("/assessments", h.Assessment.ListStudentAssessments)
		student.GET("/assessments/:id", h.Assessment.GetStudentAssessment)
		student.POST("/assessments/:id/submissions", h.Assessment.Submit)

		student.GET("/grades", h.Gradebook.StudentGrades)
		student.GET("/payments", h.Payment.ListMine)

		student.GET("/applications", h.Application.ListMine)
		student.POST("/applications", h.Application.Apply)
		student.POST("/applications/:id/withdraw", h.Application.Withdraw)
	}

	instructor := authenticated.Group("/instructor")
	instructor.Use(authMiddleware.RoleRequired(models.RoleInstructor, models.RoleAdmin))
	{
		instructor.GET("/dashboard", h.Dashboard.Instructor)

		drafts := instructor.Group("/course-drafts")
		{
			drafts.POST("", h.CourseWizard.CreateDraft)
			drafts.GET("", h.CourseWizard.ListDrafts)
			drafts.GET("/:id", h.CourseWizard.GetDraft)
			drafts.DELETE("/:id", h.CourseWizard.DeleteDraft)
			drafts.PUT("/:id/steps/:step", h.CourseWizard.SaveStep)
			drafts.POST("/:id/back", h.CourseWizard.Back)
			drafts.POST("/:id/submit", h.CourseWizard.Submit)
		}

		ic := instructor.Group("/courses")
		{
			ic.POST("", h.InstructorCourse.CreateCourse)
			ic.GET("", h.InstructorCourse.ListCourses)
			ic.GET("/:id", h.InstructorCourse.GetCourse)
			ic.PUT("/:id", h.InstructorCourse.UpdateCourse)
			ic.DELETE("/:id", h.InstructorCourse.DeleteCourse)
			ic.POST("/:id/submit-review", h.InstructorCourse.SubmitForReview)
			ic.POST("/:id/archive", h.InstructorCourse.ArchiveCourse)
			ic.POST("/:id/thumbnail", h.InstructorCourse.UploadThumbnail)
			ic.GET("/:id/students", h.InstructorCourse.ListStudents)

			ic.GET("/:id/assessments", h.Assessment.ListCourseAssessments)
			ic.POST("/:id/assessments", h.Assessment.CreateAssessment)

			ic.GET("/:id/grading-scheme", h.Gradebook.GetScheme)
			ic.PUT("/:id/grading-scheme", h.Gradebook.SaveScheme)
			ic.GET("/:id/gradebook", h.Gradebook.Gradebook)
			ic.GET("/:id/gradebook/export", h.Gradebook.ExportCSV)
			ic.PUT("/:id/grades", h.Gradebook.SetManualGrade)
		}

		assessments := instructor.Group("/assessments")
		{
			assessments.GET("/:id", h.Assessment.GetAssessment)
			assessments.PUT("/:id", h.Assessment.UpdateAssessment)
			assessments.DELETE("/:id", h.Assessment.DeleteAssessment)
			assessments.POST("/:id/publish", h.Assessment.PublishAssessment)
			assessments.POST("/:id/close", h.Assessment.CloseAssessment)
			assessments.GET("/:id/submissions", h.Assessment.ListSubmissions)
		}
		instructor.POST("/submissions/:id/grade", h.Assessment.GradeSubmission)

		instructor.GET("/applications", h.Application.ListForReview)
		instructor.PATCH("/applications/:id", h.Application.Decide)
	}

	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/stats", h.Admin.Stats)

		admin.GET("/users", h.Admin.ListUsers)
		admin.PATCH("/users/:id/status", h.Admin.SetUserStatus)
		admin.PATCH("/users/:id/role", h.Admin.SetUserRole)

		admin.GET("/courses", h.Admin.ListCourses)
		admin.PATCH("/courses/:id/review", h.Admin.ReviewCourse)

		admin.GET("/applications", h.Application.ListForReview)
		admin.PATCH("/applications/:id", h.Application.Decide)

		admin.GET("/payments", h.Payment.List)
		admin.POST("/payments/:id/refund", h.Payment.Refund)
	}
}
