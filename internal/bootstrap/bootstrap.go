package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/learnsphere/internal/app/controllers"
	appMigrations "github.com/yigit/learnsphere/internal/app/migrations"
	appRepos "github.com/yigit/learnsphere/internal/app/repositories"
	appRoutes "github.com/yigit/learnsphere/internal/app/routes"
	appServices "github.com/yigit/learnsphere/internal/app/services"
	"github.com/yigit/learnsphere/internal/config"
	"github.com/yigit/learnsphere/internal/db"
	"github.com/yigit/learnsphere/internal/jobs"
	appMiddleware "github.com/yigit/learnsphere/internal/middleware"
	pkgAuth "github.com/yigit/learnsphere/internal/pkg/auth"
	"github.com/yigit/learnsphere/internal/pkg/cache"
	"github.com/yigit/learnsphere/internal/pkg/email"
	"github.com/yigit/learnsphere/internal/pkg/filestorage"
	"github.com/yigit/learnsphere/internal/pkg/helpers"
	"github.com/yigit/learnsphere/internal/pkg/logger"
	"github.com/yigit/learnsphere/internal/pkg/payment"
	"github.com/yigit/learnsphere/internal/pkg/websocket"
	"github.com/yigit/learnsphere/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Cache          cache.Cache
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Hub            *websocket.Hub
	Scheduler      *jobs.Scheduler
	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiter    *appMiddleware.RateLimiter
	Handlers       appRoutes.Handlers
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, appMigrations.Files())
	if err := migrator.Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database)
	repos := deps.Repos

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Seed after migrations; a failure is logged, not fatal
	admin := seed.AdminAccount{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword}
	if err := seed.CreateDefaultData(ctx, repos.UserRepository, repos.CategoryRepository, admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	var err error
	deps.Cache, err = cache.New(ctx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "learnsphere:",
	})
	if err != nil {
		lgr.Warn().Err(err).Msg("Redis unavailable, caching disabled")
		deps.Cache = cache.NoopCache{}
	}

	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.Server.PublicBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.Email.Host,
		Port:      cfg.Email.Port,
		Username:  cfg.Email.Username,
		Password:  cfg.Email.Password,
		FromName:  cfg.Email.FromName,
		FromEmail: cfg.Email.FromEmail,
		UseTLS:    cfg.Email.UseTLS,
		BaseURL:   cfg.Server.PublicBaseURL,
	}, lgr.With().Str("component", "email").Logger())

	deps.Hub = websocket.NewHub(lgr.With().Str("component", "websocket").Logger())

	notificationService := appServices.NewNotificationService(
		repos.NotificationRepository,
		repos.UserRepository,
		deps.Hub,
		emailService,
		helpers.ParseDuration(cfg.Notifications.Retention, 90*24*time.Hour),
		lgr,
	)

	authService := appServices.NewAuthService(repos.UserRepository, repos.TokenRepository, deps.JWTService, lgr)
	catalogService := appServices.NewCatalogService(repos.CourseRepository, repos.CategoryRepository, deps.Cache)
	courseService := appServices.NewInstructorCourseService(repos.CourseRepository, repos.EnrollmentRepository, deps.FileStorage, lgr)
	wizardService := appServices.NewCourseWizardService(repos.CourseDraftRepository, repos.CourseRepository, lgr)
	assessmentService := appServices.NewAssessmentService(
		repos.AssessmentRepository,
		repos.SubmissionRepository,
		repos.CourseRepository,
		repos.EnrollmentRepository,
		repos.GradeRepository,
		notificationService,
		lgr,
	)
	gradebookService := appServices.NewGradebookService(
		repos.GradeRepository,
		repos.CourseRepository,
		repos.AssessmentRepository,
		repos.EnrollmentRepository,
		notificationService,
		lgr,
	)
	applicationService := appServices.NewApplicationService(
		repos.ApplicationRepository,
		repos.CourseRepository,
		repos.UserRepository,
		repos.EnrollmentRepository,
		notificationService,
		lgr,
	)
	paymentService := appServices.NewPaymentService(
		repos.PaymentRepository,
		repos.CourseRepository,
		repos.EnrollmentRepository,
		repos.ApplicationRepository,
		repos.UserRepository,
		payment.NewSandboxGateway(cfg.Payments.CheckoutBaseURL),
		emailService,
		notificationService,
		appServices.PaymentConfig{
			WebhookSecret: cfg.Payments.WebhookSecret,
			Currency:      cfg.Payments.Currency,
			PendingTTL:    helpers.ParseDuration(cfg.Payments.PendingTTL, 30*time.Minute),
		},
		lgr,
	)
	enrollmentService := appServices.NewEnrollmentService(
		repos.EnrollmentRepository,
		repos.CourseRepository,
		repos.ApplicationRepository,
		notificationService,
		lgr,
	)
	dashboardService := appServices.NewDashboardService(appServices.DashboardStores{
		Enrollments:   repos.EnrollmentRepository,
		Assessments:   repos.AssessmentRepository,
		Submissions:   repos.SubmissionRepository,
		Grades:        repos.GradeRepository,
		Applications:  repos.ApplicationRepository,
		Payments:      repos.PaymentRepository,
		Notifications: repos.NotificationRepository,
		Courses:       repos.CourseRepository,
		Stats:         repos.StatsRepository,
	}, cfg.Payments.Currency)
	adminService := appServices.NewAdminService(
		repos.UserRepository,
		repos.TokenRepository,
		repos.CourseRepository,
		repos.StatsRepository,
		notificationService,
		deps.Cache,
		helpers.ParseDuration(cfg.Redis.StatsTTL, time.Minute),
		lgr,
	)

	deps.Scheduler, err = jobs.NewScheduler(jobs.Config{
		ExpirePaymentsSpec:     cfg.Jobs.ExpirePaymentsSpec,
		DueRemindersSpec:       cfg.Jobs.DueRemindersSpec,
		PurgeNotificationsSpec: cfg.Jobs.PurgeNotificationsSpec,
	}, paymentService, repos.AssessmentRepository, notificationService, notificationService,
		lgr.With().Str("component", "jobs").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to configure jobs: %w", err)
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	commands := websocket.NewMessageHandler(notificationService, deps.Hub, lgr)
	deps.Handlers = appRoutes.Handlers{
		Auth:             appControllers.NewAuthController(authService, lgr),
		Catalog:          appControllers.NewCatalogController(catalogService),
		InstructorCourse: appControllers.NewInstructorCourseController(courseService, lgr),
		CourseWizard:     appControllers.NewCourseWizardController(wizardService),
		Assessment:       appControllers.NewAssessmentController(assessmentService),
		Gradebook:        appControllers.NewGradebookController(gradebookService),
		Application:      appControllers.NewApplicationController(applicationService),
		Payment:          appControllers.NewPaymentController(paymentService, lgr),
		Enrollment:       appControllers.NewEnrollmentController(enrollmentService),
		Notification: appControllers.NewNotificationController(notificationService,
			helpers.ParseDuration(cfg.Notifications.PollInterval, 30*time.Second)),
		Dashboard: appControllers.NewDashboardController(dashboardService),
		Admin:     appControllers.NewAdminController(adminService),
		Health:    appControllers.NewHealthController(database),
		WebSocket: websocket.NewHandler(deps.Hub, commands, cfg.AllowedOrigins(), lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.CORS(cfg.AllowedOrigins()),
		appMiddleware.Metrics(),
	)
	router.MaxMultipartMemory = 8 << 20

	appRoutes.SetupSwagger(router)
	router.Static(filestorage.PublicPrefix, deps.FileStorage.BasePath())
	appRoutes.SetupRouter(router, deps.Handlers, deps.AuthMiddleware, deps.RateLimiter)

	return router, nil
}
