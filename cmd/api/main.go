package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuscore/uni-admin-api/api/swagger"
	"github.com/campuscore/uni-admin-api/internal/handler"
	"github.com/campuscore/uni-admin-api/internal/middleware"
	"github.com/campuscore/uni-admin-api/internal/models"
	"github.com/campuscore/uni-admin-api/internal/repository"
	"github.com/campuscore/uni-admin-api/internal/service"
	"github.com/campuscore/uni-admin-api/pkg/cache"
	"github.com/campuscore/uni-admin-api/pkg/config"
	"github.com/campuscore/uni-admin-api/pkg/database"
	"github.com/campuscore/uni-admin-api/pkg/jobs"
	"github.com/campuscore/uni-admin-api/pkg/logger"
	corsmiddleware "github.com/campuscore/uni-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuscore/uni-admin-api/pkg/middleware/requestid"
	"github.com/campuscore/uni-admin-api/pkg/storage"
)

// @title University Administration API
// @version 1.0.0
// @description Role-based administration API for departments, programs, courses, enrollment, grading, finance and transcripts
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	objectStore, err := storage.NewS3Store(cfg.S3)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object storage", "error", err)
	}

	transcriptFiles, err := storage.NewLocalStorage(cfg.Transcripts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init transcript storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Transcripts.SignedURLSecret, cfg.Transcripts.SignedURLTTL)

	var cacheRepo *repository.CacheRepository
	if cfg.Dashboard.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboards fall back to direct queries", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	authzRepo := repository.NewAuthzRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "uni-admin-api",
	})
	authzSvc := service.NewAuthzService(authzRepo, logr)
	registrySvc := service.NewRegistryService(registryRepo, userRepo, auditRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, registryRepo, validate, logr)
	lecturerSvc := service.NewLecturerService(lecturerRepo, userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, registryRepo, lecturerRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, auditRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, auditRepo, validate, logr)
	materialSvc := service.NewMaterialService(materialRepo, studentRepo, authzRepo, objectStore, validate, logr)
	courseworkSvc := service.NewCourseworkService(assignmentRepo, submissionRepo, studentRepo, authzRepo, objectStore, auditRepo, validate, logr)
	financeSvc := service.NewFinanceService(financeRepo, userRepo, auditRepo, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	var dashboardSvc *service.DashboardService
	if cacheRepo != nil {
		dashboardSvc = service.NewDashboardService(dashboardRepo, financeRepo, submissionRepo, lecturerRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	} else {
		dashboardSvc = service.NewDashboardService(dashboardRepo, financeRepo, submissionRepo, lecturerRepo, nil, cfg.Dashboard.CacheTTL, logr)
	}

	transcriptSvc := service.NewTranscriptService(transcriptRepo, gradeRepo, studentRepo, transcriptFiles, signer, logr)
	transcriptQueue := jobs.NewQueue("transcripts", transcriptSvc.HandleRenderJob, jobs.QueueConfig{
		Workers:    cfg.Transcripts.WorkerConcurrency,
		MaxRetries: cfg.Transcripts.WorkerRetries,
		Logger:     logr,
	})
	transcriptSvc.SetQueue(transcriptQueue)
	transcriptQueue.Start(context.Background())
	defer transcriptQueue.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	registryHandler := handler.NewRegistryHandler(registrySvc)
	studentHandler := handler.NewStudentHandler(studentSvc, authzSvc)
	lecturerHandler := handler.NewLecturerHandler(lecturerSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, studentSvc, authzSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc, enrollmentSvc, authzSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc, authzSvc, cfg.Uploads.MaxFileSizeBytes)
	courseworkHandler := handler.NewCourseworkHandler(courseworkSvc, authzSvc, cfg.Uploads.MaxFileSizeBytes)
	financeHandler := handler.NewFinanceHandler(financeSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc, authzSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc, dashboardSvc, auditRepo, routeHandlers{
		auth:        authHandler,
		registry:    registryHandler,
		students:    studentHandler,
		lecturers:   lecturerHandler,
		courses:     courseHandler,
		enrollments: enrollmentHandler,
		grades:      gradeHandler,
		materials:   materialHandler,
		coursework:  courseworkHandler,
		finance:     financeHandler,
		dashboards:  dashboardHandler,
		transcripts: transcriptHandler,
		audits:      auditHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

type routeHandlers struct {
	auth        *handler.AuthHandler
	registry    *handler.RegistryHandler
	students    *handler.StudentHandler
	lecturers   *handler.LecturerHandler
	courses     *handler.CourseHandler
	enrollments *handler.EnrollmentHandler
	grades      *handler.GradeHandler
	materials   *handler.MaterialHandler
	coursework  *handler.CourseworkHandler
	finance     *handler.FinanceHandler
	dashboards  *handler.DashboardHandler
	transcripts *handler.TranscriptHandler
	audits      *handler.AuditHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, authSvc *service.AuthService, dashboardSvc *service.DashboardService, auditRepo *repository.AuditRepository, h routeHandlers) {
	public := r.Group(cfg.APIPrefix)
	public.POST("/auth/login", middleware.Audit(auditRepo, models.AuditActionLogin, "session"), h.auth.Login)
	public.POST("/auth/refresh", h.auth.Refresh)
	// Download carries its own signed token, so no session is required.
	public.GET("/transcripts/download", h.transcripts.Download)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	api.Use(middleware.InvalidateDashboards(dashboardSvc))

	api.POST("/auth/logout", middleware.Audit(auditRepo, models.AuditActionLogout, "session"), h.auth.Logout)
	api.POST("/auth/change-password", middleware.Audit(auditRepo, models.AuditActionPasswordChange, "user"), h.auth.ChangePassword)
	api.GET("/auth/me", h.auth.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	registrars := middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar)
	academicStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleHOD, models.RoleLecturer)
	bursars := middleware.RequireRoles(models.RoleAdmin, models.RoleBursar)

	api.POST("/departments", adminOnly, h.registry.CreateDepartment)
	api.GET("/departments", h.registry.ListDepartments)
	api.GET("/departments/:id", h.registry.GetDepartment)
	api.PUT("/departments/:id/head", adminOnly, h.registry.AssignDepartmentHead)

	api.POST("/programs", registrars, h.registry.CreateProgram)
	api.GET("/programs", h.registry.ListPrograms)
	api.GET("/programs/:id", h.registry.GetProgram)

	api.POST("/semesters", registrars, h.registry.CreateSemester)
	api.GET("/semesters", h.registry.ListSemesters)

	api.GET("/courses", h.courses.List)
	api.GET("/courses/:id", h.courses.Get)
	api.POST("/courses", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleHOD), h.courses.Create)
	api.PUT("/courses/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleHOD), h.courses.Update)
	api.PUT("/courses/:id/lecturer", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), h.courses.AssignLecturer)
	api.DELETE("/courses/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleHOD), h.courses.Delete)

	api.POST("/students", registrars, h.students.Register)
	api.GET("/students", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleHOD, models.RoleLecturer), h.students.List)
	api.GET("/students/me", middleware.RequireRoles(models.RoleStudent), h.students.Me)
	api.GET("/students/:id", h.students.Get)
	api.PUT("/students/:id/semester", registrars, h.students.SetCurrentSemester)
	api.POST("/students/rollover", registrars, h.students.Rollover)
	api.PUT("/students/:id/active", adminOnly, h.students.SetActive)

	api.POST("/lecturers", adminOnly, h.lecturers.Register)
	api.GET("/lecturers", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleHOD), h.lecturers.List)
	api.GET("/lecturers/:id", h.lecturers.Get)
	api.PUT("/lecturers/:id/active", adminOnly, h.lecturers.SetActive)

	api.POST("/enrollments", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar, models.RoleStudent), h.enrollments.Enroll)
	api.GET("/enrollments", h.enrollments.List)
	api.GET("/enrollments/:id", h.enrollments.Get)
	api.DELETE("/enrollments/:id", registrars, h.enrollments.Unenroll)
	api.GET("/enrollments/:id/grade", h.grades.GetByEnrollment)

	api.POST("/grades", academicStaff, h.grades.RecordScores)
	api.GET("/grades", academicStaff, h.grades.List)
	api.GET("/courses/:id/grade-distribution", academicStaff, h.grades.Distribution)

	api.POST("/courses/:id/materials", academicStaff, h.materials.Upload)
	api.GET("/courses/:id/materials", h.materials.List)
	api.POST("/materials/:id/views", h.materials.RecordView)
	api.GET("/materials/:id/views", academicStaff, h.materials.ViewCount)
	api.DELETE("/materials/:id", academicStaff, h.materials.Delete)

	api.POST("/assignments", academicStaff, h.coursework.CreateAssignment)
	api.GET("/courses/:id/assignments", h.coursework.ListAssignments)
	api.DELETE("/assignments/:id", academicStaff, h.coursework.DeleteAssignment)
	api.POST("/quizzes", academicStaff, h.coursework.CreateQuiz)
	api.GET("/courses/:id/quizzes", h.coursework.ListQuizzes)
	api.POST("/submissions", middleware.RequireRoles(models.RoleStudent), h.coursework.Submit)
	api.GET("/submissions/status", middleware.RequireRoles(models.RoleStudent), h.coursework.SubmissionStatus)
	api.GET("/submissions/grading", academicStaff, h.coursework.ListForGrading)
	api.POST("/submissions/grade", academicStaff, h.coursework.GradeSubmission)

	api.POST("/fees", bursars, h.finance.CreateFee)
	api.PUT("/fees/:id", bursars, h.finance.UpdateFee)
	api.GET("/fees", bursars, h.finance.ListFees)
	api.GET("/fees/export", bursars, h.finance.ExportFees)
	api.PUT("/salaries", bursars, h.finance.UpsertSalary)
	api.GET("/salaries", bursars, h.finance.ListSalaries)
	api.GET("/salaries/export", bursars, h.finance.ExportSalaries)

	api.GET("/dashboards/admin", adminOnly, h.dashboards.Admin)
	api.GET("/dashboards/bursar", bursars, h.dashboards.Bursar)
	api.GET("/dashboards/lecturer", middleware.RequireRoles(models.RoleLecturer), h.dashboards.Lecturer)
	api.GET("/dashboards/system", adminOnly, h.dashboards.SystemMetrics)

	api.GET("/students/:id/transcript", h.transcripts.Assemble)
	api.POST("/students/:id/transcript/render", h.transcripts.RequestRender)
	api.GET("/students/:id/transcript/jobs", h.transcripts.ListJobs)
	api.GET("/transcripts/jobs/:id", h.transcripts.GetJob)
	api.POST("/transcripts/jobs/:id/download-link", h.transcripts.GrantDownload)

	api.GET("/audit-logs", adminOnly, h.audits.List)
}
