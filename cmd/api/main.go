package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/eduportal/student-portal-api/internal/handler"
	"github.com/eduportal/student-portal-api/internal/middleware"
	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/repository"
	"github.com/eduportal/student-portal-api/internal/service"
	"github.com/eduportal/student-portal-api/pkg/cache"
	"github.com/eduportal/student-portal-api/pkg/config"
	"github.com/eduportal/student-portal-api/pkg/database"
	"github.com/eduportal/student-portal-api/pkg/logger"
	corsmiddleware "github.com/eduportal/student-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eduportal/student-portal-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, course caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	clock := clockwork.NewRealClock()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	tokenService := service.NewTokenService(service.TokenConfig{
		Secret:           cfg.JWT.Secret,
		Issuer:           cfg.JWT.Issuer,
		Expiration:       cfg.JWT.Expiration,
		RefreshThreshold: cfg.JWT.RefreshThreshold,
	}, clock)
	authService := service.NewAuthService(userRepo, tokenService, validate, logr)
	userService := service.NewUserService(userRepo, validate, logr)
	paymentService := service.NewPaymentService(paymentRepo, userRepo, validate, logr, clock)
	exportService := service.NewExportService(paymentService, logr)
	courseService := service.NewCourseService(courseRepo, cacheRepo, metrics, validate, logr, clock, cfg.Courses.CacheTTL)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, validate, logr, clock)
	taskService := service.NewTaskService(taskRepo, courseRepo, validate, logr, clock)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, validate, logr, clock)
	questionService := service.NewQuestionService(questionRepo, validate, logr)
	answerService := service.NewAnswerService(answerRepo, questionRepo, validate, logr)
	materialService := service.NewMaterialService(materialRepo, courseRepo, validate, logr)

	sweeper := service.NewOverdueSweeper(paymentService, metrics, logr, cfg.Sweeper.CronSpec)
	if cfg.Sweeper.Enabled {
		if err := sweeper.Start(); err != nil {
			logr.Sugar().Fatalw("failed to start overdue sweeper", "error", err)
		}
		defer sweeper.Stop()
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	paymentHandler := handler.NewPaymentHandler(paymentService, exportService)
	courseHandler := handler.NewCourseHandler(courseService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	taskHandler := handler.NewTaskHandler(taskService, submissionService)
	questionHandler := handler.NewQuestionHandler(questionService, answerService)
	materialHandler := handler.NewMaterialHandler(materialService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.Authenticate(tokenService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/login/registration", authHandler.LoginByRegistration)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(metrics))
	protected.Use(middleware.RequireAccountEnabled(userRepo, metrics))

	protected.GET("/auth/me", userHandler.Me)

	admin := middleware.RequireRoles(metrics, models.RoleAdmin)
	teacher := middleware.RequireRoles(metrics, models.RoleAdmin, models.RoleTeacher)
	adminOrSelf := middleware.RBAC(metrics, string(models.RoleAdmin), middleware.AllowSelf)

	users := protected.Group("/users")
	{
		users.GET("", admin, userHandler.List)
		users.GET("/me", userHandler.Me)
		users.GET("/:id", adminOrSelf, userHandler.Get)
		users.PUT("/:id", adminOrSelf, userHandler.Update)
		users.PATCH("/:id/access", admin, userHandler.SetEnabled)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", admin, courseHandler.Create)
		courses.PUT("/:id", admin, courseHandler.Update)
		courses.PATCH("/:id/status", admin, courseHandler.SetStatus)
		courses.DELETE("/:id", admin, courseHandler.Delete)
		courses.GET("/:id/enrollments", teacher, enrollmentHandler.ListByCourse)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.GET("/:id", taskHandler.Get)
		tasks.POST("", teacher, taskHandler.Create)
		tasks.PUT("/:id", teacher, taskHandler.Update)
		tasks.DELETE("/:id", teacher, taskHandler.Delete)
		tasks.POST("/:id/submissions", taskHandler.Submit)
		tasks.GET("/:id/submissions", teacher, taskHandler.ListSubmissions)
	}

	submissions := protected.Group("/submissions")
	{
		submissions.GET("/me", taskHandler.MySubmissions)
		submissions.GET("/:id", taskHandler.GetSubmission)
		submissions.PUT("/:id", taskHandler.Resubmit)
		submissions.POST("/:id/grade", teacher, taskHandler.Grade)
		submissions.POST("/:id/return", teacher, taskHandler.ReturnForRevision)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.POST("", admin, enrollmentHandler.Enroll)
		enrollments.GET("/me", enrollmentHandler.MyEnrollments)
		enrollments.GET("/:id", teacher, enrollmentHandler.Get)
		enrollments.POST("/:id/complete", admin, enrollmentHandler.Complete)
		enrollments.POST("/:id/drop", admin, enrollmentHandler.Drop)
		enrollments.POST("/:id/suspend", admin, enrollmentHandler.Suspend)
		enrollments.POST("/:id/reactivate", admin, enrollmentHandler.Reactivate)
	}

	questions := protected.Group("/questions")
	{
		questions.GET("", questionHandler.List)
		questions.GET("/:id", questionHandler.Get)
		questions.POST("", questionHandler.Create)
		questions.PUT("/:id", questionHandler.Update)
		questions.DELETE("/:id", questionHandler.Delete)
		questions.GET("/:id/answers", questionHandler.ListAnswers)
		questions.POST("/:id/answers", questionHandler.CreateAnswer)
	}

	answers := protected.Group("/answers")
	{
		answers.GET("/me", questionHandler.MyAnswers)
		answers.GET("/:id", questionHandler.GetAnswer)
		answers.PUT("/:id", questionHandler.UpdateAnswer)
		answers.DELETE("/:id", questionHandler.DeleteAnswer)
		answers.POST("/:id/accept", questionHandler.AcceptAnswer)
	}

	materials := protected.Group("/materials")
	{
		materials.GET("", materialHandler.List)
		materials.GET("/most-downloaded", materialHandler.MostDownloaded)
		materials.GET("/category/:category", materialHandler.ListByCategory)
		materials.GET("/uploader/:id", materialHandler.ListByUploader)
		materials.GET("/:id", materialHandler.Get)
		materials.GET("/:id/download", materialHandler.Download)
		materials.POST("", teacher, materialHandler.Create)
		materials.PUT("/:id", teacher, materialHandler.Update)
		materials.DELETE("/:id", teacher, materialHandler.Delete)
	}

	payments := protected.Group("/payments")
	{
		payments.POST("", admin, paymentHandler.Create)
		payments.GET("", admin, paymentHandler.List)
		payments.GET("/export", admin, paymentHandler.ExportCSV)
		payments.GET("/:id", admin, paymentHandler.Get)
		payments.GET("/:id/receipt", admin, paymentHandler.Receipt)
		payments.PATCH("/:id/pay", admin, paymentHandler.MarkPaid)
		payments.PATCH("/:id/cancel", admin, paymentHandler.Cancel)
		payments.PATCH("/:id/refund", admin, paymentHandler.Refund)
		payments.DELETE("/:id", admin, paymentHandler.Delete)
	}

	students := protected.Group("/students")
	{
		students.GET("/:id/payments", adminOrSelf, paymentHandler.ListByStudent)
		students.GET("/:id/enrollments", middleware.RBAC(metrics, string(models.RoleAdmin), string(models.RoleTeacher), middleware.AllowSelf), enrollmentHandler.ListByStudent)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
