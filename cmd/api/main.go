package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/courseflow-api/internal/handler"
	"github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/repository"
	"github.com/noah-isme/courseflow-api/internal/service"
	"github.com/noah-isme/courseflow-api/pkg/cache"
	"github.com/noah-isme/courseflow-api/pkg/config"
	"github.com/noah-isme/courseflow-api/pkg/database"
	"github.com/noah-isme/courseflow-api/pkg/logger"
)

// @title CourseFlow API
// @version 1.0
// @description Course registration backend with seat-capacity tracking.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	sugar := log.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer func() { _ = db.Close() }()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			sugar.Warnw("redis unavailable, seat cache disabled", "error", err)
			cfg.Cache.Enabled = false
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, log)

	cacheSvc := service.NewCacheService(cacheRepo, cfg.Cache, log)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, log)
	promotionSvc := service.NewPromotionService(studentRepo, calendarRepo, validate, log)

	dispatcher := service.NewPromotionDispatcher(promotionSvc, cfg.Promotion, log)
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	dispatcher.Start(rootCtx)
	defer dispatcher.Stop()

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, dispatcher, cacheSvc, validate, log)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, log)
	dashboardSvc := service.NewDashboardService(studentRepo, cacheSvc, log)
	exportSvc := service.NewExportService()

	metrics := middleware.NewMetrics()

	router := handler.NewRouter(handler.RouterDeps{
		Config:         cfg,
		Logger:         log,
		DB:             db,
		Redis:          redisClient,
		Metrics:        metrics,
		TokenValidator: authSvc,
		Auth:           handler.NewAuthHandler(authSvc),
		Enrollments:    handler.NewEnrollmentHandler(enrollmentSvc, exportSvc),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc),
		Courses:        handler.NewCourseHandler(courseSvc),
		Promotions:     handler.NewPromotionHandler(promotionSvc),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	sugar.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
	sugar.Info("server stopped")
}
