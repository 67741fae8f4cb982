package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dept-attendance-api/api/swagger"
	"github.com/noah-isme/dept-attendance-api/internal/handler"
	"github.com/noah-isme/dept-attendance-api/internal/middleware"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/repository"
	"github.com/noah-isme/dept-attendance-api/internal/service"
	"github.com/noah-isme/dept-attendance-api/pkg/cache"
	"github.com/noah-isme/dept-attendance-api/pkg/config"
	"github.com/noah-isme/dept-attendance-api/pkg/database"
	"github.com/noah-isme/dept-attendance-api/pkg/docstore"
	"github.com/noah-isme/dept-attendance-api/pkg/jobs"
	"github.com/noah-isme/dept-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dept-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dept-attendance-api/pkg/middleware/requestid"
)

// @title Department Attendance API
// @version 1.0.0
// @description Daily class attendance with legacy and yearful class keys
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadinessCheck{}

	store, db, err := openDocStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open document store", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checks["docstore"] = db.PingContext
	}

	metricsSvc := service.NewMetricsService()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		repo := repository.NewCacheRepository(redisClient, "attendance:", logger.Named(logr, "cache"))
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
		checks["redis"] = repo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ClassMetaTTL, logger.Named(logr, "cache"), cfg.Cache.Enabled)

	validate := service.NewValidator()
	dept := cfg.Attendance.Department

	scheduleSvc := service.NewScheduleService(repository.NewSettingsRepository(store), validate, service.ScheduleDefaults{
		Enabled:   true,
		StartHHMM: cfg.Attendance.DefaultStart,
		EndHHMM:   cfg.Attendance.DefaultEnd,
	}, logger.Named(logr, "schedule"))
	if err := scheduleSvc.Start(ctx); err != nil {
		logr.Fatal("failed to subscribe to attendance schedule", zap.Error(err))
	}
	defer scheduleSvc.Stop()

	rosterSvc := service.NewRosterService(repository.NewStudentRepository(store), validate, metricsSvc, logger.Named(logr, "roster"))
	classSvc := service.NewClassService(repository.NewClassRepository(store), cacheSvc, validate, dept, cfg.Cache.ClassMetaTTL, logger.Named(logr, "classes"))
	attendanceRepo := repository.NewAttendanceRepository(store)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, rosterSvc, classSvc, scheduleSvc, validate, metricsSvc, service.AttendanceConfig{
		Dept:            dept,
		CutoffHour:      cfg.Attendance.CutoffHour,
		DefaultLockHHMM: cfg.Attendance.DefaultLockHHMM,
		LegacyCleanup:   cfg.Attendance.LegacyCleanup,
	}, logger.Named(logr, "attendance"))
	overviewSvc := service.NewOverviewService(repository.NewClassRepository(store), attendanceRepo, rosterSvc, scheduleSvc, dept, logger.Named(logr, "overview"))
	authSvc := service.NewAuthService(logger.Named(logr, "auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
		Dept:              dept,
	})

	cleanupQueue := jobs.NewQueue("legacy-cleanup", attendanceSvc.HandleCleanupJob, jobs.QueueConfig{
		Workers:    cfg.Attendance.CleanupWorkers,
		MaxRetries: cfg.Attendance.CleanupRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logger.Named(logr, "jobs"),
	})
	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()
	attendanceSvc.UseCleanupQueue(cleanupQueue)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	registerRoutes(api, routeHandlers{
		classes:    handler.NewClassHandler(classSvc),
		roster:     handler.NewRosterHandler(rosterSvc, dept),
		attendance: handler.NewAttendanceHandler(attendanceSvc, dept),
		overview:   handler.NewOverviewHandler(overviewSvc),
		schedule:   handler.NewScheduleHandler(scheduleSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "department", dept)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeHandlers struct {
	classes    *handler.ClassHandler
	roster     *handler.RosterHandler
	attendance *handler.AttendanceHandler
	overview   *handler.OverviewHandler
	schedule   *handler.ScheduleHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers) {
	staff := middleware.RequireRoles(models.RoleMentor, models.RoleHOD)
	hod := middleware.RequireRoles(models.RoleHOD)

	classes := api.Group("/classes")
	classes.GET("/resolve", h.classes.Resolve)
	classes.GET("", hod, h.classes.List)
	classes.GET("/mine", staff, h.classes.Mine)
	classes.POST("", hod, h.classes.Create)

	roster := api.Group("/roster", staff)
	roster.GET("", h.roster.Get)
	roster.PUT("", h.roster.Replace)
	roster.POST("/students", h.roster.AddStudent)

	attendance := api.Group("/attendance")
	attendance.GET("", staff, h.attendance.Sheet)
	attendance.GET("/window", staff, h.attendance.Window)
	attendance.PUT("", staff, h.attendance.Save)
	attendance.POST("/marks", staff, h.attendance.ToggleMark)
	attendance.POST("/bulk", staff, h.attendance.BulkMark)
	attendance.PUT("/lock", hod, h.attendance.SetLock)

	api.GET("/hod/overview", hod, h.overview.Get)

	settings := api.Group("/settings")
	settings.GET("/schedule", h.schedule.Get)
	settings.PUT("/schedule", hod, h.schedule.Update)
	settings.POST("/schedule/toggle", hod, h.schedule.Toggle)
}

// openDocStore returns the configured store. The sqlx handle is nil for the
// in-memory driver.
func openDocStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (docstore.Store, *sqlx.DB, error) {
	if cfg.DocStore.Driver == config.DocStoreMemory {
		logr.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store := docstore.NewPostgresStore(db, cfg.DocStore.NotifyChannel, logger.Named(logr, "docstore"))
	if cfg.DocStore.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	go func() {
		if err := store.Listen(ctx, database.DSN(cfg.Database)); err != nil {
			logr.Error("docstore listener stopped", zap.Error(err))
		}
	}()
	return store, db, nil
}
