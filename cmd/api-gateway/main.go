package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sekolah-ops-api/api/swagger"
	"github.com/noah-isme/sekolah-ops-api/internal/handler"
	"github.com/noah-isme/sekolah-ops-api/internal/middleware"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/pkg/cache"
	"github.com/noah-isme/sekolah-ops-api/pkg/config"
	"github.com/noah-isme/sekolah-ops-api/pkg/database"
	"github.com/noah-isme/sekolah-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sekolah-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sekolah-ops-api/pkg/middleware/requestid"
)

// @title Sekolah Ops API
// @version 1.0.0
// @description School operations backend: teacher attendance resolution, leave management and dashboards
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled && redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sekolah-ops-api",
	})
	resolver := service.NewResolver(leaveRepo, attendanceRepo, logr)
	aggregator := service.NewAggregator(scheduleRepo, attendanceRepo, leaveRepo, directoryRepo, logr, service.AggregatorConfig{
		NoTeacherAlertAfter: cfg.Attendance.NoTeacherAlertAfter,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Aggregator: aggregator,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Logger:     logr,
		Config:     service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, scheduleRepo, cacheSvc, nil, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, scheduleRepo, cacheSvc, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, resolver, scheduleRepo)
	leaveHandler := handler.NewLeaveHandler(leaveSvc, scheduleRepo)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := []models.UserRole{models.RoleAdmin, models.RoleCurriculum}

	schedules := api.Group("/schedules", middleware.JWT(authSvc))
	{
		schedules.GET("", scheduleHandler.List)
		schedules.GET("/:id", scheduleHandler.Get)
		schedules.POST("", middleware.RequireRoles(staff...), scheduleHandler.Create)
		schedules.PUT("/:id", middleware.RequireRoles(staff...), scheduleHandler.Update)
		schedules.DELETE("/:id", middleware.RequireRoles(staff...), scheduleHandler.Delete)
	}

	attendance := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attendance.POST("/reports", attendanceHandler.Submit)
		attendance.POST("/confirmations", middleware.RequireRoles(staff...), attendanceHandler.Confirm)
		attendance.POST("/substitutes", middleware.RequireRoles(staff...), attendanceHandler.AssignSubstitute)
		attendance.GET("/history", attendanceHandler.History)
		attendance.GET("/occurrences/:slotId", attendanceHandler.Resolve)
	}

	leaves := api.Group("/leaves", middleware.JWT(authSvc))
	{
		leaves.POST("", leaveHandler.Create)
		leaves.GET("", leaveHandler.List)
		leaves.POST("/:id/decision", middleware.RequireRoles(staff...), leaveHandler.Decide)
		leaves.GET("/substitutes/:slotId", middleware.RequireRoles(staff...), leaveHandler.AvailableSubstitutes)
	}

	dashboards := api.Group("/dashboard", middleware.JWT(authSvc))
	{
		dashboards.GET("/curriculum", middleware.RequireRoles(staff...), dashboardHandler.Curriculum)
		dashboards.GET("/principal", middleware.RequireRoles(models.RolePrincipal, models.RoleAdmin), dashboardHandler.Principal)
		dashboards.GET("/system", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
