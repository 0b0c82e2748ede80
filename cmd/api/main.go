package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/biehatieha/timetable-api/api/swagger"
	"github.com/biehatieha/timetable-api/internal/engine"
	"github.com/biehatieha/timetable-api/internal/handler"
	"github.com/biehatieha/timetable-api/internal/middleware"
	"github.com/biehatieha/timetable-api/internal/repository"
	"github.com/biehatieha/timetable-api/internal/service"
	"github.com/biehatieha/timetable-api/pkg/cache"
	"github.com/biehatieha/timetable-api/pkg/config"
	"github.com/biehatieha/timetable-api/pkg/database"
	"github.com/biehatieha/timetable-api/pkg/export"
	"github.com/biehatieha/timetable-api/pkg/logger"
	corsmiddleware "github.com/biehatieha/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/biehatieha/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Student weekly timetable generation service
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

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	timetableRepo := repository.NewGeneratedTimetableRepository(db)
	changeRequestRepo := repository.NewChangeRequestRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	generator := engine.New(engine.Config{
		SearchTimeout:   cfg.Engine.SearchTimeout,
		MaxSearchNodes:  cfg.Engine.MaxSearchNodes,
		MaxCombinations: cfg.Engine.MaxCombinations,
	})

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "timetable-api",
	})
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	lecturerSvc := service.NewLecturerService(lecturerRepo, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, subjectRepo, lecturerRepo, db, validate, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, validate, logr)
	preferenceSvc := service.NewPreferenceService(subjectRepo, lecturerRepo, catalogRepo, preferenceRepo, validate, logr)
	timetableSvc := service.NewTimetableService(
		preferenceSvc,
		sectionRepo,
		timetableRepo,
		db,
		cacheRepo,
		generator,
		metricsSvc,
		logr,
		service.TimetableCacheConfig{Enabled: cfg.Cache.Enabled, TTL: cfg.Cache.TimetableTTL},
	)
	exportSvc := service.NewExportService(timetableSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	changeRequestSvc := service.NewChangeRequestService(changeRequestRepo, timetableRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	lecturerHandler := handler.NewLecturerHandler(lecturerSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	preferenceHandler := handler.NewPreferenceHandler(preferenceSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	changeRequestHandler := handler.NewChangeRequestHandler(changeRequestSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/subjects", subjectHandler.List)
	api.GET("/subjects/:id", subjectHandler.Get)
	api.GET("/subjects/:id/sections", sectionHandler.ListBySubject)
	api.GET("/lecturers", lecturerHandler.List)
	api.GET("/lecturers/:id", lecturerHandler.Get)
	api.GET("/days", catalogHandler.Days)
	api.GET("/times", catalogHandler.TimeSlots)

	auth := api.Group("", middleware.JWT(authSvc))

	auth.GET("/auth/me", authHandler.Me)

	auth.POST("/subjects", subjectHandler.Create)
	auth.PUT("/subjects/:id", subjectHandler.Update)
	auth.DELETE("/subjects/:id", subjectHandler.Delete)

	auth.POST("/lecturers", lecturerHandler.Create)
	auth.PUT("/lecturers/:id", lecturerHandler.Update)
	auth.DELETE("/lecturers/:id", lecturerHandler.Delete)

	auth.POST("/sections", sectionHandler.Create)
	auth.PUT("/sections/:id", sectionHandler.Update)
	auth.DELETE("/sections/:id", sectionHandler.Delete)
	auth.POST("/sections/import", sectionHandler.Import)
	auth.GET("/sections/tie-report", sectionHandler.TieReport)

	auth.GET("/settings", catalogHandler.Settings)
	auth.PUT("/settings", catalogHandler.UpdateSetting)

	auth.GET("/preferences/options", preferenceHandler.Options)
	auth.GET("/preferences", preferenceHandler.Get)
	auth.PUT("/preferences", preferenceHandler.Store)

	auth.POST("/timetables/generate", timetableHandler.Generate)
	auth.GET("/timetables/my", timetableHandler.Active)
	auth.GET("/timetables", timetableHandler.History)
	auth.GET("/timetables/export/csv", timetableHandler.ExportCSV)
	auth.GET("/timetables/export/pdf", timetableHandler.ExportPDF)

	auth.POST("/change-requests", changeRequestHandler.Create)
	auth.GET("/change-requests", changeRequestHandler.List)
	auth.GET("/change-requests/my", changeRequestHandler.Mine)
	auth.GET("/change-requests/:id", changeRequestHandler.Get)
	auth.PUT("/change-requests/:id", changeRequestHandler.Resolve)
	auth.DELETE("/change-requests/:id", changeRequestHandler.Delete)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		return
	}
	logr.Sugar().Infow("server stopped")
}
