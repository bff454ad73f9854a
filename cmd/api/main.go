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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/solea-tours/experience-api/api/swagger"
	"github.com/solea-tours/experience-api/internal/handler"
	"github.com/solea-tours/experience-api/internal/middleware"
	"github.com/solea-tours/experience-api/internal/repository"
	"github.com/solea-tours/experience-api/internal/service"
	"github.com/solea-tours/experience-api/pkg/cache"
	"github.com/solea-tours/experience-api/pkg/config"
	"github.com/solea-tours/experience-api/pkg/database"
	"github.com/solea-tours/experience-api/pkg/logger"
	corsmiddleware "github.com/solea-tours/experience-api/pkg/middleware/cors"
	reqidmiddleware "github.com/solea-tours/experience-api/pkg/middleware/requestid"
)

// @title Experience Availability API
// @version 1.0.0
// @description Availability resolution and booking engine for experience products
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

	location, err := time.LoadLocation(cfg.Availability.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid availability timezone", "timezone", cfg.Availability.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is an accelerator, not a dependency; start without it if it is down.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()

	scheduleRepo := repository.NewScheduleRepository(db)
	overrideRepo := repository.NewOverrideRepository(db, logr)
	bookingRepo := repository.NewBookingRepository(db)
	experienceRepo := repository.NewExperienceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled && redisClient != nil)
	availabilitySvc := service.NewAvailabilityService(scheduleRepo, overrideRepo, bookingRepo, experienceRepo, cacheSvc, metricsSvc, location, cfg.Availability.DefaultCutoffMinutes, logr)
	bookingSvc := service.NewBookingService(bookingRepo, availabilitySvc, cacheSvc, metricsSvc, location, cfg.Bookings.PendingTTL, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, validate, logr)
	overrideSvc := service.NewOverrideService(overrideRepo, experienceRepo, cacheSvc, location, validate, logr)
	archiveSvc := service.NewArchiveService(availabilitySvc, location, cfg.Availability.MaxRangeDays, logr)
	exportSvc := service.NewExportService(bookingRepo, logr, cfg.Exports.Enabled)

	maintenance := service.NewMaintenanceService(bookingSvc, scheduleRepo, availabilitySvc, service.MaintenanceConfig{
		SweepInterval:    cfg.Bookings.SweepInterval,
		SweepWorkers:     cfg.Bookings.SweepWorkers,
		PrebuildDays:     cfg.Availability.PrebuildDays,
		PrebuildInterval: cfg.Availability.PrebuildInterval,
	}, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Availability: handler.NewAvailabilityHandler(availabilitySvc, archiveSvc, location),
		Bookings:     handler.NewBookingHandler(bookingSvc, location),
		Schedules:    handler.NewScheduleHandler(scheduleSvc),
		Overrides:    handler.NewOverrideHandler(overrideSvc, location, cfg.Availability.DefaultCutoffMinutes),
		Products:     handler.NewProductHandler(scheduleSvc, overrideSvc),
		Exports:      handler.NewExportHandler(exportSvc, location),
		Status:       handler.NewStatusHandler(db, redisClient, metricsSvc),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maintenance.Start(ctx)
	defer maintenance.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
