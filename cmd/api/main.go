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
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ladder-inspection-api/api/swagger"
	"github.com/noah-isme/ladder-inspection-api/internal/handler"
	"github.com/noah-isme/ladder-inspection-api/internal/repository"
	"github.com/noah-isme/ladder-inspection-api/internal/service"
	"github.com/noah-isme/ladder-inspection-api/pkg/cache"
	"github.com/noah-isme/ladder-inspection-api/pkg/config"
	"github.com/noah-isme/ladder-inspection-api/pkg/database"
	"github.com/noah-isme/ladder-inspection-api/pkg/directory"
	"github.com/noah-isme/ladder-inspection-api/pkg/export"
	"github.com/noah-isme/ladder-inspection-api/pkg/jobs"
	"github.com/noah-isme/ladder-inspection-api/pkg/logger"
	"github.com/noah-isme/ladder-inspection-api/pkg/storage"
)

// @title Ladder Inspection API
// @version 1.0.0
// @description Ladder register and inspection protocols with directory sign-in
// @BasePath /api/v1
// @schemes http https
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	cacheEnabled := false
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheEnabled = true
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cacheEnabled)

	validate := validator.New()

	ladderRepo := repository.NewLadderRepository(db)
	inspectionRepo := repository.NewInspectionRepository(db)
	userRepo := repository.NewUserRepository(db)

	eventHandler := service.NewInspectionEventHandler(cacheSvc, logr)
	events := jobs.New[service.InspectionEvent]("inspection-events", eventHandler.Handle, jobs.Options{
		Workers:    2,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	events.Start(ctx)
	defer events.Stop()

	userSvc := service.NewUserService(userRepo, logr)
	authSvc := service.NewAuthService(
		directory.NewClient(cfg.LDAP, logr),
		userSvc,
		userRepo,
		metricsSvc,
		validate,
		logr,
		service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		},
	)
	ladderSvc := service.NewLadderService(ladderRepo, userRepo, cacheSvc, metricsSvc, validate, logr)
	inspectionSvc := service.NewInspectionService(
		inspectionRepo,
		ladderRepo,
		userRepo,
		userRepo,
		events,
		cacheSvc,
		metricsSvc,
		validate,
		logr,
		service.InspectionConfig{AutoCalculateResult: cfg.Inspections.AutoCalculateResult},
	)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Ladders:     ladderRepo,
		Inspections: inspectionRepo,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:      cfg.Dashboard.CacheTTL,
			DueWindowDays: cfg.Dashboard.DueWindowDays,
			RecentDays:    cfg.Dashboard.RecentDays,
		},
	})
	exportSvc := service.NewExportService(
		ladderRepo,
		inspectionSvc,
		export.NewCSVExporter(),
		export.NewXLSXExporter(),
		export.NewPDFExporter(),
		logr,
		service.ExportConfig{MaxRows: cfg.Exports.MaxRows},
	)

	photoStore, err := storage.NewPhotoStore(cfg.Photos.StorageDir, cfg.Photos.MaxFileSizeBytes, cfg.Photos.AllowedMIMEs)
	if err != nil {
		logr.Fatal("failed to prepare photo storage", zap.Error(err))
	}
	photoSvc := service.NewPhotoService(
		photoStore,
		storage.NewPhotoTokenSigner(cfg.Photos.SignedURLSecret, cfg.Photos.SignedURLTTL),
		inspectionSvc,
		metricsSvc,
		logr,
		cfg.APIPrefix+"/photos/download",
	)

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := routes{
		apiPrefix:       cfg.APIPrefix,
		allowedOrigins:  cfg.CORS.AllowedOrigins,
		enableDocs:      cfg.Env != config.EnvProduction,
		adminGroups:     cfg.Inspections.AdminGroups,
		inspectorGroups: cfg.Inspections.InspectorGroups,

		logger:  logr,
		auth:    authSvc,
		observe: metricsSvc,
		audit:   userRepo,

		authHandler:       handler.NewAuthHandler(authSvc),
		userHandler:       handler.NewUserHandler(userSvc),
		ladderHandler:     handler.NewLadderHandler(ladderSvc),
		inspectionHandler: handler.NewInspectionHandler(inspectionSvc),
		exportHandler:     handler.NewExportHandler(exportSvc, cfg.Exports.Enabled),
		photoHandler:      handler.NewPhotoHandler(photoSvc),
		dashboardHandler:  handler.NewDashboardHandler(dashboardSvc, cfg.Dashboard.Enabled),
		metricsHandler:    handler.NewMetricsHandler(metricsSvc.Handler(), checks, logr),
	}.build()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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
