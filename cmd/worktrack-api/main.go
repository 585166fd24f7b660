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

	_ "github.com/fieldworks/worktrack-api/api/swagger"
	"github.com/fieldworks/worktrack-api/internal/capture"
	"github.com/fieldworks/worktrack-api/internal/handler"
	"github.com/fieldworks/worktrack-api/internal/middleware"
	"github.com/fieldworks/worktrack-api/internal/repository"
	"github.com/fieldworks/worktrack-api/internal/service"
	"github.com/fieldworks/worktrack-api/internal/session"
	"github.com/fieldworks/worktrack-api/pkg/cache"
	"github.com/fieldworks/worktrack-api/pkg/config"
	"github.com/fieldworks/worktrack-api/pkg/database"
	"github.com/fieldworks/worktrack-api/pkg/jobs"
	"github.com/fieldworks/worktrack-api/pkg/logger"
	corsmiddleware "github.com/fieldworks/worktrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fieldworks/worktrack-api/pkg/middleware/requestid"
	"github.com/fieldworks/worktrack-api/pkg/storage"
)

// @title WorkTrack API
// @version 1.0.0
// @description Field maintenance data collection backend
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	cacheEnabled := err == nil
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	exportRepo := repository.NewExportRepository(db)

	var cacheService *service.CacheService
	if cacheEnabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Sites.CacheTTL, logr, true)
	} else {
		cacheService = service.NewCacheService(nil, metrics, cfg.Sites.CacheTTL, logr, false)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "worktrack-api",
	})

	sessionStore := session.NewStore(cfg.Sessions.TTL)
	captureManager := capture.NewManager(capture.Config{
		PositionTimeout: cfg.Capture.PositionTimeout,
		JPEGQuality:     cfg.Capture.JPEGQuality,
	}, logr)

	sessionService := service.NewSessionService(sessionStore, recordRepo, userRepo, captureManager, metrics, logr, service.SessionServiceConfig{
		SweepInterval: cfg.Sessions.SweepInterval,
	})
	sessionService.StartSweeper(ctx)

	recordService := service.NewRecordService(recordRepo, logr)
	siteService := service.NewSiteService(siteRepo, cacheService, cfg.Sites.CacheTTL, logr)
	dashboardService := service.NewDashboardService(recordRepo, cacheService, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := service.NewExportService(recordRepo, recordService, exportStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	exportWorker := service.NewExportWorker(exportRepo, exportService, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	exportJobService := service.NewExportJobService(exportRepo, exportQueue, exportService, userRepo, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})
	exportJobService.RecoverPendingJobs(ctx)
	exportJobService.StartCleanup(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(reqidmiddleware.Middleware())
	router.Use(logger.GinMiddleware(logr))
	router.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.WithResponseMeta())
	router.Use(middleware.Metrics(metrics))

	readyChecks := []handler.ReadyCheck{
		{Name: "postgres", Probe: db.PingContext},
	}
	if cacheEnabled {
		readyChecks = append(readyChecks, handler.ReadyCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	handler.RegisterRoutes(router, cfg.APIPrefix, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Session:     handler.NewSessionHandler(sessionService),
		Record:      handler.NewRecordHandler(recordService),
		Export:      handler.NewExportHandler(exportJobService),
		Site:        handler.NewSiteHandler(siteService),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Metrics:     handler.NewMetricsHandler(metrics, readyChecks...),
		AuthService: authService,
		AuditRepo:   userRepo,
	})

	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
