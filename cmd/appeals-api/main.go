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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/appeal-desk-api/api/swagger"
	"github.com/noah-isme/appeal-desk-api/internal/handler"
	internalmiddleware "github.com/noah-isme/appeal-desk-api/internal/middleware"
	"github.com/noah-isme/appeal-desk-api/internal/repository"
	"github.com/noah-isme/appeal-desk-api/internal/service"
	"github.com/noah-isme/appeal-desk-api/pkg/cache"
	"github.com/noah-isme/appeal-desk-api/pkg/clock"
	"github.com/noah-isme/appeal-desk-api/pkg/config"
	"github.com/noah-isme/appeal-desk-api/pkg/database"
	"github.com/noah-isme/appeal-desk-api/pkg/jobs"
	"github.com/noah-isme/appeal-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/appeal-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/appeal-desk-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, db.DB, logr); err != nil {
			return err
		}
	}

	// Redis only coordinates the daily scan between replicas. Without it every replica scans.
	var redisClient *redis.Client
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, reminder lock disabled", zap.Error(err))
	} else {
		redisClient = client
	}

	calendar, err := clock.NewCalendar(clock.System{}, cfg.Appeals.Timezone)
	if err != nil {
		return err
	}

	appealRepo := repository.NewAppealRepository(db)
	submitterRepo := repository.NewSubmitterRepository(db)
	districtRepo := repository.NewDistrictRepository(db)
	lockRepo := repository.NewLockRepository(redisClient, logr)
	defer lockRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	appealSvc := service.NewAppealService(appealRepo, submitterRepo, calendar, validate, metricsSvc, logr,
		service.AppealServiceConfig{GracePeriodDays: cfg.Appeals.GracePeriodDays})
	approvalSvc := service.NewApprovalService(appealRepo, submitterRepo, calendar, validate, metricsSvc, logr)
	reminderSvc := service.NewReminderService(appealSvc, appealRepo, calendar, cfg.Appeals.ReminderWindowDays, metricsSvc, logr)

	var notifier service.Notifier = service.NewLogNotifier(logr)
	if cfg.Notifications.WebhookURL != "" {
		notifier = service.NewWebhookNotifier(cfg.Notifications.WebhookURL, cfg.Notifications.Timeout)
	}
	notificationSvc := service.NewNotificationService(submitterRepo, districtRepo, notifier, metricsSvc, logr)
	notificationQueue := jobs.NewQueue("notifications", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()
	notificationSvc.UseQueue(notificationQueue)

	scheduler, err := service.NewReminderScheduler(reminderSvc, notificationSvc, lockRepo, calendar, service.ReminderSchedulerConfig{
		RunAt:   cfg.Reminders.RunAt,
		LockTTL: cfg.Reminders.LockTTL,
	}, logr)
	if err != nil {
		return err
	}
	if cfg.Reminders.Enabled {
		go scheduler.Run(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	appealHandler := handler.NewAppealHandler(appealSvc, notificationSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc, notificationSvc)
	reminderHandler := handler.NewReminderHandler(scheduler)

	api := r.Group(cfg.APIPrefix)
	api.POST("/appeals", appealHandler.Create)
	api.GET("/appeals", appealHandler.List)
	api.GET("/appeals/:id", appealHandler.Get)
	api.GET("/appeals/:id/logs", appealHandler.History)
	api.POST("/appeals/:id/forward", appealHandler.Forward)
	api.POST("/appeals/:id/extend", appealHandler.Extend)
	api.POST("/appeals/:id/close", appealHandler.Close)
	api.POST("/answers/:id/approve", appealHandler.ApproveAnswer)
	api.POST("/answers/:id/reject", appealHandler.RejectAnswer)
	api.POST("/approval-requests", approvalHandler.Request)
	api.GET("/approval-requests", approvalHandler.ListPending)
	api.POST("/approval-requests/:id/approve", approvalHandler.Approve)
	api.POST("/approval-requests/:id/reject", approvalHandler.Reject)
	api.POST("/reminders/scan", reminderHandler.Scan)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
