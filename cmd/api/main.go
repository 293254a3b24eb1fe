// Package main runs the club events HTTP API with graceful shutdown.
//
// @title University Club Events API
// @version 1.0
// @description Event management and registration for university clubs.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubevents/config"
	_ "clubevents/docs"
	"clubevents/internal/adapters/auth"
	"clubevents/internal/adapters/queue"
	"clubevents/internal/adapters/tabular"
	deliveryhttp "clubevents/internal/delivery/http"
	"clubevents/internal/delivery/http/controllers"
	"clubevents/internal/delivery/http/middleware"
	"clubevents/internal/metrics"
	"clubevents/internal/repository/postgres"
	"clubevents/internal/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	logger := config.NewLogger("api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		logger.Error("database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("migrate", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping", "addr", cfg.Redis.Addr, "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	m := metrics.New()

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	// Adapters
	tokens := auth.NewTokenProvider(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer)
	revoker := auth.NewRedisRevoker(rdb)
	changes := queue.NewQueue(rdb, cfg.Worker.MaxAttempts, logger)
	exporter := tabular.NewS3Exporter(tabular.Config{
		Bucket:          cfg.Export.Bucket,
		Region:          cfg.Export.AWSRegion,
		AccessKeyID:     cfg.Export.AWSAccessKeyID,
		SecretAccessKey: cfg.Export.AWSSecretAccessKey,
		URLExpiry:       cfg.Export.URLExpiry,
	}, logger)

	// Services
	profileService := services.NewProfileService(profileRepo, cfg.ContextTimeout)
	eventService := services.NewEventService(eventRepo, cfg.ContextTimeout)
	registrationService := services.NewRegistrationService(eventRepo, registrationRepo, changes, m, logger, cfg.ContextTimeout)
	exportService := services.NewExportService(eventRepo, registrationRepo, exporter, m, logger, cfg.ContextTimeout)

	authn := middleware.NewAuthenticator(tokens, revoker, profileService, logger)
	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:         controllers.NewAuthController(logger, profileService, revoker),
		User:         controllers.NewUserController(logger, profileService),
		Event:        controllers.NewEventController(logger, eventService),
		Registration: controllers.NewRegistrationController(logger, registrationService),
		Export:       controllers.NewExportController(logger, exportService),
	}, authn, m.Handler())

	handler := middleware.CORS(cfg.CORSOrigins, mux)
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	logger.Info("server stopped")
}
