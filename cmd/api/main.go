package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"photoboard/api/internal/archive"
	"photoboard/api/internal/cache"
	"photoboard/api/internal/catalog"
	"photoboard/api/internal/config"
	"photoboard/api/internal/database"
	"photoboard/api/internal/handlers"
	"photoboard/api/internal/jobs"
	"photoboard/api/internal/log"
	"photoboard/api/internal/repository"
	"photoboard/api/internal/server"
	"photoboard/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	archiveStore, err := archive.NewStore(cfg.Archive)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init archive store")
	}
	if err := archiveStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure archive bucket failed")
	}

	records := repository.NewImageRecordRepository(dbPool)
	catalogClient := catalog.NewClient(cfg.Upstream)
	listCache := cache.NewListCache(redisClient, cfg.Cache.ApprovedTTL)
	sessions := cache.NewSessionStore(redisClient)

	reviews := service.NewReviewService(records, catalogClient, archiveStore, listCache, logger)
	auth := service.NewAuthService(sessions, cfg, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, auth, reviews, dbPool, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(reviews, cfg.Sync.Schedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
