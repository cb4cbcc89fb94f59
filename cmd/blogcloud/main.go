package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"blogcloud/internal/config"
	httpapi "blogcloud/internal/http"
	"blogcloud/internal/logger"
	"blogcloud/internal/repository"
	"blogcloud/internal/service"
	"blogcloud/internal/store"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "blogcloud")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	if err := cfg.AI.Validate(); err != nil {
		zlog.Fatal("Invalid AI config", zap.Error(err))
	}

	db, err := repository.NewPostgresDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zlog.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	kv := store.NewRedisKV(redisClient)

	// repositories
	tagsRepo := repository.NewPostgresTagsRepository(db)
	settingsRepo := repository.NewPostgresSettingsRepository(db)
	postsRepo := repository.NewPostgresPostsRepository(db)
	commentsRepo := repository.NewPostgresCommentsRepository(db)
	musicRepo := repository.NewPostgresMusicRepository(db)

	// services
	scheduleSvc := service.NewScheduleService(settingsRepo, cfg.Schedule, zlog)
	aiClient := service.NewAIClient(cfg.AI, zlog)
	tagCloudSvc := service.NewTagCloudService(tagsRepo, aiClient, scheduleSvc, kv, zlog)
	tagSvc := service.NewTagService(tagsRepo, kv, zlog)
	scheduler := service.NewSchedulerLoop(tagCloudSvc, scheduleSvc, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduleSvc.Seed(ctx); err != nil {
		zlog.Fatal("Failed to seed schedule config", zap.Error(err))
	}
	scheduler.Start(ctx)

	// handlers + routes
	router := httpapi.NewRouter(cfg.AdminToken, zlog)
	router.RegisterHealthRoutes()
	router.RegisterTagRoutes(
		httpapi.NewTagsHandler(tagSvc, zlog),
		httpapi.NewFetchHandler(tagCloudSvc, scheduleSvc, scheduler, zlog),
	)
	router.RegisterBlogRoutes(httpapi.NewPostsHandler(postsRepo, commentsRepo, zlog))
	router.RegisterMusicRoutes(httpapi.NewMusicHandler(musicRepo, zlog))
	router.RegisterSettingsRoutes(httpapi.NewSettingsHandler(settingsRepo, zlog))

	srv := service.NewServer(cfg.HTTP.Addr, router, zlog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info("Shutdown signal received")
	case err := <-errCh:
		zlog.Error("HTTP server exited", zap.Error(err))
	}

	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
