package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamejournal/internal/cache"
	"gamejournal/internal/clients/rawg"
	"gamejournal/internal/config"
	"gamejournal/internal/routes"
	"gamejournal/internal/storage/mariadb"
	"gamejournal/internal/storage/uploads"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting server", slog.String("env", cfg.Env))

	storage, err := mariadb.New(cfg.Database)
	if err != nil {
		log.Error("failed to create database", slog.String("error", err.Error()))
		panic("db-err")
	}

	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := storage.Migrate(); err != nil {
		log.Error("migration", slog.String("error", err.Error()))
		panic("table-err")
	}

	log.Info("database init")

	uploadsStorage, err := uploads.NewUploads(cfg.UploadsPath)
	if err != nil {
		log.Error("failed to create uploads storage", slog.String("error", err.Error()))
		panic("uploads-err")
	}

	discoverCache, err := cache.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.String("error", err.Error()))
		panic("redis-err")
	}
	if discoverCache == nil {
		log.Info("redis not configured, discovery cache disabled")
	}
	defer func() {
		if err := discoverCache.Close(); err != nil {
			log.Error("failed to close redis", slog.String("error", err.Error()))
		}
	}()

	metadataClient := rawg.New(log, cfg.Rawg.BaseURL, cfg.Rawg.APIKey, cfg.Rawg.Timeout)

	r := routes.SetupRouter(routes.Deps{
		Log:      log,
		Storage:  storage,
		Uploads:  uploadsStorage,
		Cache:    discoverCache,
		Metadata: metadataClient,
		Cors:     cfg.Cors,
	}, cfg.AuthSecret)

	log.Info("routes init")

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", slog.String("address", cfg.Address))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown error", slog.String("error", err.Error()))
			if err := server.Close(); err != nil {
				log.Error("force shutdown error", slog.String("error", err.Error()))
			}
		}
	}
	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
