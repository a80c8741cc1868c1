package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/capsulekeep/capsule-server/internal/api"
	"github.com/capsulekeep/capsule-server/internal/auth"
	"github.com/capsulekeep/capsule-server/internal/config"
	"github.com/capsulekeep/capsule-server/internal/repository"
	memoryrepo "github.com/capsulekeep/capsule-server/internal/repository/memory"
	"github.com/capsulekeep/capsule-server/internal/repository/psql"
	"github.com/capsulekeep/capsule-server/internal/service"
	"github.com/capsulekeep/capsule-server/internal/storage"
	fsstorage "github.com/capsulekeep/capsule-server/internal/storage/fs"
	"github.com/capsulekeep/capsule-server/internal/storage/ipfs"
	memorystorage "github.com/capsulekeep/capsule-server/internal/storage/memory"
	s3storage "github.com/capsulekeep/capsule-server/internal/storage/s3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Repositories
	var (
		userRepo     repository.UserRepository
		metadataRepo repository.MetadataRepository
		pool         *pgxpool.Pool
	)
	switch cfg.Repository {
	case "memory":
		userRepo = memoryrepo.NewUserRepository()
		metadataRepo = memoryrepo.NewMetadataRepository()
	case "postgres":
		pool, err = newDbPool(ctx, cfg.DB)
		if err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		userRepo = psql.NewUserRepositoryWithPool(pool)
		metadataRepo = psql.NewMetadataRepositoryWithPool(pool)
	default:
		slog.Error("Unknown repository kind", "repository", cfg.Repository)
		os.Exit(1)
	}

	// Storage backend
	store, err := newStorageBackend(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage backend", "backend", cfg.Storage.Backend, "err", err)
		os.Exit(1)
	}

	// Services
	tokens := auth.NewTokenIssuer(cfg.Auth.Secret, time.Duration(cfg.Auth.TTLHours)*time.Hour)
	userService := service.NewUserService(userRepo, tokens)
	contentService := service.NewContentService(metadataRepo, userRepo, store)

	// Handlers
	userHandler := api.NewUserHandler(userService, tokens)
	contentHandler := api.NewContentHandler(contentService, tokens)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/users", userHandler.Routes())
		r.Mount("/content", contentHandler.Routes())
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port,
			"repository", cfg.Repository, "storage", cfg.Storage.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func newDbPool(ctx context.Context, dbConfig config.DbConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbConfig.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func newStorageBackend(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "ipfs":
		return ipfs.NewMFSBackend(ipfs.Config{
			APIBaseURL: cfg.IPFSAPIBaseURL,
			BasePath:   cfg.IPFSBasePath,
		})
	case "fs":
		return fsstorage.NewFSBackend(fsstorage.Config{
			BaseDir: cfg.FSBaseDir,
		})
	case "s3":
		return s3storage.NewS3Backend(s3storage.Config{
			Region:                 cfg.S3.Region,
			Bucket:                 cfg.S3.BucketName,
			AccessKeyID:            cfg.S3.AccessKeyID,
			SecretAccessKey:        cfg.S3.SecretAccessKey,
			Endpoint:               cfg.S3.Endpoint,
			UsePathStyle:           cfg.S3.UsePathStyle,
			CreateBucketIfNotExist: cfg.S3.CreateBucket,
		})
	case "memory":
		return memorystorage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
