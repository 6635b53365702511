package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xueshanchen/picbed/config"
	"github.com/xueshanchen/picbed/internal/controller/restapi"
	cleanupworker "github.com/xueshanchen/picbed/internal/controller/worker/cleanup"
	"github.com/xueshanchen/picbed/internal/infrastructure/processor"
	"github.com/xueshanchen/picbed/internal/infrastructure/token"
	"github.com/xueshanchen/picbed/internal/repo"
	"github.com/xueshanchen/picbed/internal/repo/persistent"
	"github.com/xueshanchen/picbed/internal/usecase/auth"
	"github.com/xueshanchen/picbed/internal/usecase/cleanup"
	"github.com/xueshanchen/picbed/internal/usecase/image"
	"github.com/xueshanchen/picbed/pkg/httpserver"
	"github.com/xueshanchen/picbed/pkg/logger"
	"github.com/xueshanchen/picbed/pkg/postgres"
	"github.com/xueshanchen/picbed/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Migrations
	if err := runMigrations(cfg.PG.URL); err != nil {
		l.Fatal(fmt.Errorf("app - Run - runMigrations: %w", err))
	}

	// Postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// Blob store: S3 when credentials are present, local filesystem
	// otherwise. Fixed for the lifetime of the process.
	var blobStore repo.BlobStore
	if cfg.UseS3() {
		s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
		defer s3Cancel()

		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
		}

		blobStore = persistent.NewS3BlobStore(s3c, cfg.S3.Bucket, cfg.S3.PresignExpiry)
		l.Info("blob store: s3, bucket %s", cfg.S3.Bucket)
	} else {
		local, err := persistent.NewLocalBlobStore(cfg.Storage.LocalPath)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - persistent.NewLocalBlobStore: %w", err))
		}

		blobStore = local
		l.Info("blob store: local, root %s", cfg.Storage.LocalPath)
	}

	// Repositories
	metadataRepo := persistent.NewImageMetadataRepo(pg)
	userRepo := persistent.NewUserRepo(pg)
	cleanupRepo := persistent.NewCleanupRepo(pg)

	// Use-Cases
	imageUseCase := image.New(
		blobStore,
		metadataRepo,
		cleanupRepo,
		pg,
		processor.New(cfg.Upload.ThumbnailMaxSize),
		image.Limits{
			MaxFileSize:       cfg.Upload.MaxFileSize,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
			AdminUsername:     cfg.Auth.AdminUsername,
			UserQuota:         cfg.Upload.UserQuota,
		},
		l,
	)

	authUseCase := auth.New(
		userRepo,
		token.New(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL),
		imageUseCase,
		auth.Options{
			PasswordSecret: cfg.Auth.PasswordSecret,
			AdminUsername:  cfg.Auth.AdminUsername,
			AdminPassword:  cfg.Auth.AdminPassword,
			AdminEmail:     cfg.Auth.AdminEmail,
			CascadeDelete:  cfg.Users.CascadeDelete,
		},
		l,
	)

	cleanupUseCase := cleanup.New(cleanupRepo, blobStore, l)

	// Admin account
	if err := authUseCase.EnsureAdmin(ctx); err != nil {
		l.Fatal(fmt.Errorf("app - Run - authUseCase.EnsureAdmin: %w", err))
	}

	// Cleanup Reconciler Worker
	reconciler := cleanupworker.New(
		cleanupUseCase,
		l,
		cfg.Cleanup.PollInterval,
		cfg.Cleanup.PurgeInterval,
		cfg.Cleanup.ProcessTimeout,
		cfg.Cleanup.BatchSize,
		cfg.Cleanup.MaxRetries,
	)

	// HTTP Server
	// body limit leaves headroom for the multipart envelope
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(int(cfg.Upload.MaxFileSize)+1024*1024),
	)
	restapi.NewRouter(httpServer.App, cfg, imageUseCase, authUseCase, l)

	// Start Components
	err = reconciler.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - reconciler.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	rcShutdownCtx, rcShutdownCancel := context.WithTimeout(ctx, cfg.Cleanup.ShutdownTimeout)
	defer rcShutdownCancel()
	err = reconciler.Shutdown(rcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - reconciler.Shutdown: %w", err))
	}
}
