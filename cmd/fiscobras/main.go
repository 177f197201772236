package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/fiscobras/internal/config"
	"github.com/vbonduro/fiscobras/internal/db"
	"github.com/vbonduro/fiscobras/internal/logging"
	"github.com/vbonduro/fiscobras/internal/metrics"
	"github.com/vbonduro/fiscobras/internal/notify"
	"github.com/vbonduro/fiscobras/internal/photostore"
	"github.com/vbonduro/fiscobras/internal/photostore/local"
	"github.com/vbonduro/fiscobras/internal/photostore/s3"
	"github.com/vbonduro/fiscobras/internal/service"
	"github.com/vbonduro/fiscobras/internal/stats"
	"github.com/vbonduro/fiscobras/internal/store"
	"github.com/vbonduro/fiscobras/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	m := metrics.New()
	offloader := photostore.NewOffloader(photoStg, logger)
	projectStore := store.NewProjectStore(database)
	inspectionStore := store.NewInspectionStore(database)

	projects := service.NewProjectService(projectStore, inspectionStore, offloader, logger, m)
	inspections := service.NewInspectionService(projectStore, inspectionStore, offloader, logger, m)
	dispatcher := notify.NewDispatcher(projects, inspections, newMailer(cfg, logger), logger, m)

	server := web.NewServer(web.Deps{
		Projects:    projects,
		Inspections: inspections,
		Stats:       stats.NewEngine(store.NewStatsStore(database)),
		Dispatcher:  dispatcher,
		Photos:      offloader,
		Metrics:     m,
		Logger:      logger,
		Environment: cfg.Environment,
	})

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newPhotoStore returns nil for the "none" backend, which keeps photos
// inline in the records.
func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case config.PhotoBackendLocal:
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		return local.NewLocalPhotoStore(cfg.PhotoPath)
	case config.PhotoBackendS3:
		logger.Info("using s3 photo store", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
		return s3.New(ctx, s3.Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
		})
	case config.PhotoBackendNone:
		logger.Info("photo offload disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown PHOTO_BACKEND %q (want %s, %s or %s)",
			cfg.PhotoBackend, config.PhotoBackendNone, config.PhotoBackendLocal, config.PhotoBackendS3)
	}
}

func newMailer(cfg *config.Config, logger *slog.Logger) notify.Mailer {
	if cfg.Email.Host == "" {
		logger.Warn("EMAIL_HOST not set, emails will only be logged")
		return notify.NewLogMailer(logger)
	}
	logger.Info("using smtp mailer", "host", cfg.Email.Host, "port", cfg.Email.Port)
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Secure:   cfg.Email.Secure,
		Username: cfg.Email.User,
		Password: cfg.Email.Password,
		FromName: cfg.Email.FromName,
		From:     cfg.Email.From,
	})
}
