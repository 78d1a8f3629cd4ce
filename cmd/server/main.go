package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campus/lms/internal/config"
	"campus/lms/internal/crypto"
	"campus/lms/internal/db"
	internalhttp "campus/lms/internal/http"
	"campus/lms/internal/model"
	"campus/lms/internal/repository"
	"campus/lms/internal/storage"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	if err := provisionRoot(ctx, store, cfg, logger); err != nil {
		logger.Fatal("root provisioning failed", zap.Error(err))
	}

	var presigner storage.Presigner
	if cfg.S3AccessKeyID != "" {
		presigner, err = storage.NewS3Presigner(storage.Config{
			Endpoint:    cfg.S3Endpoint,
			Region:      cfg.S3Region,
			Bucket:      cfg.S3Bucket,
			AccessKeyID: cfg.S3AccessKeyID,
			SecretKey:   cfg.S3SecretKey,
		})
		if err != nil {
			logger.Fatal("object storage setup failed", zap.Error(err))
		}
	} else {
		logger.Warn("object storage not configured; attachment endpoints will fail")
	}

	server := internalhttp.NewServer(cfg, store, presigner, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// provisionRoot seeds the single root principal at first boot. Idempotent:
// once any root exists nothing happens, so the default password seed is
// only ever consulted on an empty database.
func provisionRoot(ctx context.Context, store *repository.Store, cfg config.Config, logger *zap.Logger) error {
	exists, err := store.HasRoot(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if cfg.RootPassword == "" {
		logger.Warn("no root account and DEFAULT_ROOT_PASSWORD not set; skipping provisioning")
		return nil
	}

	hash, err := crypto.HashPassword(cfg.RootPassword)
	if err != nil {
		return err
	}
	root, err := store.CreateUser(ctx, model.User{
		FullName:     "Root",
		Email:        cfg.RootEmail,
		PasswordHash: hash,
		Role:         model.RoleRoot,
		Status:       model.StatusActive,
	})
	if err != nil {
		return err
	}
	logger.Info("provisioned root account", zap.Int64("id", root.ID), zap.String("email", root.Email))
	return nil
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_DEV") == "1" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
