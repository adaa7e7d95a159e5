package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JoeyNPP/Furniture-Site/internal/config"
	"github.com/JoeyNPP/Furniture-Site/internal/core"
	"github.com/JoeyNPP/Furniture-Site/internal/logging"
	"github.com/JoeyNPP/Furniture-Site/internal/store"
	"github.com/JoeyNPP/Furniture-Site/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Values already in the environment win over .env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	fieldMap, err := cfg.Catalog.FieldMap()
	if err != nil {
		return err
	}
	matchKey, err := cfg.Catalog.Key()
	if err != nil {
		return err
	}
	policy, err := cfg.Catalog.Policy()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opened, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer opened.Close()

	service := core.NewService(opened.Store, core.Options{
		FieldMap:        fieldMap,
		MatchKey:        matchKey,
		LabelPolicy:     policy,
		MaxFileSize:     cfg.Upload.MaxFileSize,
		MaxConcurrent:   cfg.Upload.MaxConcurrent,
		MaxWait:         cfg.Upload.MaxWaitTime,
		UploadTimeout:   cfg.Upload.Timeout,
		ResultRetention: cfg.Upload.ResultRetention,
		Logger:          logger,
	})
	logger.Info("catalog ready",
		"field_map", fieldMap.Version(),
		"match_key", matchKey.String(),
		"label_policy", policy.String(),
	)

	server := web.NewServer(service, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := service.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", status.Active)
		if err := service.WaitForUploads(shutdownCtx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		} else {
			slog.Info("all uploads completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
