package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iams-api/internal/application/asset"
	"github.com/iams-api/internal/application/notification"
	"github.com/iams-api/internal/application/warranty"
	"github.com/iams-api/internal/config"
	"github.com/iams-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/iams-api/internal/infrastructure/jwt"
	transporthttp "github.com/iams-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	// Cancelled on SIGINT/SIGTERM. It is also the server's base context, so
	// open notification streams end when shutdown starts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	// Creates tables and indexes that don't exist yet.
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)
	alertRepo := dynamo.NewWarrantyAlertRepo(dynamoClient, cfg.DynamoTables.WarrantyAlerts)
	assetRepo := dynamo.NewAssetRepo(dynamoClient, cfg.DynamoTables.Assets)

	registry := notification.NewRegistry()
	notifSvc := notification.NewService(notification.ServiceDeps{
		Repo:     notificationRepo,
		Registry: registry,
	})
	scanner := warranty.NewScanner(warranty.ScannerDeps{
		Assets:       assetRepo,
		Alerts:       alertRepo,
		Notifier:     notifSvc,
		Interval:     cfg.WarrantyScanInterval,
		ExpiringDays: cfg.WarrantyExpiringDays,
	})

	deps := &transporthttp.Deps{
		Notifications: notifSvc,
		Registry:      registry,
		Assets:        asset.NewService(assetRepo),
		Warranty:      warranty.NewService(alertRepo, scanner),
		Tokens:        jwtProvider,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           transporthttp.NewRouter(ctx, cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go scanner.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
