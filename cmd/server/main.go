// Command server runs the Inkwell API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/observability"
	"inkwell/internal/seed"
	"inkwell/internal/server"
	"inkwell/internal/store"

	"github.com/joho/godotenv"
)

// @title Inkwell API
// @version 1.0
// @description Blogging platform API with posts, profiles, follows and direct messages.

// @contact.name API Support
// @contact.email support@inkwell.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetLogger(observability.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel))

	if err := run(cfg); err != nil {
		observability.Logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    observability.ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	flags := featureflags.NewManager(cfg.FeatureFlags)
	st, err := store.Open(ctx, cfg, store.Options{CacheReads: flags.Global(featureflags.PostCache)})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if cfg.SeedOnStart {
		if _, err := seed.Seed(ctx, st, seed.Options{}); err != nil {
			return err
		}
	}

	srv := server.NewServer(cfg, st, server.Options{})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		observability.Logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
