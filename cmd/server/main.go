package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/foxseedlab/kakiokoshi/external/audio"
	configloader "github.com/foxseedlab/kakiokoshi/external/config"
	"github.com/foxseedlab/kakiokoshi/external/discord"
	"github.com/foxseedlab/kakiokoshi/external/httpserver"
	metricsimpl "github.com/foxseedlab/kakiokoshi/external/metrics"
	transcriberimpl "github.com/foxseedlab/kakiokoshi/external/transcriber"
	webhookimpl "github.com/foxseedlab/kakiokoshi/external/webhook"
	"github.com/foxseedlab/kakiokoshi/internal/config"
	"github.com/foxseedlab/kakiokoshi/internal/notify"
	"github.com/foxseedlab/kakiokoshi/internal/pipeline"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "backend", cfg.TranscriptionBackend)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: starting http server")
	runServer(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	metricsimpl.RegisterDI(injector)
	do.Provide(injector, func(i do.Injector) (notify.Multi, error) {
		return notify.Multi{
			do.MustInvoke[*webhookimpl.HTTPSender](i),
			do.MustInvoke[*discord.Notifier](i),
		}, nil
	})
	pipeline.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

func runServer(injector do.Injector) {
	srv, err := do.Invoke[*httpserver.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case err := <-done:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if report := injector.ShutdownWithContext(ctx); !report.Succeed {
		slog.Error("dependency shutdown failed", "failed_services", len(report.Errors))
	}
}
