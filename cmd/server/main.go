package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/newsletter/internal/api"
	"github.com/ignite/newsletter/internal/bootstrap"
	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/migrations"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := bootstrap.Logger(cfg.Logging)
	log.Info("starting newsletter server", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to database", "max_open_conns", cfg.Database.MaxOpenConns)

	if cfg.Database.RunMigrations {
		if err := migrations.Up(ctx, db); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	rdb := bootstrap.OpenRedis(ctx, cfg.Redis.URL, log)
	if rdb != nil {
		defer rdb.Close()
	}

	// The request path sends each email once; no retry wrapper.
	notifier, err := bootstrap.Notifier(ctx, cfg, nil)
	if err != nil {
		log.Error("email client misconfigured", "error", err)
		os.Exit(1)
	}

	svc, err := subscription.NewService(db, postgres.NewSubscriptionStore(), notifier, subscription.Options{
		BaseURL: cfg.Application.BaseURL,
		Logger:  log,
	})
	if err != nil {
		log.Error("subscription service init failed", "error", err)
		os.Exit(1)
	}

	health := api.NewHealthChecker(db, rdb, version)
	router := api.SetupRoutes(api.NewHandlers(svc, health), api.RouterOptions{Logger: log})
	server := api.NewServer(cfg.Server, router)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("listening", "addr", cfg.Server.Addr(), "base_url", cfg.Application.BaseURL, "email_provider", cfg.EmailClient.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	log.Info("server stopped")
}
