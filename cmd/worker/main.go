package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/newsletter/internal/bootstrap"
	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/pkg/distlock"
	"github.com/ignite/newsletter/internal/pkg/httpretry"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/ignite/newsletter/internal/service/subscription"
	"github.com/ignite/newsletter/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := bootstrap.Logger(cfg.Logging).With("binary", "worker")

	if !cfg.Reminder.Enabled {
		log.Info("confirmation reminders disabled (reminder.enabled=false), nothing to do")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := bootstrap.OpenRedis(ctx, cfg.Redis.URL, log)
	if rdb != nil {
		defer rdb.Close()
	}

	// Background sends may retry; the request path never does.
	notifier, err := bootstrap.Notifier(ctx, cfg, &httpretry.Options{
		MaxRetries: cfg.Reminder.MaxRetries,
		Logger:     log,
	})
	if err != nil {
		log.Error("email client misconfigured", "error", err)
		os.Exit(1)
	}

	svc, err := subscription.NewService(db, postgres.NewSubscriptionStore(), notifier, subscription.Options{
		BaseURL:             cfg.Application.BaseURL,
		Logger:              log,
		MaxReminderAttempts: cfg.Reminder.MaxAttempts,
	})
	if err != nil {
		log.Error("subscription service init failed", "error", err)
		os.Exit(1)
	}

	lockTTL := 2 * cfg.Reminder.Interval()
	reminders := worker.NewReminderWorker(svc, func(key string) distlock.Lock {
		return distlock.New(rdb, db, key, lockTTL)
	}, worker.ReminderConfig{
		Interval:  cfg.Reminder.Interval(),
		OlderThan: cfg.Reminder.After(),
		BatchSize: cfg.Reminder.BatchSize,
	}, log)

	stopped := make(chan struct{})
	go func() {
		reminders.Start(ctx)
		close(stopped)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	cancel()

	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		log.Warn("reminder cycle did not finish before shutdown deadline")
	}
	log.Info("worker stopped")
}
