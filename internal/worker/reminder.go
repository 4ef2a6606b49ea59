package worker

import (
	"context"
	"time"

	"github.com/ignite/newsletter/internal/pkg/distlock"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// =============================================================================
// CONFIRMATION REMINDER WORKER
// =============================================================================
// Subscribers whose confirmation email failed, or who ignored it, stay
// pending forever. Every interval this worker re-sends the original link,
// once per subscriber, to those pending longer than the configured age.
//
// Only one replica sends per cycle: the cycle runs under a distributed lock
// and replicas that lose the race skip it.

const (
	// DefaultReminderInterval is how often a reminder cycle runs.
	DefaultReminderInterval = 5 * time.Minute

	// ReminderLockKey names the lock shared by every replica.
	ReminderLockKey = "newsletter:confirmation-reminders"
)

// Reminder is the part of the subscription service the worker drives.
type Reminder interface {
	RemindPending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// ReminderConfig tunes a ReminderWorker.
type ReminderConfig struct {
	Interval  time.Duration
	OlderThan time.Duration
	BatchSize int
}

// ReminderWorker periodically re-sends confirmation links.
type ReminderWorker struct {
	svc     Reminder
	newLock func(key string) distlock.Lock
	cfg     ReminderConfig
	log     *logger.Logger
}

// NewReminderWorker creates a worker. newLock is called once per cycle with
// ReminderLockKey.
func NewReminderWorker(svc Reminder, newLock func(key string) distlock.Lock, cfg ReminderConfig, log *logger.Logger) *ReminderWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReminderInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = logger.Default()
	}
	return &ReminderWorker{
		svc:     svc,
		newLock: newLock,
		cfg:     cfg,
		log:     log.With("worker", "confirmation_reminder"),
	}
}

// Start runs a cycle immediately and then every interval. It blocks until
// ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.log.Info("starting",
		"interval", w.cfg.Interval.String(),
		"older_than", w.cfg.OlderThan.String(),
		"batch_size", w.cfg.BatchSize)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single cycle under the lock and returns how many
// reminders went out.
func (w *ReminderWorker) RunOnce(ctx context.Context) int {
	start := time.Now()
	sent := 0

	ran, err := distlock.Do(ctx, w.newLock(ReminderLockKey), func(ctx context.Context) error {
		n, err := w.svc.RemindPending(logger.NewContext(ctx, w.log), w.cfg.OlderThan, w.cfg.BatchSize)
		sent = n
		return err
	})
	switch {
	case err != nil:
		w.log.Error("reminder cycle failed", "error", err, "sent", sent)
	case !ran:
		w.log.Debug("reminder cycle skipped, lock held elsewhere")
	default:
		w.log.Debug("reminder cycle completed", "sent", sent, "duration_ms", time.Since(start).Milliseconds())
	}
	return sent
}
