package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/newsletter/internal/pkg/distlock"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

type fakeReminder struct {
	mu    sync.Mutex
	calls int
	sent  int
	err   error
	args  []time.Duration
}

func (f *fakeReminder) RemindPending(_ context.Context, olderThan time.Duration, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.args = append(f.args, olderThan)
	return f.sent, f.err
}

func (f *fakeReminder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb
}

func quietLogger() *logger.Logger { return logger.New(io.Discard, logger.ERROR, false) }

func TestReminderWorker_RunOnce(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := &fakeReminder{sent: 3}
	w := NewReminderWorker(svc, func(key string) distlock.Lock {
		return distlock.New(rdb, nil, key, time.Minute)
	}, ReminderConfig{OlderThan: 24 * time.Hour, BatchSize: 10}, quietLogger())

	assert.Equal(t, 3, w.RunOnce(context.Background()))
	assert.Equal(t, []time.Duration{24 * time.Hour}, svc.args)

	// The lock is released after each cycle.
	assert.Equal(t, 3, w.RunOnce(context.Background()))
	assert.Equal(t, 2, svc.callCount())
}

func TestReminderWorker_LocksSharedKey(t *testing.T) {
	rdb := setupTestRedis(t)
	var keys []string
	w := NewReminderWorker(&fakeReminder{}, func(key string) distlock.Lock {
		keys = append(keys, key)
		return distlock.New(rdb, nil, key, time.Minute)
	}, ReminderConfig{}, quietLogger())

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	assert.Equal(t, []string{ReminderLockKey, ReminderLockKey}, keys)
}

func TestReminderWorker_SkipsWhenLockHeld(t *testing.T) {
	rdb := setupTestRedis(t)
	other := distlock.NewRedisLock(rdb, ReminderLockKey, time.Minute)
	ok, err := other.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	svc := &fakeReminder{sent: 1}
	w := NewReminderWorker(svc, func(key string) distlock.Lock {
		return distlock.New(rdb, nil, key, time.Minute)
	}, ReminderConfig{}, quietLogger())

	assert.Zero(t, w.RunOnce(context.Background()))
	assert.Zero(t, svc.callCount())
}

func TestReminderWorker_ErrorIsContained(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := &fakeReminder{err: errors.New("db down")}
	w := NewReminderWorker(svc, func(key string) distlock.Lock {
		return distlock.New(rdb, nil, key, time.Minute)
	}, ReminderConfig{}, quietLogger())

	assert.Zero(t, w.RunOnce(context.Background()))
	assert.Equal(t, 1, svc.callCount())
}

func TestReminderWorker_StartStopsOnCancel(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := &fakeReminder{}
	w := NewReminderWorker(svc, func(key string) distlock.Lock {
		return distlock.New(rdb, nil, key, time.Minute)
	}, ReminderConfig{Interval: 10 * time.Millisecond}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return svc.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
