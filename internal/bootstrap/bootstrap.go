// Package bootstrap builds the process-wide dependencies shared by the
// binaries: logger, database pool, optional Redis, and the email notifier.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/emailclient"
	"github.com/ignite/newsletter/internal/pkg/httpretry"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/ses"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// Logger configures the default logger from cfg and returns it.
func Logger(cfg config.LoggingConfig) *logger.Logger {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(!cfg.IncludePII)
	return logger.Default()
}

// DSN adds a connect_timeout to the database URL unless one is present, so
// a request waiting on a fresh connection fails instead of hanging.
func DSN(cfg config.DatabaseConfig) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("database url: %w", err)
	}
	q := u.Query()
	if q.Get("connect_timeout") == "" && cfg.AcquireTimeoutSecs > 0 {
		q.Set("connect_timeout", strconv.Itoa(cfg.AcquireTimeoutSecs))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OpenDB opens the pool, applies the configured limits, and pings it.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// OpenRedis connects to rawURL. It returns nil, after logging a warning,
// when Redis is not configured or unreachable; callers then fall back to
// Postgres advisory locks.
func OpenRedis(ctx context.Context, rawURL string, log *logger.Logger) *redis.Client {
	if rawURL == "" {
		log.Info("redis not configured, using postgres advisory locks")
		return nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		opts = &redis.Options{Addr: rawURL}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, using postgres advisory locks", "error", err)
		rdb.Close()
		return nil
	}
	log.Info("redis connected", "addr", opts.Addr)
	return rdb
}

// Notifier builds the configured email provider. A non-nil retry wraps the
// HTTP provider's transport; SES calls are never retried here.
func Notifier(ctx context.Context, cfg *config.Config, retry *httpretry.Options) (subscription.Notifier, error) {
	switch cfg.EmailClient.Provider {
	case config.ProviderSES:
		return ses.NewNotifier(ctx, cfg.SES, cfg.EmailClient.SenderEmail)
	case config.ProviderHTTP:
		var doer httpretry.HTTPDoer = &http.Client{Timeout: cfg.EmailClient.Timeout()}
		if retry != nil {
			doer = httpretry.New(doer, *retry)
		}
		return emailclient.NewWithDoer(cfg.EmailClient, doer)
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.EmailClient.Provider)
}
