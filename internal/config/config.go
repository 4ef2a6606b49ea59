package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Application ApplicationConfig `yaml:"application"`
	Database    DatabaseConfig    `yaml:"database"`
	EmailClient EmailClientConfig `yaml:"email_client"`
	SES         SESConfig         `yaml:"ses"`
	Redis       RedisConfig       `yaml:"redis"`
	Reminder    ReminderConfig    `yaml:"reminder"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int    `yaml:"port"`
	Host                string `yaml:"host"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for net/http.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

// ApplicationConfig holds settings that shape user-facing output.
type ApplicationConfig struct {
	// BaseURL is the public origin used in confirmation links.
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig holds the Postgres connection and pool settings.
type DatabaseConfig struct {
	URL                string `yaml:"url"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int    `yaml:"conn_max_lifetime_minutes"`
	// AcquireTimeoutSecs bounds how long a request waits for a connection.
	AcquireTimeoutSecs int    `yaml:"acquire_timeout_seconds"`
	RunMigrations      bool   `yaml:"run_migrations"`
}

// ConnMaxLifetime returns the pool's connection lifetime.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

// AcquireTimeout returns the connection acquisition timeout.
func (c DatabaseConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSecs) * time.Second
}

// Email providers.
const (
	ProviderHTTP = "http"
	ProviderSES  = "ses"
)

// EmailClientConfig holds the outbound email API settings
type EmailClientConfig struct {
	Provider           string `yaml:"provider"`
	BaseURL            string `yaml:"base_url"`
	SenderEmail        string `yaml:"sender_email"`
	AuthorizationToken string `yaml:"authorization_token"`
	TimeoutMillis      int    `yaml:"timeout_milliseconds"`
}

// Timeout returns the per-request timeout as a duration
func (c EmailClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the optional Redis connection used for locking and
// health reporting. An empty URL disables Redis.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ReminderConfig controls the confirmation reminder worker.
type ReminderConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	AfterHours      int  `yaml:"after_hours"`
	BatchSize       int  `yaml:"batch_size"`
	MaxRetries      int  `yaml:"max_retries"`
	// MaxAttempts caps failed reminder sends per subscriber before the
	// worker gives up on them.
	MaxAttempts int `yaml:"max_attempts"`
}

// Interval returns the time between reminder runs.
func (c ReminderConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// After returns how long a subscriber must be pending before a reminder.
func (c ReminderConfig) After() time.Duration {
	return time.Duration(c.AfterHours) * time.Hour
}

// LoggingConfig holds logger settings. Email addresses and tokens are
// redacted unless IncludePII is set.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	IncludePII bool   `yaml:"include_pii"`
}

// Load reads and parses the configuration file. An empty path yields the
// defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = 15
	}
	if cfg.Application.BaseURL == "" {
		cfg.Application.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetimeMin == 0 {
		cfg.Database.ConnMaxLifetimeMin = 5
	}
	if cfg.Database.AcquireTimeoutSecs == 0 {
		cfg.Database.AcquireTimeoutSecs = 2
	}
	if cfg.EmailClient.Provider == "" {
		cfg.EmailClient.Provider = ProviderHTTP
	}
	if cfg.EmailClient.TimeoutMillis == 0 {
		cfg.EmailClient.TimeoutMillis = 10000
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.Reminder.IntervalSeconds == 0 {
		cfg.Reminder.IntervalSeconds = 300
	}
	if cfg.Reminder.AfterHours == 0 {
		cfg.Reminder.AfterHours = 24
	}
	if cfg.Reminder.BatchSize == 0 {
		cfg.Reminder.BatchSize = 100
	}
	if cfg.Reminder.MaxRetries == 0 {
		cfg.Reminder.MaxRetries = 3
	}
	if cfg.Reminder.MaxAttempts == 0 {
		cfg.Reminder.MaxAttempts = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("APP_BASE_URL"); v != "" {
		cfg.Application.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("EMAIL_PROVIDER"); v != "" {
		cfg.EmailClient.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("EMAIL_BASE_URL"); v != "" {
		cfg.EmailClient.BaseURL = v
	}
	if v := os.Getenv("EMAIL_SENDER"); v != "" {
		cfg.EmailClient.SenderEmail = v
	}
	if v := os.Getenv("EMAIL_AUTHORIZATION_TOKEN"); v != "" {
		cfg.EmailClient.AuthorizationToken = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, cfg.Validate()
}

// Validate reports settings the service cannot start without.
func (cfg *Config) Validate() error {
	var missing []string
	if cfg.Database.URL == "" {
		missing = append(missing, "database.url")
	}
	if cfg.EmailClient.SenderEmail == "" {
		missing = append(missing, "email_client.sender_email")
	}
	switch cfg.EmailClient.Provider {
	case ProviderHTTP:
		if cfg.EmailClient.BaseURL == "" {
			missing = append(missing, "email_client.base_url")
		}
	case ProviderSES:
	default:
		return fmt.Errorf("email_client.provider: unknown provider %q", cfg.EmailClient.Provider)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
