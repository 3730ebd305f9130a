package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application. Every field is read from a flat
// environment variable, optionally seeded from a .env file.
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Kafka     KafkaConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Retry     RetryConfig     `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"SERVER_PORT"`
	Host            string        `mapstructure:"SERVER_HOST"`
	Env             string        `mapstructure:"ENV"`
	ReadTimeout     time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	MetricsEnabled  bool          `mapstructure:"METRICS_ENABLED"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	MigrationsPath  string        `mapstructure:"MIGRATIONS_PATH"`
	MigrateOnStart  bool          `mapstructure:"MIGRATE_ON_START"`
}

// RedisConfig is optional. Without a URL the service runs without the schedule cache
// and without the distributed loan lock.
type RedisConfig struct {
	URL      string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"REDIS_CACHE_TTL"`
	LockTTL  time.Duration `mapstructure:"REDIS_LOCK_TTL"`
}

// KafkaConfig is optional. Without brokers loan events are written to the log.
type KafkaConfig struct {
	Brokers string `mapstructure:"KAFKA_BROKERS"`
	Topic   string `mapstructure:"KAFKA_TOPIC"`
}

type SchedulerConfig struct {
	COBSchedule string        `mapstructure:"SCHEDULER_COB_CRON"`
	Timezone    string        `mapstructure:"SCHEDULER_TIMEZONE"`
	COBTimeout  time.Duration `mapstructure:"SCHEDULER_COB_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	Date            string `mapstructure:"BUSINESS_DATE"`
	Timezone        string `mapstructure:"BUSINESS_TIMEZONE"`
	DefaultCurrency string `mapstructure:"DEFAULT_CURRENCY"`
}

type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"RETRY_MAX_ATTEMPTS"`
	WaitDuration time.Duration `mapstructure:"RETRY_WAIT_DURATION"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":             "8080",
	"SERVER_HOST":             "0.0.0.0",
	"ENV":                     "development",
	"SERVER_READ_TIMEOUT":     "30s",
	"SERVER_WRITE_TIMEOUT":    "30s",
	"SERVER_SHUTDOWN_TIMEOUT": "30s",
	"METRICS_ENABLED":         true,

	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "5m",
	"MIGRATIONS_PATH":            "file://migrations",
	"MIGRATE_ON_START":           true,

	"REDIS_URL":       "",
	"REDIS_CACHE_TTL": "10m",
	"REDIS_LOCK_TTL":  "30s",

	"KAFKA_BROKERS": "",
	"KAFKA_TOPIC":   "loan-events",

	"SCHEDULER_COB_CRON":    "5 0 * * *",
	"SCHEDULER_TIMEZONE":    "UTC",
	"SCHEDULER_COB_TIMEOUT": "1h",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",

	"BUSINESS_DATE":     "",
	"BUSINESS_TIMEZONE": "UTC",
	"DEFAULT_CURRENCY":  "USD",

	"RETRY_MAX_ATTEMPTS":  3,
	"RETRY_WAIT_DURATION": "100ms",

	"HEALTH_CHECK_TIMEOUT": "5s",
}

// envFiles are tried in order. A missing file is skipped and variables already in the
// environment win.
var envFiles = []string{".env", filepath.Join("deployments", ".env")}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}

	if len(c.Business.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be an ISO 4217 code, got %q", c.Business.DefaultCurrency)
	}

	if c.Business.Date != "" {
		if _, err := time.Parse("2006-01-02", c.Business.Date); err != nil {
			return fmt.Errorf("BUSINESS_DATE must be YYYY-MM-DD: %w", err)
		}
	}

	for key, tz := range map[string]string{
		"BUSINESS_TIMEZONE":  c.Business.Timezone,
		"SCHEDULER_TIMEZONE": c.Scheduler.Timezone,
	} {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("%s must be a valid time zone: %w", key, err)
		}
	}

	if _, err := cron.ParseStandard(c.Scheduler.COBSchedule); err != nil {
		return fmt.Errorf("SCHEDULER_COB_CRON must be a valid cron spec: %w", err)
	}

	if c.Kafka.Brokers != "" && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Address is the listen address of the HTTP server.
func (c ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// BrokerList splits KAFKA_BROKERS on commas.
func (c KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
