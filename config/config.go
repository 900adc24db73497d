package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment        string
	Port               string
	DBUrl              string
	Store              string
	JWTSecret          string
	CORSAllowedOrigins []string
	ContextTimeout     time.Duration
	LogLevel           string

	Email   EmailConfig
	Lottery LotteryConfig
	Retry   RetryConfig
	Notify  NotifyConfig
}

// EmailConfig selects and configures the notification mailer.
type EmailConfig struct {
	Provider           string
	FromAddress        string
	FromName           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	InsecureSkipVerify bool
}

// LotteryConfig seeds the draw and sets which vacancies are refilled immediately.
type LotteryConfig struct {
	Seed                    uint64
	AutoReplaceOnDecline    bool
	AutoReplaceOnCancel     bool
	AutoReplaceOnBulkCancel bool
}

// RetryConfig bounds the retries of transient store failures.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NotifyConfig sizes the asynchronous notification queue.
type NotifyConfig struct {
	Workers   int
	QueueSize int
}

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var defaults = map[string]any{
	"GO_ENV":                              "development",
	"PORT":                                "8080",
	"STORE":                               StorePostgres,
	"CONTEXT_TIMEOUT":                     "10s",
	"LOG_LEVEL":                           "info",
	"EMAIL_PROVIDER":                      "noop",
	"EMAIL_FROM_NAME":                     "Event Lottery",
	"AWS_REGION":                          "us-east-1",
	"SES_INSECURE_SKIP_VERIFY":            false,
	"LOTTERY_SEED":                        0,
	"LOTTERY_AUTO_REPLACE_ON_DECLINE":     true,
	"LOTTERY_AUTO_REPLACE_ON_CANCEL":      true,
	"LOTTERY_AUTO_REPLACE_ON_BULK_CANCEL": false,
	"RETRY_MAX_ATTEMPTS":                  3,
	"RETRY_INITIAL_INTERVAL":              "50ms",
	"RETRY_MAX_INTERVAL":                  "1s",
	"NOTIFY_WORKERS":                      4,
	"NOTIFY_QUEUE_SIZE":                   256,
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Load .env file if not in production
	// We don't return error here because in production .env might not exist
	// and we rely on system environment variables
	if v.GetString("GO_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from v without validating it.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Environment:        v.GetString("GO_ENV"),
		Port:               v.GetString("PORT"),
		DBUrl:              v.GetString("DATABASE_URL"),
		Store:              strings.ToLower(v.GetString("STORE")),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		ContextTimeout:     v.GetDuration("CONTEXT_TIMEOUT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		Email: EmailConfig{
			Provider:           strings.ToLower(v.GetString("EMAIL_PROVIDER")),
			FromAddress:        v.GetString("EMAIL_FROM_ADDRESS"),
			FromName:           v.GetString("EMAIL_FROM_NAME"),
			AWSRegion:          v.GetString("AWS_REGION"),
			AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			InsecureSkipVerify: v.GetBool("SES_INSECURE_SKIP_VERIFY"),
		},
		Lottery: LotteryConfig{
			Seed:                    v.GetUint64("LOTTERY_SEED"),
			AutoReplaceOnDecline:    v.GetBool("LOTTERY_AUTO_REPLACE_ON_DECLINE"),
			AutoReplaceOnCancel:     v.GetBool("LOTTERY_AUTO_REPLACE_ON_CANCEL"),
			AutoReplaceOnBulkCancel: v.GetBool("LOTTERY_AUTO_REPLACE_ON_BULK_CANCEL"),
		},
		Retry: RetryConfig{
			MaxAttempts:     v.GetInt("RETRY_MAX_ATTEMPTS"),
			InitialInterval: v.GetDuration("RETRY_INITIAL_INTERVAL"),
			MaxInterval:     v.GetDuration("RETRY_MAX_INTERVAL"),
		},
		Notify: NotifyConfig{
			Workers:   v.GetInt("NOTIFY_WORKERS"),
			QueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
		},
	}
}

// Validate reports every setting that would stop the service from starting correctly.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if c.DBUrl == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE=postgres"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if c.JWTSecret == "" && c.Environment == "production" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.Email.Provider == "ses" && c.Email.FromAddress == "" {
		errs = append(errs, errors.New("EMAIL_FROM_ADDRESS is required when EMAIL_PROVIDER=ses"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Retry.InitialInterval <= 0 || c.Retry.MaxInterval < c.Retry.InitialInterval {
		errs = append(errs, errors.New("RETRY_INITIAL_INTERVAL must be positive and not above RETRY_MAX_INTERVAL"))
	}
	if c.Notify.Workers < 1 || c.Notify.QueueSize < 1 {
		errs = append(errs, errors.New("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive"))
	}
	if c.ContextTimeout < 0 {
		errs = append(errs, errors.New("CONTEXT_TIMEOUT must not be negative"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
