package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/flexprice/cashier/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Gateway    GatewayConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Cache      CacheConfig
	Sentry     SentryConfig
	Plans      map[string]PlanConfig `validate:"omitempty,dive"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// AuthConfig configures who may call the HTTP API
type AuthConfig struct {
	// Secret signs bearer tokens, bearer auth is refused while it is empty
	Secret string       `mapstructure:"secret"`
	APIKey APIKeyConfig `mapstructure:"api_key" validate:"required"`
}

type APIKeyConfig struct {
	Header string `mapstructure:"header" validate:"required"`
	// Keys is keyed by the hex sha256 of the raw key
	Keys map[string]APIKeyDetails `mapstructure:"keys" validate:"omitempty,dive"`
}

type APIKeyDetails struct {
	Name     string `mapstructure:"name"`
	UserID   string `mapstructure:"user_id" validate:"required"`
	IsActive bool   `mapstructure:"is_active"`
}

type PostgresConfig struct {
	Host                   string        `mapstructure:"host"`
	Port                   int           `mapstructure:"port"`
	User                   string        `mapstructure:"user"`
	Password               string        `mapstructure:"password"`
	DBName                 string        `mapstructure:"dbname"`
	SSLMode                string        `mapstructure:"sslmode"`
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	MigrationsPath         string        `mapstructure:"migrations_path"`
	QueryTimeout           time.Duration `mapstructure:"query_timeout"`
}

// GatewayConfig configures the Authorize.Net client
type GatewayConfig struct {
	Environment    types.GatewayEnvironment `mapstructure:"environment" validate:"required,oneof=sandbox production"`
	APILoginID     string                   `mapstructure:"api_login_id"`
	TransactionKey string                   `mapstructure:"transaction_key"`
	// Endpoint overrides the URL derived from Environment
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"required"`
	// DuplicateWindow is the number of seconds the gateway rejects an identical transaction
	DuplicateWindow int                  `mapstructure:"duplicate_window" validate:"gte=0,lte=28800"`
	RateLimit       RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Reconcile       ReconcileConfig      `mapstructure:"reconcile"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CircuitBreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
}

// ReconcileConfig bounds the read-only polls that settle unknown outcomes
type ReconcileConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval" validate:"gt=0"`
	MaxInterval     time.Duration `mapstructure:"max_interval" validate:"gt=0,gtefield=InitialInterval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed" validate:"gt=0,gtefield=MaxInterval"`
}

type BillingConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
	Currency string `mapstructure:"currency" validate:"required,len=3"`
}

type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// PlanConfig is the raw plan definition as written in config.yaml. Amounts are
// decimal strings so they never pass through a float.
type PlanConfig struct {
	Name             string         `mapstructure:"name"`
	Amount           string         `mapstructure:"amount" validate:"required"`
	TrialAmount      string         `mapstructure:"trial_amount"`
	TrialDays        int            `mapstructure:"trial_days" validate:"gte=0"`
	TrialOccurrences int            `mapstructure:"trial_occurrences" validate:"gte=0"`
	TotalOccurrences int            `mapstructure:"total_occurrences" validate:"gte=0"`
	Interval         types.Interval `mapstructure:"interval"`
	TaxMultiplier    string         `mapstructure:"tax_multiplier"`
	Description      string         `mapstructure:"description"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional, real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Skipping .env: %v\n", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cashier")

	v.SetEnvPrefix("CASHIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key viper should resolve from the environment even
// when config.yaml does not mention it.
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.api_key.header", d.Auth.APIKey.Header)
	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", d.Postgres.DBName)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime_minutes", d.Postgres.ConnMaxLifetimeMinutes)
	v.SetDefault("postgres.migrations_path", d.Postgres.MigrationsPath)
	v.SetDefault("postgres.query_timeout", d.Postgres.QueryTimeout)
	v.SetDefault("gateway.environment", d.Gateway.Environment)
	v.SetDefault("gateway.api_login_id", "")
	v.SetDefault("gateway.transaction_key", "")
	v.SetDefault("gateway.endpoint", "")
	v.SetDefault("gateway.timeout", d.Gateway.Timeout)
	v.SetDefault("gateway.duplicate_window", d.Gateway.DuplicateWindow)
	v.SetDefault("gateway.rate_limit.requests_per_second", d.Gateway.RateLimit.RequestsPerSecond)
	v.SetDefault("gateway.rate_limit.burst", d.Gateway.RateLimit.Burst)
	v.SetDefault("gateway.circuit_breaker.enabled", d.Gateway.CircuitBreaker.Enabled)
	v.SetDefault("gateway.circuit_breaker.consecutive_failures", d.Gateway.CircuitBreaker.ConsecutiveFailures)
	v.SetDefault("gateway.circuit_breaker.open_timeout", d.Gateway.CircuitBreaker.OpenTimeout)
	v.SetDefault("gateway.reconcile.initial_interval", d.Gateway.Reconcile.InitialInterval)
	v.SetDefault("gateway.reconcile.max_interval", d.Gateway.Reconcile.MaxInterval)
	v.SetDefault("gateway.reconcile.max_elapsed", d.Gateway.Reconcile.MaxElapsed)
	v.SetDefault("billing.timezone", d.Billing.Timezone)
	v.SetDefault("billing.currency", d.Billing.Currency)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.sample_rate", d.Sentry.SampleRate)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	for key, p := range c.Plans {
		if err := p.Interval.Validate(); err != nil {
			return fmt.Errorf("plans.%s.interval: %w", key, err)
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Auth: AuthConfig{
			APIKey: APIKeyConfig{Header: "x-api-key"},
		},
		Postgres: PostgresConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "cashier",
			DBName:                 "cashier",
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
			MigrationsPath:         "migrations/postgres",
			QueryTimeout:           5 * time.Second,
		},
		Gateway: GatewayConfig{
			Environment:     types.GatewayEnvironmentSandbox,
			Timeout:         30 * time.Second,
			DuplicateWindow: 120,
			RateLimit:       RateLimitConfig{RequestsPerSecond: 10, Burst: 5},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				OpenTimeout:         30 * time.Second,
			},
			Reconcile: ReconcileConfig{
				InitialInterval: 2 * time.Second,
				MaxInterval:     30 * time.Second,
				MaxElapsed:      2 * time.Minute,
			},
		},
		Billing: BillingConfig{
			Timezone: types.DefaultBillingTimezone,
			Currency: types.DefaultCurrency,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Sentry: SentryConfig{SampleRate: 1.0},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
