// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// PhoneVaultConfig provides settings for phone number encryption and indexing.
type PhoneVaultConfig interface {
	GetPhoneVaultKey() string
	GetPhoneCountryPrefix() string
	GetPhoneDefaultRegion() string
}

// AssignmentConfig provides settings for lead distribution and recycling.
type AssignmentConfig interface {
	GetBusinessLocation() *time.Location
}

// SchedulerConfig provides Redis/asynq settings for periodic jobs and task queues.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRecycleCron() string
	GetDistributeCron() string
}

// CommissionConfig provides commission calculation settings.
type CommissionConfig interface {
	GetCommissionFallbackAmount() decimal.Decimal
}

// StorefrontConfig provides settings for syncing converted orders to the main site.
type StorefrontConfig interface {
	GetStorefrontAPIURL() string
	GetStorefrontAPIKey() string
	IsStorefrontSyncEnabled() bool
}

// BrokerConfig provides settings for forwarding domain events to RabbitMQ.
type BrokerConfig interface {
	GetAMQPURL() string
	GetAMQPExchange() string
	IsBrokerEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	PhoneVaultKey            string
	PhoneCountryPrefix       string
	PhoneDefaultRegion       string
	BusinessLocation         *time.Location
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	RecycleCron              string
	DistributeCron           string
	CommissionFallbackAmount decimal.Decimal
	StorefrontAPIURL         string
	StorefrontAPIKey         string
	AMQPURL                  string
	AMQPExchange             string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// PhoneVaultConfig implementation
func (c *Config) GetPhoneVaultKey() string      { return c.PhoneVaultKey }
func (c *Config) GetPhoneCountryPrefix() string { return c.PhoneCountryPrefix }
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// AssignmentConfig implementation
func (c *Config) GetBusinessLocation() *time.Location { return c.BusinessLocation }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) GetRecycleCron() string    { return c.RecycleCron }
func (c *Config) GetDistributeCron() string { return c.DistributeCron }

// CommissionConfig implementation
func (c *Config) GetCommissionFallbackAmount() decimal.Decimal { return c.CommissionFallbackAmount }

// StorefrontConfig implementation
func (c *Config) GetStorefrontAPIURL() string { return c.StorefrontAPIURL }
func (c *Config) GetStorefrontAPIKey() string { return c.StorefrontAPIKey }
func (c *Config) IsStorefrontSyncEnabled() bool {
	return c.StorefrontAPIURL != "" && c.StorefrontAPIKey != ""
}

// BrokerConfig implementation
func (c *Config) GetAMQPURL() string      { return c.AMQPURL }
func (c *Config) GetAMQPExchange() string { return c.AMQPExchange }
func (c *Config) IsBrokerEnabled() bool   { return c.AMQPURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	fallback, err := decimal.NewFromString(getEnv("COMMISSION_FALLBACK_AMOUNT", "100"))
	if err != nil {
		return nil, fmt.Errorf("COMMISSION_FALLBACK_AMOUNT is not a decimal: %w", err)
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		PhoneVaultKey:            getEnv("PHONE_VAULT_KEY", ""),
		PhoneCountryPrefix:       getEnv("PHONE_COUNTRY_PREFIX", "880"),
		PhoneDefaultRegion:       getEnv("PHONE_DEFAULT_REGION", "BD"),
		BusinessLocation:         loadLocation(getEnv("BUSINESS_TIMEZONE", "Asia/Dhaka")),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "telesales"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		RecycleCron:              getEnv("RECYCLE_CRON", "5 0 * * *"),
		DistributeCron:           getEnv("DISTRIBUTE_CRON", "*/30 8-20 * * *"),
		CommissionFallbackAmount: fallback,
		StorefrontAPIURL:         strings.TrimRight(getEnv("STOREFRONT_API_URL", ""), "/"),
		StorefrontAPIKey:         getEnv("STOREFRONT_API_KEY", ""),
		AMQPURL:                  getEnv("AMQP_URL", ""),
		AMQPExchange:             getEnv("AMQP_EXCHANGE", "ex.telesales"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.PhoneVaultKey == "" {
		return nil, fmt.Errorf("PHONE_VAULT_KEY is required")
	}
	if len(cfg.PhoneCountryPrefix) != 3 || strings.Trim(cfg.PhoneCountryPrefix, "0123456789") != "" {
		return nil, fmt.Errorf("PHONE_COUNTRY_PREFIX must be exactly 3 digits")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
