// Package config provides configuration management for the rollover fee service.
// It loads configuration from environment variables and .env files.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Kraken  KrakenConfig
	Nonce   NonceConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// KrakenConfig holds the exchange credentials and client settings.
// APISecret is the base64 string exactly as issued by the exchange.
type KrakenConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// NonceBackend selects where the nonce watermark lives
type NonceBackend string

const (
	// NonceBackendMemory keeps the watermark in process memory
	NonceBackendMemory NonceBackend = "memory"
	// NonceBackendRedis shares the watermark between replicas through Redis
	NonceBackendRedis NonceBackend = "redis"
)

// NonceConfig holds nonce source configuration
type NonceConfig struct {
	Backend NonceBackend
	Key     string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
// and validates it. A configuration error is meant to stop the process.
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var parseErr error
	duration := func(key string, defaultValue time.Duration) time.Duration {
		value, err := getEnvAsDuration(key, defaultValue)
		parseErr = multierr.Append(parseErr, err)
		return value
	}
	integer := func(key string, defaultValue int) int {
		value, err := getEnvAsInt(key, defaultValue)
		parseErr = multierr.Append(parseErr, err)
		return value
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8000"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Kraken: KrakenConfig{
			APIKey:    getEnv("KRAKEN_API_KEY", ""),
			APISecret: getEnv("KRAKEN_API_SECRET", ""),
			BaseURL:   getEnv("KRAKEN_API_URL", "https://api.kraken.com"),
			Timeout:   duration("KRAKEN_TIMEOUT", 5*time.Second),
			UserAgent: getEnv("KRAKEN_USER_AGENT", "rollover-fees/1.0"),
		},
		Nonce: NonceConfig{
			Backend: NonceBackend(getEnv("NONCE_BACKEND", string(NonceBackendMemory))),
			Key:     getEnv("NONCE_KEY", ""),
		},
		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             integer("REDIS_DB", 0),
			MaxConnections: integer("REDIS_MAX_CONNECTIONS", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if parseErr != nil {
		return nil, parseErr
	}

	if config.Nonce.Key == "" {
		config.Nonce.Key = DefaultNonceKey(config.Kraken.APIKey)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultNonceKey is the Redis key holding the nonce watermark of one API key.
// Replicas sharing a key share the watermark; the key itself is not stored.
func DefaultNonceKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "nonce:" + hex.EncodeToString(sum[:8])
}

// Validate checks that the configuration can produce valid signatures
func (c *Config) Validate() error {
	if c.Kraken.APIKey == "" {
		return fmt.Errorf("KRAKEN_API_KEY is required")
	}
	if c.Kraken.APISecret == "" {
		return fmt.Errorf("KRAKEN_API_SECRET is required")
	}
	if _, err := base64.StdEncoding.DecodeString(c.Kraken.APISecret); err != nil {
		return fmt.Errorf("KRAKEN_API_SECRET is not valid base64: %w", err)
	}
	if c.Kraken.Timeout <= 0 {
		return fmt.Errorf("KRAKEN_TIMEOUT must be positive, got %s", c.Kraken.Timeout)
	}

	switch c.Nonce.Backend {
	case NonceBackendMemory, NonceBackendRedis:
	default:
		return fmt.Errorf("unknown NONCE_BACKEND %q", c.Nonce.Backend)
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be an integer, got %q", key, valueStr)
	}
	return value, nil
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be a duration such as 5s, got %q", key, valueStr)
	}
	return value, nil
}
