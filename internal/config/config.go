package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendPebble   = "pebble"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Carrier  CarrierConfig
	Store    StoreConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
	// WriteTimeout bounds a whole request, including a label purchase run.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10m"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" envDefault:"tcglabeler"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" envDefault:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey    string `env:"API_KEY"`
	JWTSecret string `env:"JWT_SECRET"`
}

// S3Config holds AWS S3 configuration for order exports.
type S3Config struct {
	Enabled bool   `env:"S3_ENABLED" envDefault:"false"`
	Bucket  string `env:"S3_BUCKET"`
	Region  string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix  string `env:"S3_PREFIX" envDefault:"exports/"`
	// LocalDir is where exports are read from when S3 is off or fails.
	LocalDir string `env:"EXPORT_DIR" envDefault:"./exports"`
}

// CarrierConfig holds the shipping API credentials, sender and rate preference.
type CarrierConfig struct {
	BaseURL                string        `env:"EASYPOST_BASE_URL" envDefault:"https://api.easypost.com/v2"`
	APIKey                 string        `env:"EASYPOST_API_KEY"`
	Timeout                time.Duration `env:"EASYPOST_TIMEOUT" envDefault:"30s"`
	PreferredCarrier       string        `env:"RATE_CARRIER" envDefault:"USPS"`
	PreferredService       string        `env:"RATE_SERVICE" envDefault:"First"`
	ServiceCaseInsensitive bool          `env:"RATE_SERVICE_CASE_INSENSITIVE" envDefault:"false"`

	SenderName    string `env:"SENDER_NAME" envDefault:"VaultTrove"`
	SenderStreet1 string `env:"SENDER_STREET1" envDefault:"123 Main St"`
	SenderStreet2 string `env:"SENDER_STREET2"`
	SenderCity    string `env:"SENDER_CITY" envDefault:"Sterling"`
	SenderState   string `env:"SENDER_STATE" envDefault:"VA"`
	SenderZip     string `env:"SENDER_ZIP" envDefault:"20164"`
	SenderCountry string `env:"SENDER_COUNTRY" envDefault:"US"`
}

// StoreConfig selects where batch and order records are kept.
type StoreConfig struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"postgres"`
	PebblePath string `env:"PEBBLE_PATH" envDefault:"./data/records"`
}

// RedisConfig configures the batch detail cache. An empty address disables it.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_BATCH_TTL" envDefault:"5m"`
}

// KafkaConfig configures label event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_LABEL_TOPIC" envDefault:"labels.events"`
	Buffer  int      `env:"KAFKA_BUFFER" envDefault:"256"`
}

// Load loads configuration from environment variables, reading a .env file
// in the working directory first when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case StoreBackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case StoreBackendPebble:
		if c.Store.PebblePath == "" {
			return fmt.Errorf("pebble path is required for the pebble store")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be postgres or pebble)", c.Store.Backend)
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Carrier.APIKey == "" {
		return fmt.Errorf("carrier API key is required")
	}

	if c.Carrier.SenderZip == "" || c.Carrier.SenderStreet1 == "" {
		return fmt.Errorf("sender street and zip are required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
