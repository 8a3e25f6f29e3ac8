package confs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Store           string // postgres | memory
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// DSN returns the PostgreSQL connection string. DB_URL wins over the
// individual parameters.
func (c *DBConfig) DSN() (string, error) {
	if c.URL != "" {
		dsn := c.URL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn, nil
	}

	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
		if c.Host == "localhost" || c.Host == "127.0.0.1" {
			sslMode = "disable"
		}
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, sslMode), nil
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type JWTConfig struct {
	SigningKey string
	TTL        time.Duration
}

type LogConfig struct {
	Level string
}

type PricingConfig struct {
	UnitPrice float64
}

type CatalogConfig struct {
	Path string // empty means the embedded catalog
}

type MeterConfig struct {
	Enabled  bool
	Schedule string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	RedisURL          string
	Window            time.Duration
}

type AlertConfig struct {
	Cooldown time.Duration
}

// Config holds all configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	Log         LogConfig
	Pricing     PricingConfig
	Catalog     CatalogConfig
	Meter       MeterConfig
	RateLimit   RateLimitConfig
	Alerts      AlertConfig
}

// LoadConfig loads environment variables from a .env file if present
// and builds the typed configuration.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the configuration without touching .env files.
func FromEnv() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "energy-server"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "3536"),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		DB: DBConfig{
			Store:           getEnv("STORE", "postgres"),
			URL:             getEnv("DB_URL", ""),
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", ""),
			SSLMode:         getEnv("DB_SSL_MODE", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", ""),
			TTL:        getEnvAsDuration("JWT_TTL", time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Pricing: PricingConfig{
			UnitPrice: getEnvAsFloat("UNIT_PRICE", 0.15),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		Meter: MeterConfig{
			Enabled:  getEnvAsBool("METER_ENABLED", true),
			Schedule: getEnv("METER_SCHEDULE", "@every 15m"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
			RedisURL:          getEnv("RATE_LIMIT_REDIS_URL", ""),
			Window:            getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Alerts: AlertConfig{
			Cooldown: getEnvAsDuration("ALERT_COOLDOWN", 6*time.Hour),
		},
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.SigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.DB.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE %q (want postgres or memory)", c.DB.Store)
	}
	if c.Pricing.UnitPrice < 0 {
		return errors.New("UNIT_PRICE must not be negative")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return errors.New("RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// LogFields returns the non-secret parts of the configuration for startup logging.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store", c.DB.Store),
		zap.String("db_host", c.DB.Host),
		zap.Bool("meter_enabled", c.Meter.Enabled),
		zap.String("meter_schedule", c.Meter.Schedule),
		zap.Duration("jwt_ttl", c.JWT.TTL),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
