package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Storage  StorageConfig
	Client   ClientConfig
}

type DatabaseConfig struct {
	Driver string

	// MongoDB
	MongoURI  string
	MongoName string

	// PostgreSQL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration. An empty secret disables authentication.
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type StorageConfig struct {
	BasePath string
	BaseURL  string
}

// ClientConfig configures the teacher-side attendance pipeline.
type ClientConfig struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	SuccessDisplay   time.Duration
	ClassCatalogPath string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment only")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:    strings.ToLower(getEnv("DB_DRIVER", DriverMongoDB)),
		MongoURI:  getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoName: getEnv("MONGODB_NAME", "school"),
		Host:      getEnv("DB_HOST", "localhost"),
		Port:      dbPort,
		User:      getEnv("DB_USER", "postgres"),
		Password:  getEnv("DB_PASSWORD", ""),
		Name:      getEnv("DB_NAME", "school"),
		SSLMode:   getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./templates"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "file://templates"),
	}

	// Attendance client configuration
	timeout, err := time.ParseDuration(getEnv("CLIENT_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLIENT_TIMEOUT: %w", err)
	}
	successDisplay, err := time.ParseDuration(getEnv("CLIENT_SUCCESS_DISPLAY", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLIENT_SUCCESS_DISPLAY: %w", err)
	}

	config.Client = ClientConfig{
		BaseURL:          strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		Token:            getEnv("API_TOKEN", ""),
		Timeout:          timeout,
		SuccessDisplay:   successDisplay,
		ClassCatalogPath: getEnv("CLASS_CATALOG_PATH", ""),
	}

	return config, nil
}

// ValidateServer validates the configuration needed by the API server
func (c *Config) ValidateServer() error {
	switch c.Database.Driver {
	case DriverMongoDB:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
		if c.Database.MongoName == "" {
			return fmt.Errorf("MONGODB_NAME is required")
		}
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
	}

	if c.JWT.Secret != "" {
		if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
			return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
		}
	}
	return nil
}

// ValidateClient validates the configuration needed by the attendance CLI
func (c *Config) ValidateClient() error {
	if c.Client.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("CLIENT_TIMEOUT must be positive")
	}
	if c.Client.SuccessDisplay < 0 {
		return fmt.Errorf("CLIENT_SUCCESS_DISPLAY must not be negative")
	}
	return nil
}

// AuthEnabled reports whether teacher routes require a bearer token
func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
