package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=visionx port=5432 sslmode=disable"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logger   LoggerConfig
	Vision   VisionConfig
	Features FeatureConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	CORSOrigins     string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	LoginRPS        float64
	LoginBurst      int
	// EnforceRoles turns capability denials into 403 responses.
	// When false they are only logged.
	EnforceRoles bool
}

type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
}

type VisionConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type FeatureConfig struct {
	// AppointmentTransitions is "permissive" or "strict".
	AppointmentTransitions string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	cfg := &Config{
		Server: ServerConfig{
			AppEnv:          appEnv,
			HTTPPort:        getEnv("HTTP_PORT", "8080"),
			CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", defaultDSN),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectAttempts: getEnvInt("DATABASE_CONNECT_ATTEMPTS", 10),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			LoginRPS:        getEnvFloat("LOGIN_RATE_LIMIT_RPS", 5),
			LoginBurst:      getEnvInt("LOGIN_RATE_LIMIT_BURST", 10),
			EnforceRoles:    getEnvBool("ENFORCE_ROLES", false),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOGGER_LEVEL", "info"),
			Encoding:    getEnv("LOGGER_ENCODING", ""),
			Development: appEnv == "development",
		},
		Vision: VisionConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
			Timeout: getEnvDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Features: FeatureConfig{
			AppointmentTransitions: strings.ToLower(getEnv("APPOINTMENT_TRANSITIONS", "permissive")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem that should stop the server.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	switch c.Features.AppointmentTransitions {
	case "permissive", "strict":
	default:
		return fmt.Errorf("APPOINTMENT_TRANSITIONS must be permissive or strict, got %q", c.Features.AppointmentTransitions)
	}
	return nil
}

// UsesDefaultDSN is true when DATABASE_DSN was not set.
func (c *Config) UsesDefaultDSN() bool {
	return c.Database.DSN == defaultDSN
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
