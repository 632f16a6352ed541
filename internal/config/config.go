package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether document uploads can be stored.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != "" && m.Bucket != ""
}

// RedisConfig points at the cache and event channel. Either Addr or URL may be set.
type RedisConfig struct {
	Addr     string
	URL      string
	Password string
	DB       int
}

// Enabled reports whether a Redis server was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != "" || r.URL != ""
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

// LifecycleConfig tunes derived contract statuses.
type LifecycleConfig struct {
	RenewalWindowDays  int
	RefreshIntervalSec int
}

// RenewalWindow is the renewal window as a duration.
func (l LifecycleConfig) RenewalWindow() time.Duration {
	return time.Duration(l.RenewalWindowDays) * 24 * time.Hour
}

// RefreshInterval is zero when the background refresher is disabled.
func (l LifecycleConfig) RefreshInterval() time.Duration {
	if l.RefreshIntervalSec <= 0 {
		return 0
	}
	return time.Duration(l.RefreshIntervalSec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost          string
	Port             string
	Timezone         string
	LogLevel         string
	RepositoryDriver string
	Database         DatabaseConfig
	MinIO            MinIOConfig
	Redis            RedisConfig
	Auth             AuthConfig
	Lifecycle        LifecycleConfig
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:          getEnv("APP_HOST", "localhost:8080"),
		Port:             getEnv("PORT", "8080"),
		Timezone:         getEnv("APP_TIMEZONE", "UTC"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RepositoryDriver: strings.ToLower(getEnv("REPOSITORY_DRIVER", "postgres")),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", "crewops"),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Lifecycle: LifecycleConfig{
			RenewalWindowDays:  getEnvInt("RENEWAL_WINDOW_DAYS", 30),
			RefreshIntervalSec: getEnvInt("RENEWAL_REFRESH_INTERVAL_SEC", 0),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
