package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv  string
	Service string

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	CORSAllowOrigins []string

	StorageDriver string
	DatabaseURL   string
	SQLitePath    string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SessionCacheTTL time.Duration
	SessionTTL      time.Duration

	NATSURL         string
	NATSConnTimeout time.Duration

	NotificationBuffer int

	GeminiAPIKey string
	GeminiModel  string

	OTelCollectorURL string
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	config := &Config{
		AppEnv:  getEnvString("APP_ENV", "production"),
		Service: getEnvString("SERVICE_NAME", "job-application-tracker"),

		HTTPAddr:         getEnvString("HTTP_ADDR", ":8080"),
		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		CORSAllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),

		StorageDriver: strings.ToLower(getEnvString("STORAGE_DRIVER", DriverPostgres)),
		DatabaseURL:   getEnvString("DATABASE_URL", "host=localhost user=postgres password=password dbname=jobtracker port=5432 sslmode=disable"),
		SQLitePath:    getEnvString("SQLITE_PATH", "tracker.db"),

		RedisAddr:       getEnvString("REDIS_ADDR", ""),
		RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		SessionCacheTTL: getEnvDuration("SESSION_CACHE_TTL", 5*time.Minute),
		SessionTTL:      getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		NotificationBuffer: getEnvInt("NOTIFICATION_BUFFER", 20),

		GeminiAPIKey: getEnvString("GEMINI_API_KEY", ""),
		GeminiModel:  getEnvString("GEMINI_MODEL", "gemini-2.5-flash"),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
