package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=shop port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	CORSOrigins string

	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StoreCacheTTL time.Duration

	LogLevel    string
	LogEncoding string

	DefaultStoreCode string
	DefaultLanguage  string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4200"),
		DatabaseDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:      getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           getEnvDuration("JWT_TTL", 24*time.Hour),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		StoreCacheTTL:    getEnvDuration("STORE_CACHE_TTL", 10*time.Minute),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogEncoding:      getEnv("LOG_ENCODING", "json"),
		DefaultStoreCode: getEnv("DEFAULT_STORE", "DEFAULT"),
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

// Warnings lists settings that still carry development defaults.
func (c *Config) Warnings() []string {
	var w []string
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		w = append(w, "DATABASE_DSN uses the default local value")
	}
	if c.CORSOrigins == "http://localhost:4200" {
		w = append(w, "CORS_ALLOWED_ORIGINS uses the default local value")
	}
	if c.RedisAddr == "" {
		w = append(w, "REDIS_ADDR is empty, store cache disabled")
	}
	return w
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

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
