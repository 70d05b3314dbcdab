package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, populated from the environment
// with an optional .env file for local development.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	OEE    OEEConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type OEEConfig struct {
	// ExpectedHourlySales is the sales velocity that counts as 100%
	// performance.
	ExpectedHourlySales int64

	// Quality is the default fixed quality input, clamped to [80,100].
	Quality float64

	// ScoreCacheTTL bounds how stale a cached efficiency score may be.
	ScoreCacheTTL time.Duration

	// SalesRetention is the lifetime of each hourly sales bucket.
	SalesRetention time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 100),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 10),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		OEE: OEEConfig{
			ExpectedHourlySales: int64(getEnvAsInt("OEE_EXPECTED_HOURLY_SALES", 5)),
			Quality:             getEnvAsFloat("OEE_QUALITY", 95),
			ScoreCacheTTL:       getEnvAsDuration("OEE_SCORE_CACHE_TTL", time.Minute),
			SalesRetention:      getEnvAsDuration("SALES_RETENTION", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid server port %q", cfg.Server.Port)
	}
	if cfg.OEE.ExpectedHourlySales <= 0 {
		return nil, fmt.Errorf("OEE_EXPECTED_HOURLY_SALES must be positive, got %d", cfg.OEE.ExpectedHourlySales)
	}

	return cfg, nil
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
