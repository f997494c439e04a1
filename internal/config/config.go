package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the API server and the seed tool
type Config struct {
	// HTTP
	Port           string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	StaticDir      string

	// Stores
	SQLitePath   string
	DatabaseURL  string
	RedisURL     string
	CacheTTL     time.Duration
	StoreTimeout time.Duration

	// Aggregation
	Timezone     string
	Location     *time.Location
	TieBreakSeed uint64
	SampleSeed   uint64

	// Retention
	RetentionDays int

	// Logging
	LogLevel  string
	LogFormat string

	// Endpoint cache policies
	PolicyFile string
}

// LoadEnvFiles loads base first, then overrides from each local file.
// Missing files are ignored.
func LoadEnvFiles(base string, overrides ...string) {
	_ = godotenv.Load(base)
	for _, f := range overrides {
		_ = godotenv.Overload(f)
	}
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 100),
		StaticDir:      getEnv("STATIC_DIR", ""),

		SQLitePath:   getEnv("SQLITE_DATABASE", "data/status.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
		CacheTTL:     getEnvDuration("CACHE_TTL", 24*time.Hour),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		Timezone:     getEnv("TIMEZONE", "Asia/Seoul"),
		TieBreakSeed: getEnvUint("TIE_BREAK_SEED", 0),
		SampleSeed:   getEnvUint("SAMPLE_SEED", 20251003),

		RetentionDays: getEnvInt("RETENTION_DAYS", 90),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		PolicyFile: getEnv("POLICY_FILE", ""),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("RETENTION_DAYS must be at least 1")
	}

	return cfg, nil
}

// Retention returns the retention window as a duration
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
