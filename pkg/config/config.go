package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, empty URL keeps runs in memory)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Simulation defaults
	Simulation SimulationConfig

	// API
	API APIConfig

	// Scheduler
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SimulationConfig holds the defaults used when a run does not override them
type SimulationConfig struct {
	Agents  int
	Stocks  int
	Days    int
	Seed    int64 // 0 = time seeded
	DataDir string
}

// APIConfig holds HTTP API limits
type APIConfig struct {
	RateLimit float64 // requests per second, 0 disables
	RateBurst int
}

// ScheduleConfig holds the periodic run settings
type ScheduleConfig struct {
	Cron     string
	Scenario string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("CACHE_TTL", "10m"),
		},

		Simulation: SimulationConfig{
			Agents:  getEnvAsInt("SIM_AGENTS", 5),
			Stocks:  getEnvAsInt("SIM_STOCKS", 10),
			Days:    getEnvAsInt("SIM_DAYS", 50),
			Seed:    getEnvAsInt64("SIM_SEED", 0),
			DataDir: getEnv("SIM_DATA_DIR", ""),
		},

		API: APIConfig{
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 10),
			RateBurst: getEnvAsInt("API_RATE_BURST", 20),
		},

		Schedule: ScheduleConfig{
			Cron:     getEnv("SCHEDULE_CRON", "0 * * * *"),
			Scenario: getEnv("SCHEDULE_SCENARIO", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks value ranges. Simulation bounds are checked again per run.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Simulation.Agents <= 0 || c.Simulation.Stocks <= 0 || c.Simulation.Days <= 0 {
		return fmt.Errorf("SIM_AGENTS, SIM_STOCKS and SIM_DAYS must be positive")
	}

	if c.API.RateLimit < 0 || c.API.RateBurst < 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must not be negative")
	}

	return nil
}

// HasDatabase reports whether a Postgres run store is configured
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
