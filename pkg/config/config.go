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

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Financial data provider
	FMP FMPConfig

	// Analysis runtime defaults
	Analysis AnalysisConfig

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

	// KeyPrefix namespaces cache and rate-limit keys (REDIS_KEY_PREFIX)
	KeyPrefix string
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

// FMPConfig holds Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey     string
	BaseURL    string
	RateLimit  int // requests per second
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

// AnalysisConfig holds runtime limits for comparative runs
// Per-profile tuning (weights, thresholds) lives in the YAML analysis profile.
type AnalysisConfig struct {
	ProfilePath    string        // YAML analysis profile, empty = built-in defaults
	MaxPeers       int           // MAX_PEERS_PER_ANALYSIS
	ParallelLimit  int           // PARALLEL_COMPANY_LIMIT
	TaskTimeout    time.Duration // per-company collection timeout
	ReportTimeout  time.Duration // whole-run timeout
	PersistReports bool
	RetentionDays  int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),

			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "peergap"),
		},

		// Financial data provider
		FMP: FMPConfig{
			APIKey:     getEnv("FMP_API_KEY", ""),
			BaseURL:    getEnv("FMP_BASE_URL", "https://financialmodelingprep.com"),
			RateLimit:  getEnvAsInt("FMP_RATE_LIMIT", 5),
			Timeout:    getEnvAsDuration("FMP_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("FMP_MAX_RETRIES", 3),
			CacheTTL:   getEnvAsDuration("FMP_CACHE_TTL", "6h"),
		},

		// Analysis
		Analysis: AnalysisConfig{
			ProfilePath:    getEnv("ANALYSIS_PROFILE", ""),
			MaxPeers:       getEnvAsInt("MAX_PEERS_PER_ANALYSIS", 5),
			ParallelLimit:  getEnvAsInt("PARALLEL_COMPANY_LIMIT", 6),
			TaskTimeout:    getEnvAsDuration("COMPANY_TASK_TIMEOUT", "120s"),
			ReportTimeout:  getEnvAsDuration("REPORT_TIMEOUT", "600s"),
			PersistReports: getEnvAsBool("PERSIST_REPORTS", false),
			RetentionDays:  getEnvAsInt("REPORT_RETENTION_DAYS", 90),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.PersistReports && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when PERSIST_REPORTS=true")
	}

	if c.Analysis.MaxPeers < 1 {
		return fmt.Errorf("MAX_PEERS_PER_ANALYSIS must be >= 1")
	}
	if c.Analysis.ParallelLimit < 1 {
		return fmt.Errorf("PARALLEL_COMPANY_LIMIT must be >= 1")
	}
	if c.Analysis.TaskTimeout <= 0 || c.Analysis.ReportTimeout <= 0 {
		return fmt.Errorf("COMPANY_TASK_TIMEOUT and REPORT_TIMEOUT must be > 0")
	}
	if c.FMP.RateLimit < 1 {
		return fmt.Errorf("FMP_RATE_LIMIT must be >= 1")
	}

	return nil
}

// RequireFMP checks provider credentials for commands that call the provider
func (c *Config) RequireFMP() error {
	if c.FMP.APIKey == "" {
		return fmt.Errorf("FMP_API_KEY is required")
	}
	return nil
}

// RequireDatabase checks database settings for commands that need storage
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	// Also try relative to executable
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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
