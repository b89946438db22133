// Package config handles loading and validating configuration from
// environment variables. A local .env file is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the LOGODETH recognition gateway.
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Administrative endpoints (cache clearing/stats). Empty = disabled.
	AdminAPIKey string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string
	CacheTTL      int // seconds

	// Throttling and budgets
	RateLimitPerMinute int
	DailyBudgetUSD     float64
	MonthlyBudgetUSD   float64

	// Upload validation
	MaxFileSize       int64
	AllowedExtensions []string

	// CORS
	CORSOrigins []string

	// OpenAI / OpenAI-compatible provider
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string
	UseOpenRouter     bool
	OpenRouterSiteURL string
	OpenRouterAppName string

	// Anthropic provider
	AnthropicKey     string
	AnthropicBaseURL string
	AnthropicModel   string

	// Shared provider tuning
	MaxTokens   int
	Temperature float64
	AITimeout   int // seconds
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("LOGODETH_PORT", "8000"),
		Environment: getEnv("LOGODETH_ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOGODETH_LOG_LEVEL", "info"),

		AdminAPIKey: os.Getenv("LOGODETH_ADMIN_API_KEY"),

		RedisHost:     getEnv("LOGODETH_REDIS_HOST", "localhost"),
		RedisPassword: os.Getenv("LOGODETH_REDIS_PASSWORD"),

		OpenAIKey:         os.Getenv("LOGODETH_OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("LOGODETH_OPENAI_BASE_URL"),
		OpenAIModel:       getEnv("LOGODETH_OPENAI_MODEL", "gpt-4o"),
		OpenRouterSiteURL: os.Getenv("LOGODETH_OPENROUTER_SITE_URL"),
		OpenRouterAppName: getEnv("LOGODETH_OPENROUTER_APP_NAME", "LOGODETH"),

		AnthropicKey:     os.Getenv("LOGODETH_ANTHROPIC_API_KEY"),
		AnthropicBaseURL: os.Getenv("LOGODETH_ANTHROPIC_BASE_URL"),
		AnthropicModel:   getEnv("LOGODETH_ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),

		AllowedExtensions: splitList(getEnv("LOGODETH_ALLOWED_EXTENSIONS", ".jpg,.jpeg,.png,.gif,.webp")),
		CORSOrigins: splitList(getEnv("LOGODETH_CORS_ORIGINS",
			"http://localhost:8000,http://localhost:3000,http://127.0.0.1:8000")),
	}

	cfg.UseOpenRouter = getEnv("LOGODETH_USE_OPENROUTER", "false") == "true"

	var err error
	if cfg.RedisPort, err = intEnv("LOGODETH_REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = intEnv("LOGODETH_CACHE_TTL", 86400); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = intEnv("LOGODETH_API_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = intEnv("LOGODETH_MAX_TOKENS", 300); err != nil {
		return nil, err
	}
	if cfg.AITimeout, err = intEnv("LOGODETH_AI_TIMEOUT", 60); err != nil {
		return nil, err
	}

	maxFileSize, err := intEnv("LOGODETH_MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = int64(maxFileSize)

	if cfg.DailyBudgetUSD, err = floatEnv("LOGODETH_DAILY_BUDGET_USD", 10.0); err != nil {
		return nil, err
	}
	if cfg.MonthlyBudgetUSD, err = floatEnv("LOGODETH_MONTHLY_BUDGET_USD", 100.0); err != nil {
		return nil, err
	}
	if cfg.Temperature, err = floatEnv("LOGODETH_TEMPERATURE", 0.1); err != nil {
		return nil, err
	}

	if cfg.RateLimitPerMinute < 1 {
		return nil, fmt.Errorf("config: LOGODETH_API_RATE_LIMIT must be at least 1")
	}
	if cfg.CacheTTL < 60 {
		return nil, fmt.Errorf("config: LOGODETH_CACHE_TTL must be at least 60 seconds")
	}

	return cfg, nil
}

// RedisAddr returns the Redis address in host:port format.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// AITimeoutDuration returns the provider call timeout as a duration.
func (c *Config) AITimeoutDuration() time.Duration {
	return time.Duration(c.AITimeout) * time.Second
}

// IsProduction reports whether the gateway runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
