package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// LLM configuration
	GeminiAPIKey      string
	GeminiModel       string
	LMStudioBaseURL   string
	LMStudioModel     string
	DiscordWebhookURL string

	// Pipeline configuration
	InputFile         string
	PacingDelay       time.Duration
	NavigationTimeout time.Duration
	BrowserEnabled    bool
	BrowserBin        string
	ScheduleCron      string
	RateLimitBlock    time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Meilisearch configuration
	MeiliSearchHost string
	MeiliMasterKey  string

	// HTTP API configuration
	Port           string
	AllowedOrigins []string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		LMStudioBaseURL:   strings.TrimRight(os.Getenv("LM_STUDIO_BASE_URL"), "/"),
		LMStudioModel:     getEnv("LM_STUDIO_MODEL", "local-model"),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

		InputFile:         getEnv("INPUT_FILE", "data/urls.txt"),
		PacingDelay:       time.Duration(getEnvInt("PACING_DELAY_SECONDS", 20)) * time.Second,
		NavigationTimeout: time.Duration(getEnvInt("NAV_TIMEOUT_SECONDS", 60)) * time.Second,
		BrowserEnabled:    getEnvBool("BROWSER_ENABLED", true),
		BrowserBin:        os.Getenv("BROWSER_BIN"),
		ScheduleCron:      getEnv("SCHEDULE_CRON", "0 6 * * *"),
		RateLimitBlock:    time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 600)) * time.Second,

		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "learningfield:posts"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		MemcacheAddr: os.Getenv("MEMCACHE_ADDR"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Environment: getEnv("LEARNINGFIELD_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return apperrors.NewConfiguration("DATABASE_URL is required", nil)
	}
	if c.NavigationTimeout <= 0 {
		return apperrors.NewConfiguration("NAV_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.PacingDelay < 0 {
		return apperrors.NewConfiguration("PACING_DELAY_SECONDS must not be negative", nil)
	}
	if c.RedisStreamCount < 1 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	if _, err := cron.ParseStandard(c.ScheduleCron); err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("invalid SCHEDULE_CRON %q", c.ScheduleCron), err)
	}
	return nil
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
