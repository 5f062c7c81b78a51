package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// LLMConfig groups the hosted completion API settings.
type LLMConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	GatewayAudience string
	PricingFile     string
}

// ArchiveConfig points CSV export archiving at an S3 compatible bucket.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a bucket is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL         string
	JWTSecret           string
	Port                string
	TokenTTL            time.Duration
	AuthRequired        bool
	LLM                 LLMConfig
	AIRateLimit         RateLimitConfig
	AIMaxRequestsPerDay int
	PhoneRegion         string
	CheckEmailMX        bool
	RedisURL            string
	Archive             ArchiveConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret"),
		Port:         getEnv("PORT", "8080"),
		TokenTTL:     parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		AuthRequired: parseBool(getEnv("AUTH_REQUIRED", "true"), true),
		PhoneRegion:  strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		CheckEmailMX: parseBool(getEnv("IMPORT_CHECK_MX", "false"), false),
		RedisURL:     os.Getenv("REDIS_URL"),
		Archive: ArchiveConfig{
			Bucket:          os.Getenv("EXPORT_S3_BUCKET"),
			Region:          getEnv("EXPORT_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("EXPORT_S3_ENDPOINT"),
			Prefix:          getEnv("EXPORT_S3_PREFIX", "exports/"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		LLM: LLMConfig{
			APIKey:          os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:         getEnv("LLM_BASE_URL", "https://api.anthropic.com/v1/messages"),
			Model:           getEnv("LLM_MODEL", "claude-sonnet-4-20250514"),
			Timeout:         parseDuration(getEnv("LLM_TIMEOUT", "60s"), 60*time.Second),
			GatewayAudience: os.Getenv("LLM_GATEWAY_AUDIENCE"),
			PricingFile:     os.Getenv("AI_PRICING_FILE"),
		},
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.7"), 64)
	if err != nil || temperature < 0 || temperature > 1 {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE value: %q", os.Getenv("LLM_TEMPERATURE"))
	}
	cfg.LLM.Temperature = temperature

	maxTokens, err := strconv.Atoi(getEnv("LLM_MAX_TOKENS", "1500"))
	if err != nil || maxTokens <= 0 {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS value: %q", os.Getenv("LLM_MAX_TOKENS"))
	}
	cfg.LLM.MaxTokens = maxTokens

	perDay, err := strconv.Atoi(getEnv("AI_MAX_REQUESTS_PER_DAY", "100"))
	if err != nil || perDay < 0 {
		return nil, fmt.Errorf("invalid AI_MAX_REQUESTS_PER_DAY value: %q", os.Getenv("AI_MAX_REQUESTS_PER_DAY"))
	}
	cfg.AIMaxRequestsPerDay = perDay

	rl, err := parseRateLimit(getEnv("AI_RATE_LIMIT", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid AI_RATE_LIMIT value: %w", err)
	}
	cfg.AIRateLimit = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseBool(input string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return b
}
