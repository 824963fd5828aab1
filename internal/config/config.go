package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Lead intake
	LeadWebhookURL     string
	TelegramBotToken   string
	TelegramChatID     string
	TelegramAPIBase    string
	TurnstileSecret    string
	TurnstileVerifyURL string

	// Rate limiting for lead submissions
	RateLimitWindow time.Duration
	RateLimitMax    int
	RedisAddr       string
	RedisPassword   string

	// Articles storage
	AdminPanelToken  string
	AdminJWTSecret   string
	ArticlesFilePath string
	GitHubRepo       string
	GitHubToken      string
	GitHubBranch     string

	// HTTP
	OutboundTimeout    time.Duration
	CORSAllowedOrigins []string
}

// HasTelegram reports whether a Telegram destination is fully configured.
// The bot token and chat id are only useful as a pair.
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LeadWebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
		TelegramBotToken:   getEnv("TG_BOT_TOKEN", ""),
		TelegramChatID:     getEnv("TG_CHAT_ID", ""),
		TelegramAPIBase:    getEnv("TG_API_BASE", "https://api.telegram.org"),
		TurnstileSecret:    getEnv("TURNSTILE_SECRET_KEY", ""),
		TurnstileVerifyURL: getEnv("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),

		RateLimitWindow: getEnvAsDuration("LEAD_RATE_WINDOW", time.Minute),
		RateLimitMax:    getEnvAsInt("LEAD_RATE_MAX", 5),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),

		AdminPanelToken:  getEnv("ADMIN_PANEL_TOKEN", ""),
		AdminJWTSecret:   getEnv("ADMIN_JWT_SECRET", ""),
		ArticlesFilePath: getEnv("ARTICLES_FILE", "public/content/articles.json"),
		GitHubRepo:       getEnv("GITHUB_REPO", ""),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		GitHubBranch:     getEnv("GITHUB_BRANCH", "main"),

		OutboundTimeout:    getEnvAsDuration("OUTBOUND_HTTP_TIMEOUT", 5*time.Second),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping blanks.
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
