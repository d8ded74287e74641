package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogFile         string
	LogLevel        string
	CORSAllowOrigin []string

	GroqAPIKey  string
	GroqModel   string
	GroqTimeout time.Duration

	AnalyzeMaxAttempts  int
	AnalyzeRetryBackoff time.Duration

	ChartOutputDir string

	ResendAPIKey string
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	RedisURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		LogFile:         getEnv("LOG_FILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqTimeout: time.Duration(getEnvInt("GROQ_TIMEOUT_SECONDS", 120)) * time.Second,

		AnalyzeMaxAttempts:  getEnvInt("ANALYZE_MAX_ATTEMPTS", 3),
		AnalyzeRetryBackoff: time.Duration(getEnvInt("ANALYZE_RETRY_BACKOFF_MS", 300)) * time.Millisecond,

		ChartOutputDir: getEnv("CHART_OUTPUT_DIR", "./visualizations"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "audit-reports@localhost"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		RedisURL: getEnv("REDIS_URL", ""),
	}
}

// MailConfigured reports whether any mail transport credential is present.
func (c Config) MailConfigured() bool {
	return c.ResendAPIKey != "" || (c.SMTPHost != "" && c.SMTPUsername != "")
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
