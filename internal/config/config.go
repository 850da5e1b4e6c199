package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Session backends understood by the CLI and console.
const (
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Clinic backend
	APIBaseURL string
	// APITimeout of zero leaves the http.Client default (no deadline).
	APITimeout time.Duration

	// Session persistence
	SessionBackend   string
	SessionFile      string
	SessionKeyPrefix string
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool

	// Local console (clinicdesk serve)
	ConsoleAddr        string
	CORSAllowedOrigins []string
	// ConsoleRateLimit is requests per second per client; zero disables.
	ConsoleRateLimit float64
	ConsoleRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL: strings.TrimRight(getEnv("CLINIC_API_BASE_URL", "http://localhost:8000/api"), "/"),
		APITimeout: getEnvAsDuration("CLINIC_API_TIMEOUT", 0),

		SessionBackend:   strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", SessionBackendFile))),
		SessionFile:      getEnv("SESSION_FILE", defaultSessionFile()),
		SessionKeyPrefix: getEnv("SESSION_KEY_PREFIX", "clinicdesk:session"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),

		ConsoleAddr:        getEnv("CONSOLE_ADDR", "127.0.0.1:8088"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ConsoleRateLimit:   getEnvAsFloat("CONSOLE_RATE_LIMIT", 10),
		ConsoleRateBurst:   getEnvAsInt("CONSOLE_RATE_BURST", 20),
	}
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".clinicdesk-session.json"
	}
	return dir + string(os.PathSeparator) + "clinicdesk" + string(os.PathSeparator) + "session.json"
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
