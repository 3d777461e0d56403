// Package config provides configuration management for Kindred.
// It loads settings from environment variables with the KINDRED_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration settings for the Kindred application.
type Config struct {
	Server   ServerConfig
	Relay    RelayConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Chat     ChatConfig
	Security SecurityConfig
}

// ServerConfig contains HTTP API server configuration.
type ServerConfig struct {
	Host string // Server host (default: 127.0.0.1)
	Port int    // Server port (default: 5000)

	// CORSOrigins is the allow-list of origins for browser clients.
	CORSOrigins []string

	// PersonasPath points to an optional YAML file of persona presets
	// seeded into the companion store at startup.
	PersonasPath string
}

// RelayConfig contains media relay server configuration.
type RelayConfig struct {
	Host string // Relay host (default: 127.0.0.1)
	Port int    // Relay port (default: 5001)

	// CloudConsent gates media processing for non-local clients. When false,
	// connections from non-private peers are rejected and no handler that
	// could forward media off-host runs. Development-only safeguard; see the
	// startup warning when it is enabled.
	CloudConsent bool
}

// StorageConfig contains store engine configuration.
type StorageConfig struct {
	Engine      string // Storage engine: memory, sqlite, postgres (default: memory)
	DataPath    string // Path to data directory for sqlite (default: ./data)
	PostgresDSN string // PostgreSQL connection string for the postgres engine
}

// LLMConfig contains language-model endpoint configuration.
type LLMConfig struct {
	OllamaURL      string // Ollama API URL (default: http://localhost:11434)
	Model          string // Default model name (default: neural-chat)
	TimeoutSeconds int    // Per-call timeout; failures past it fall back (default: 30)
}

// ChatConfig contains conversation bookkeeping settings.
type ChatConfig struct {
	// HistoryLimit bounds each companion's conversation log; oldest turns
	// are evicted first (default: 50).
	HistoryLimit int

	// IntimacyStep is the fixed intimacy increment per chat turn,
	// clamped so intimacy never exceeds 1.0 (default: 0.01).
	IntimacyStep float64
}

// SecurityConfig contains auth-related settings.
type SecurityConfig struct {
	// SessionTTLHours is the lifetime of a login session (default: 168 = 7 days).
	SessionTTLHours int

	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the KINDRED_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("KINDRED_HOST", "127.0.0.1"),
			Port:         getEnvInt("KINDRED_PORT", 5000),
			CORSOrigins:  getEnvList("KINDRED_CORS_ORIGINS", []string{"http://localhost:5000", "http://127.0.0.1:5000"}),
			PersonasPath: getEnv("KINDRED_PERSONAS_PATH", ""),
		},
		Relay: RelayConfig{
			Host:         getEnv("KINDRED_RELAY_HOST", "127.0.0.1"),
			Port:         getEnvInt("KINDRED_RELAY_PORT", 5001),
			CloudConsent: getEnvBool("KINDRED_CLOUD_CONSENT", false),
		},
		Storage: StorageConfig{
			Engine:      getEnv("KINDRED_STORAGE_ENGINE", "memory"),
			DataPath:    getEnv("KINDRED_DATA_PATH", "./data"),
			PostgresDSN: getEnv("KINDRED_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			OllamaURL:      getEnv("KINDRED_OLLAMA_URL", "http://localhost:11434"),
			Model:          getEnv("KINDRED_OLLAMA_MODEL", "neural-chat"),
			TimeoutSeconds: getEnvInt("KINDRED_LLM_TIMEOUT_SECONDS", 30),
		},
		Chat: ChatConfig{
			HistoryLimit: getEnvInt("KINDRED_HISTORY_LIMIT", 50),
			IntimacyStep: getEnvFloat("KINDRED_INTIMACY_STEP", 0.01),
		},
		Security: SecurityConfig{
			SessionTTLHours: getEnvInt("KINDRED_SESSION_TTL_HOURS", 168),
			SecureCookies:   getEnvBool("KINDRED_SECURE_COOKIES", false),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. It recognizes "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable as a slice,
// trimming whitespace around each element.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
