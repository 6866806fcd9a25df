// Package config loads process configuration from environment variables and
// sets up logging.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// LLM providers.
const (
	ProviderOllama          = "ollama"
	ProviderLangchainOllama = "langchain-ollama"
	ProviderOpenAI          = "openai"
	ProviderAnthropic       = "anthropic"
	ProviderBedrock         = "bedrock"
)

// Storage drivers.
const (
	StorageSQLite    = "sqlite"
	StorageSurrealDB = "surrealdb"
)

// DefaultLLMTimeout bounds a single generation call.
const DefaultLLMTimeout = 10 * time.Second

// Config holds all configuration values.
type Config struct {
	// HTTP server
	Port      string
	ServerURL string

	// Generation backend
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	LLMTimeout      time.Duration
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// Durable memory
	Storage        string
	MemoryBankPath string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Narrator
	ConfigDir     string
	FallbacksFile string
	SessionLogDir string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Port:      getEnv("DM_SERVER_PORT", getEnv("PORT", "3001")),
		ServerURL: getEnv("DM_SERVER_URL", "http://localhost:3001"),

		LLMProvider:     strings.ToLower(getEnv("DM_LLM_PROVIDER", ProviderOllama)),
		LLMModel:        getEnv("OLLAMA_MODEL", "llama3"),
		OllamaHost:      getEnv("OLLAMA_URL", getEnv("OLLAMA_HOST", "http://localhost:11434")),
		LLMTimeout:      parseDuration(getEnv("DM_LLM_TIMEOUT", ""), DefaultLLMTimeout),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		Storage:        strings.ToLower(getEnv("DM_STORAGE", StorageSQLite)),
		MemoryBankPath: getEnv("MEMORY_BANK_PATH", "./memory-bank"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "brogue"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "dm"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		ConfigDir:     getEnv("DM_CONFIG_DIR", "./config"),
		FallbacksFile: getEnv("DM_FALLBACKS_FILE", ""),
		SessionLogDir: getEnv("DM_SESSION_LOG_DIR", "./playtest/logs"),

		LogFile:  getEnv("DM_LOG_FILE", "/tmp/brogue-dm.log"),
		LogLevel: parseLogLevel(getEnv("DM_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration accepts Go durations ("10s") or plain milliseconds ("10000").
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	var ms int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		ms = ms*10 + int64(r-'0')
	}
	if ms == 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
