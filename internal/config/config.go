package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the environment
// with an optional .env file for local development.
type Config struct {
	Port        string
	Environment string

	DatabaseURL string
	SessionTTL  time.Duration

	OpenAIAPIKey string
	OpenAIModel  string
	LLMTimeout   time.Duration
	LLMRetries   int
	LLMBackoff   time.Duration

	TurnCap             int
	CompletionThreshold float64
}

// Load reads configuration. A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SessionTTL:  getDurationEnv("SESSION_TTL", 24*time.Hour),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LLMTimeout:   getDurationEnv("LLM_TIMEOUT", 20*time.Second),
		LLMRetries:   getIntEnv("LLM_RETRIES", 3),
		LLMBackoff:   getDurationEnv("LLM_BACKOFF", 500*time.Millisecond),

		TurnCap:             getIntEnv("TURN_CAP", 50),
		CompletionThreshold: getFloatEnv("COMPLETION_THRESHOLD", 0.60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
