package config

import (
	"log"
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
	CORSAllowOrigin []string
	DatabaseURL     string

	OllamaHost     string
	OllamaModel    string
	MaxRetries     int
	RequestTimeout time.Duration
	Temperature    float64
	MaxTokens      int

	CacheDir           string
	CacheMemoryEntries int
	CacheDiskMaxBytes  int64
	CacheDiskMaxAge    time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults. Runs with no database configured; persistence then stays
// in-memory.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is not set; analyses and scores will not survive restarts")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,

		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "mistral"),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		Temperature:    getEnvFloat("TEMPERATURE", 0.2),
		MaxTokens:      getEnvInt("MAX_TOKENS", 1024),

		CacheDir:           getEnv("CACHE_DIR", "./data/cache"),
		CacheMemoryEntries: getEnvInt("CACHE_MEMORY_ENTRIES", 256),
		CacheDiskMaxBytes:  int64(getEnvInt("CACHE_DISK_MAX_MB", 256)) << 20,
		CacheDiskMaxAge:    time.Duration(getEnvInt("CACHE_DISK_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %g", key, raw, def)
		return def
	}
	return f
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
