package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string

	// Platform LLM credentials (shared keys)
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	// Search provider credentials
	TavilyAPIKey          string
	BraveAPIKey           string
	SerperAPIKey          string
	DefaultSearchProvider string

	// Secret used to encrypt user-supplied API keys at rest
	EncryptionSecret string

	// Platform-key rate limiting (requests per minute per user)
	PlatformRequestsPerMinute int

	// Optional file logging (empty dir disables it)
	LogDir      string
	LogMaxFiles int

	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),

		TavilyAPIKey:          getEnv("TAVILY_API_KEY", ""),
		BraveAPIKey:           getEnv("BRAVE_API_KEY", ""),
		SerperAPIKey:          getEnv("SERPER_API_KEY", ""),
		DefaultSearchProvider: getEnv("DEFAULT_SEARCH_PROVIDER", "tavily"),

		EncryptionSecret: getEnv("API_KEY_ENCRYPTION_SECRET", ""),

		PlatformRequestsPerMinute: getEnvInt("PLATFORM_REQUESTS_PER_MINUTE", 20),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 5),

		// Debug defaults to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
