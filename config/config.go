package config

import (
	"os"
	"strconv"
)

// Default configuration values
const (
	DefaultAPIURL   = "http://localhost:8000"
	DefaultProvider = "OpenRouter"
	DefaultModel    = "google/gemini-2.0-flash-exp:free"
)

// Config is the client application's configuration, resolved from the
// environment once at startup and passed explicitly from then on.
type Config struct {
	APIURL      string
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	DraftCount  int
	SelfCorrect bool
	Enrich      bool
}

// FromEnv builds the configuration from environment variables, applying
// defaults for anything unset. Call godotenv.Load first in main.
func FromEnv() Config {
	return Config{
		APIURL:      getEnv("PUSTAKA_API_URL", DefaultAPIURL),
		Provider:    getEnv("PUSTAKA_PROVIDER", DefaultProvider),
		Model:       getEnv("PUSTAKA_MODEL", DefaultModel),
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		BaseURL:     os.Getenv("PUSTAKA_BASE_URL"),
		DraftCount:  getEnvInt("PUSTAKA_DRAFT_COUNT", 1),
		SelfCorrect: getEnvBool("PUSTAKA_SELF_CORRECT"),
		Enrich:      getEnvBool("PUSTAKA_ENRICH"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && val
}
