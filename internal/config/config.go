package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// LLM providers accepted in LLM_PROVIDER.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Storage backends accepted in STORAGE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the configuration for the application.
type Config struct {
	DataDir        string `validate:"required"`
	StorageBackend string `validate:"oneof=file sqlite"`
	DatabasePath   string `validate:"required"`
	Port           string `validate:"required,numeric"`

	LLMProvider  string `validate:"oneof=groq openai gemini"`
	GroqAPIKey   string
	OpenAIAPIKey string
	GeminiAPIKey string

	ExtractionTimeout   time.Duration `validate:"gt=0"`
	ExtractionCacheSize int           `validate:"min=1"`
	ExtractionCacheTTL  time.Duration `validate:"gt=0"`

	// PlanSeed fixes plan randomness when set.
	PlanSeed *uint64

	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=json text"`

	// Telegram Config (optional for the CLI, required for the bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// NewFromEnv creates a new Config object from environment variables. A .env
// file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")
	cfg := &Config{
		DataDir:        dataDir,
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		DatabasePath:   getEnv("DATABASE_PATH", dataDir+"/meal-planner.db"),
		Port:           getEnv("PORT", "8080"),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq)),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	var err error
	if cfg.ExtractionTimeout, err = getDuration("EXTRACTION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExtractionCacheTTL, err = getDuration("EXTRACTION_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExtractionCacheSize, err = getInt("EXTRACTION_CACHE_SIZE", 128); err != nil {
		return nil, err
	}

	if raw := os.Getenv("PLAN_SEED"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PLAN_SEED %q: %w", raw, err)
		}
		cfg.PlanSeed = &seed
	}

	if raw := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LLMAPIKey returns the API key of the configured provider.
func (c *Config) LLMAPIKey() (string, error) {
	var name, key string
	switch c.LLMProvider {
	case ProviderOpenAI:
		name, key = "OPENAI_API_KEY", c.OpenAIAPIKey
	case ProviderGemini:
		name, key = "GEMINI_API_KEY", c.GeminiAPIKey
	default:
		name, key = "GROQ_API_KEY", c.GroqAPIKey
	}
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", name)
	}
	return key, nil
}

// RequireTelegram checks the settings the bot cannot run without.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

var validate = validator.New()

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
