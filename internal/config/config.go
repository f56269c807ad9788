package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotToken     string
	AdminID      int64
	DatabasePath string
	HTTPPort     string

	RequestTimeout time.Duration

	YandexGPT YandexGPTConfig
	YooKassa  YooKassaConfig
}

// YandexGPTConfig holds generation provider credentials.
// Generation is the product, so these are mandatory.
type YandexGPTConfig struct {
	APIKey   string
	FolderID string
}

// YooKassaConfig holds the card payment provider credentials.
// Optional: with no credentials the card payment feature is disabled.
type YooKassaConfig struct {
	ShopID        string
	SecretKey     string
	WebhookSecret string
}

// Enabled reports whether card payments are configured
func (c YooKassaConfig) Enabled() bool {
	return c.ShopID != "" && c.SecretKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DatabasePath: getEnv("DATABASE_PATH", "contentgpt.db"),
		HTTPPort:     getEnv("HTTP_PORT", "10000"),
		YandexGPT: YandexGPTConfig{
			APIKey:   os.Getenv("YANDEX_GPT_API_KEY"),
			FolderID: os.Getenv("YANDEX_GPT_FOLDER_ID"),
		},
		YooKassa: YooKassaConfig{
			ShopID:        os.Getenv("YOOKASSA_SHOP_ID"),
			SecretKey:     os.Getenv("YOOKASSA_SECRET_KEY"),
			WebhookSecret: os.Getenv("YOOKASSA_WEBHOOK_SECRET"),
		},
	}

	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_ID must be an integer: %w", err)
		}
		cfg.AdminID = id
	}

	timeoutSec, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT", "30"))
	if err != nil || timeoutSec <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be a positive integer of seconds")
	}
	cfg.RequestTimeout = time.Duration(timeoutSec) * time.Second

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.YandexGPT.APIKey == "" || cfg.YandexGPT.FolderID == "" {
		return nil, fmt.Errorf("YANDEX_GPT_API_KEY and YANDEX_GPT_FOLDER_ID are required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
