package config

import (
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	DB      PostgresConfig
	OpenAI  OpenAIConfig
	Limits  LimitConfig
	Stripe  StripeConfig
	YouTube YouTubeConfig
	Rakuten RakutenConfig
	Line    LineConfig
	BaseURL string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
}

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	ConsultModel string
	RecipeModel  string
	SearchModel  string
}

// LimitConfig holds the free-tier daily limits per AI feature.
type LimitConfig struct {
	ConsultDaily int
	RecipeDaily  int
	SearchDaily  int
}

type StripeConfig struct {
	SecretKey             string
	WebhookSecret         string
	PriceIDPremiumMonthly string
	FrontendURL           string
}

type YouTubeConfig struct {
	APIKey string
}

type RakutenConfig struct {
	ApplicationID string
}

type LineConfig struct {
	ChannelSecret string
	ChannelToken  string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BaseURL: getEnv("PUBLIC_BASE_URL", "https://mogumogu.app"),
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
		},
		OpenAI: OpenAIConfig{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ConsultModel: getEnv("OPENAI_CONSULT_MODEL", "gpt-4o-mini"),
			RecipeModel:  getEnv("OPENAI_RECIPE_MODEL", "gpt-4o-mini"),
			SearchModel:  getEnv("OPENAI_SEARCH_MODEL", "gpt-4o-mini"),
		},
		Limits: LimitConfig{
			ConsultDaily: getEnvInt("FREE_CONSULT_DAILY_LIMIT", 5),
			RecipeDaily:  getEnvInt("FREE_RECIPE_DAILY_LIMIT", 3),
			SearchDaily:  getEnvInt("FREE_SEARCH_DAILY_LIMIT", 3),
		},
		Stripe: StripeConfig{
			SecretKey:             os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:         os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDPremiumMonthly: os.Getenv("STRIPE_PRICE_ID_PREMIUM_MONTHLY"),
			FrontendURL:           os.Getenv("FRONTEND_URL"),
		},
		YouTube: YouTubeConfig{
			APIKey: os.Getenv("YOUTUBE_API_KEY"),
		},
		Rakuten: RakutenConfig{
			ApplicationID: os.Getenv("RAKUTEN_APPLICATION_ID"),
		},
		Line: LineConfig{
			ChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
			ChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
