package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	OpenRouter OpenRouterConfig
	Generation GenerationConfig
	Stripe     StripeConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

// OpenRouterConfig holds the chat-completion provider settings. The primary
// model is used for the first attempt of every pipeline stage; the fallback
// model for all retry attempts and for smart-question generation.
type OpenRouterConfig struct {
	BaseURL       string
	APIKey        string
	PrimaryModel  string
	FallbackModel string
}

// GenerationConfig holds the per-stage retry envelope of the pipeline.
type GenerationConfig struct {
	MaxRetries  int
	BackoffBase time.Duration
}

type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PremiumPriceID  string
	ExpertPriceID   string
	PortalReturnURL string
}

type RateLimitConfig struct {
	SessionsPerHour int
	QuestionsPerMin int
	IdeasPerHour    int
	BillingPerHour  int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("openrouter.api_key", "")
	viper.SetDefault("openrouter.primary_model", "anthropic/claude-3.5-sonnet")
	viper.SetDefault("openrouter.fallback_model", "anthropic/claude-3-haiku")
	viper.SetDefault("generation.max_retries", 3)
	viper.SetDefault("generation.backoff_base", "1s")
	viper.SetDefault("stripe.secret_key", "")
	viper.SetDefault("stripe.webhook_secret", "")
	viper.SetDefault("stripe.premium_price_id", "")
	viper.SetDefault("stripe.expert_price_id", "")
	viper.SetDefault("stripe.portal_return_url", "")
	viper.SetDefault("ratelimit.sessions_per_hour", 5)
	viper.SetDefault("ratelimit.questions_per_min", 15)
	viper.SetDefault("ratelimit.ideas_per_hour", 30)
	viper.SetDefault("ratelimit.billing_per_hour", 20)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		OpenRouter: OpenRouterConfig{
			BaseURL:       viper.GetString("openrouter.base_url"),
			APIKey:        viper.GetString("openrouter.api_key"),
			PrimaryModel:  viper.GetString("openrouter.primary_model"),
			FallbackModel: viper.GetString("openrouter.fallback_model"),
		},
		Generation: GenerationConfig{
			MaxRetries:  viper.GetInt("generation.max_retries"),
			BackoffBase: viper.GetDuration("generation.backoff_base"),
		},
		Stripe: StripeConfig{
			SecretKey:       viper.GetString("stripe.secret_key"),
			WebhookSecret:   viper.GetString("stripe.webhook_secret"),
			PremiumPriceID:  viper.GetString("stripe.premium_price_id"),
			ExpertPriceID:   viper.GetString("stripe.expert_price_id"),
			PortalReturnURL: viper.GetString("stripe.portal_return_url"),
		},
		RateLimit: RateLimitConfig{
			SessionsPerHour: viper.GetInt("ratelimit.sessions_per_hour"),
			QuestionsPerMin: viper.GetInt("ratelimit.questions_per_min"),
			IdeasPerHour:    viper.GetInt("ratelimit.ideas_per_hour"),
			BillingPerHour:  viper.GetInt("ratelimit.billing_per_hour"),
		},
	}

	return cfg, nil
}
