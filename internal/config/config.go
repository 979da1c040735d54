package config

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration values.
type Config struct {
	AppPort         string        `default:"8080" env:"APP_PORT" usage:"HTTP listen port"`
	DatabaseURL     string        `default:"storefront.db" env:"DATABASE_URL" usage:"sqlite file path or postgres:// DSN"`
	JWTSecret       string        `default:"change-me-in-production" env:"JWT_SECRET" usage:"HMAC secret for session tokens"`
	TokenTTL        time.Duration `default:"1h" env:"TOKEN_TTL" usage:"Session token validity"`
	BcryptCost      int           `default:"10" env:"BCRYPT_COST" usage:"bcrypt cost factor"`
	AdminAPIKey     string        `default:"" env:"ADMIN_API_KEY" usage:"Key required by admin read endpoints"`
	LogLevel        string        `default:"info" env:"LOG_LEVEL" usage:"zap log level"`
	CORSOrigins     string        `default:"*" env:"CORS_ORIGINS" usage:"Comma separated allowed origins"`
	ShutdownTimeout time.Duration `default:"15s" env:"SHUTDOWN_TIMEOUT" usage:"Maximum graceful shutdown duration"`
	OTP             OTPConfig
	Session         SessionConfig
	Checkout        CheckoutConfig
	Telegram        TelegramConfig
}

// OTPConfig controls one-time code issuance.
type OTPConfig struct {
	TTL           time.Duration `default:"5m" env:"TTL" usage:"OTP validity"`
	DemoMode      bool          `default:"true" env:"DEMO_MODE" usage:"Return the raw code in API responses"`
	RelayTelegram bool          `default:"false" env:"RELAY_TELEGRAM" usage:"Send codes to the Telegram admin chat; operators see every code"`
}

// SessionConfig controls where per-user cart and checkout state lives.
type SessionConfig struct {
	RedisURL string        `default:"" env:"REDIS_URL" usage:"Redis URL; empty keeps state in memory"`
	TTL      time.Duration `default:"1h" env:"TTL" usage:"Lifetime of per-user state in Redis"`
}

// CheckoutConfig holds checkout pricing and timing rules.
type CheckoutConfig struct {
	ClearDelay         time.Duration `default:"500ms" env:"CLEAR_DELAY" usage:"Delay before clearing the cart after confirmation"`
	FirstOrderDiscount int64         `default:"100" env:"FIRST_ORDER_DISCOUNT" usage:"First order deduction in currency units"`
}

// TelegramConfig holds the optional Telegram bot used for notifications.
type TelegramConfig struct {
	BotToken    string `default:"" env:"BOT_TOKEN"`
	AdminChatID string `default:"" env:"ADMIN_CHAT_ID"`
}

// Enabled reports whether both the bot token and the admin chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.AdminChatID != ""
}

// Load reads .env, config.yaml and environment variables and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		Files:     []string{"config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("APP_PORT must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.Errorf("BCRYPT_COST must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Checkout.FirstOrderDiscount < 0 {
		return errors.New("CHECKOUT_FIRST_ORDER_DISCOUNT must not be negative")
	}
	return nil
}
