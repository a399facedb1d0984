package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Affiliate AffiliateConfig
	RateLimit RateLimitConfig
	Gateways  GatewaysConfig

	// Warnings lists environment values that were invalid and replaced by
	// their defaults.
	Warnings []string
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins string
	PublicURL    string
}

type DatabaseConfig struct {
	// URL, when set, is used as the DSN as is.
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// MigrationsDir holds the golang-migrate SQL files.
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

type AffiliateConfig struct {
	DefaultCommissionRate decimal.Decimal
	MinWithdrawal         decimal.Decimal
	WithdrawalWindow      time.Duration
	RestoreOnReject       bool
	ReferralCodeLength    int
	ReferralCodeAttempts  int
}

type RateLimitConfig struct {
	// Rate in ulule/limiter format, e.g. "100-M".
	Rate string
}

type GatewaysConfig struct {
	CallbackBaseURL string
	// WebhookSecret is the path token gateways must echo on callbacks. Callbacks
	// are refused while it is empty.
	WebhookSecret string
	// PaymentTimeout fails STK pushes that never received a final callback.
	PaymentTimeout time.Duration
	// SweepInterval runs the expiry sweep in the background; zero leaves it to
	// the admin endpoint.
	SweepInterval time.Duration
	Mpesa         MpesaConfig
	PayHero       PayHeroConfig
	IntaSend      IntaSendConfig
}

type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
}

type PayHeroConfig struct {
	BaseURL   string
	Username  string
	Password  string
	ChannelID int
	Provider  string
}

type IntaSendConfig struct {
	BaseURL        string
	SecretKey      string
	PublishableKey string
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
			PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", ""),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "clintonstack"),
			Password:      getEnv("DB_PASSWORD", "clintonstack"),
			Name:          getEnv("DB_NAME", "clintonstack"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       env.parseInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			TokenTTL:  env.parseDuration("JWT_TTL", 7*24*time.Hour),
			Issuer:    getEnv("JWT_ISSUER", "clintonstack"),
		},
		Affiliate: AffiliateConfig{
			DefaultCommissionRate: env.parseDecimal("AFFILIATE_COMMISSION_RATE", DefaultCommissionRate),
			MinWithdrawal:         env.parseDecimal("WITHDRAWAL_MIN_AMOUNT", DefaultMinWithdrawal),
			WithdrawalWindow:      env.parseDuration("WITHDRAWAL_WINDOW", WithdrawalWindow),
			RestoreOnReject:       env.parseBool("WITHDRAWAL_RESTORE_ON_REJECT", DefaultRestoreOnReject),
			ReferralCodeLength:    env.parseInt("REFERRAL_CODE_LENGTH", 8),
			ReferralCodeAttempts:  env.parseInt("REFERRAL_CODE_ATTEMPTS", 10),
		},
		RateLimit: RateLimitConfig{
			Rate: getEnv("RATE_LIMIT", "100-M"),
		},
		Gateways: GatewaysConfig{
			CallbackBaseURL: getEnv("GATEWAY_CALLBACK_BASE_URL", "http://localhost:8080"),
			WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
			PaymentTimeout:  env.parseDuration("PAYMENT_TIMEOUT", DefaultPaymentTimeout),
			SweepInterval:   env.parseDuration("PAYMENT_SWEEP_INTERVAL", 0),
			Mpesa: MpesaConfig{
				BaseURL:        getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
				ConsumerKey:    getEnv("MPESA_CONSUMER_KEY", ""),
				ConsumerSecret: getEnv("MPESA_CONSUMER_SECRET", ""),
				ShortCode:      getEnv("MPESA_SHORTCODE", ""),
				PassKey:        getEnv("MPESA_PASSKEY", ""),
			},
			PayHero: PayHeroConfig{
				BaseURL:   getEnv("PAYHERO_BASE_URL", "https://backend.payhero.co.ke"),
				Username:  getEnv("PAYHERO_USERNAME", ""),
				Password:  getEnv("PAYHERO_PASSWORD", ""),
				ChannelID: env.parseInt("PAYHERO_CHANNEL_ID", 0),
				Provider:  getEnv("PAYHERO_PROVIDER", "m-pesa"),
			},
			IntaSend: IntaSendConfig{
				BaseURL:        getEnv("INTASEND_BASE_URL", "https://sandbox.intasend.com"),
				SecretKey:      getEnv("INTASEND_SECRET_KEY", ""),
				PublishableKey: getEnv("INTASEND_PUBLISHABLE_KEY", ""),
			},
		},
	}

	if cfg.Gateways.WebhookSecret == "" {
		env.warn("WEBHOOK_SECRET is not set; gateway callbacks will be refused")
	}
	cfg.Warnings = env.warnings
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed values and records the ones it had to replace.
type envReader struct {
	warnings []string
}

func (r *envReader) warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *envReader) parseInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		r.warn("invalid integer %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func (r *envReader) parseBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		r.warn("invalid boolean %s=%q, using %t", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func (r *envReader) parseDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		r.warn("invalid duration %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func (r *envReader) parseDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		r.warn("invalid decimal %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

// Affiliate program defaults
var (
	DefaultCommissionRate = decimal.RequireFromString("0.15")
	DefaultMinWithdrawal  = decimal.NewFromInt(200)
)

const WithdrawalWindow = 24 * time.Hour

// DefaultRestoreOnReject returns the requested amount to the affiliate when a
// withdrawal is rejected.
const DefaultRestoreOnReject = true

const DefaultPaymentTimeout = 15 * time.Minute
