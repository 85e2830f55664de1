package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers.
const (
	StorageDriverGCS   = "gcs"
	StorageDriverLocal = "local"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	FrontendURL   string
	PublicBaseURL string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Stripe    StripeConfig
	Storage   StorageConfig
	Dashboard DashboardConfig
	RateLimit RateLimitConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StripeConfig holds payment provider credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	CheckoutTTL   time.Duration
}

// StorageConfig selects the object store used for course media.
type StorageConfig struct {
	Driver          string
	Bucket          string
	CredentialsFile string
	LocalDir        string
	SigningSecret   string
	UploadURLTTL    time.Duration
}

// DashboardConfig tunes cache lifetimes of admin aggregates.
type DashboardConfig struct {
	StatsCacheTTL      time.Duration
	EnrollmentCacheTTL time.Duration
}

// RateLimitConfig caps abuse-prone endpoints per client IP.
type RateLimitConfig struct {
	CheckoutPerMinute int
	UploadPerMinute   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Enabled:  v.GetBool("CACHE_ENABLED"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}
	if len(cfg.CORS.AllowedOrigins) == 0 && cfg.FrontendURL != "" {
		cfg.CORS.AllowedOrigins = []string{cfg.FrontendURL}
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Stripe = StripeConfig{
		SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Currency:      strings.ToLower(v.GetString("STRIPE_CURRENCY")),
		CheckoutTTL:   parseDuration(v.GetString("CHECKOUT_SESSION_TTL"), 30*time.Minute),
	}

	cfg.Storage = StorageConfig{
		Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
		Bucket:          v.GetString("STORAGE_BUCKET"),
		CredentialsFile: v.GetString("STORAGE_CREDENTIALS_FILE"),
		LocalDir:        v.GetString("STORAGE_LOCAL_DIR"),
		SigningSecret:   v.GetString("STORAGE_SIGNING_SECRET"),
		UploadURLTTL:    parseDuration(v.GetString("STORAGE_UPLOAD_URL_TTL"), time.Hour),
	}

	cfg.Dashboard = DashboardConfig{
		StatsCacheTTL:      parseDuration(v.GetString("DASHBOARD_STATS_CACHE_TTL"), 3*time.Minute),
		EnrollmentCacheTTL: parseDuration(v.GetString("DASHBOARD_ENROLLMENT_CACHE_TTL"), 2*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		CheckoutPerMinute: v.GetInt("RATE_LIMIT_CHECKOUT_PER_MINUTE"),
		UploadPerMinute:   v.GetInt("RATE_LIMIT_UPLOAD_PER_MINUTE"),
	}

	return cfg, nil
}

// Validate reports configuration that would make the process unusable.
func (c *Config) Validate() error {
	var problems []string
	if c.Port <= 0 {
		problems = append(problems, "PORT must be positive")
	}
	switch c.Storage.Driver {
	case StorageDriverGCS:
		if c.Storage.Bucket == "" {
			problems = append(problems, "STORAGE_BUCKET is required for the gcs driver")
		}
	case StorageDriverLocal:
		if c.Storage.SigningSecret == "" {
			problems = append(problems, "STORAGE_SIGNING_SECRET is required for the local driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.Env == EnvProduction {
		if c.JWT.Secret == "" || c.JWT.Secret == "dev_secret" {
			problems = append(problems, "JWT_SECRET must be set in production")
		}
		if c.Stripe.SecretKey == "" {
			problems = append(problems, "STRIPE_SECRET_KEY must be set in production")
		}
		if c.Stripe.WebhookSecret == "" {
			problems = append(problems, "STRIPE_WEBHOOK_SECRET must be set in production")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "neolms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", true)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "neolms-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("CHECKOUT_SESSION_TTL", "30m")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_CREDENTIALS_FILE", "")
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_SIGNING_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_UPLOAD_URL_TTL", "1h")

	v.SetDefault("DASHBOARD_STATS_CACHE_TTL", "3m")
	v.SetDefault("DASHBOARD_ENROLLMENT_CACHE_TTL", "2m")

	v.SetDefault("RATE_LIMIT_CHECKOUT_PER_MINUTE", 5)
	v.SetDefault("RATE_LIMIT_UPLOAD_PER_MINUTE", 20)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
