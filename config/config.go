package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Persistence. DB_DRIVER selects "mongo" or "postgres".
	DBDriver     string `mapstructure:"DB_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`

	// Redis configuration.
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB    int           `mapstructure:"REDIS_QUEUE_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	// Settlement.
	PlatformFeePercent string        `mapstructure:"PLATFORM_FEE_PERCENT"`
	Currency           string        `mapstructure:"CURRENCY"`
	RailTimeout        time.Duration `mapstructure:"RAIL_TIMEOUT"`
	RailMaxRetries     int           `mapstructure:"RAIL_MAX_RETRIES"`
	RailBackoffBase    time.Duration `mapstructure:"RAIL_BACKOFF_BASE"`
	AutoCompleteAfter  time.Duration `mapstructure:"AUTO_COMPLETE_AFTER"`

	// Fee rail (Stripe).
	StripeKey    string `mapstructure:"STRIPE_KEY"`
	StripeAPIURL string `mapstructure:"STRIPE_API_URL"`

	// Transfer rail (Plaid Transfer).
	PlaidClientID string `mapstructure:"PLAID_CLIENT_ID"`
	PlaidSecret   string `mapstructure:"PLAID_SECRET"`
	PlaidEnvURL   string `mapstructure:"PLAID_ENV_URL"`

	// Notifications.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	NotifyBuffer            int    `mapstructure:"NOTIFY_BUFFER"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments inject the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("JWT_SECRET", "")

	viper.SetDefault("DB_DRIVER", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bookingpay")
	viper.SetDefault("POSTGRES_DSN", "")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("CATALOG_CACHE_TTL", time.Minute)

	viper.SetDefault("PLATFORM_FEE_PERCENT", "10")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("RAIL_TIMEOUT", 15*time.Second)
	viper.SetDefault("RAIL_MAX_RETRIES", 3)
	viper.SetDefault("RAIL_BACKOFF_BASE", 200*time.Millisecond)
	viper.SetDefault("AUTO_COMPLETE_AFTER", time.Duration(0))

	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_API_URL", "")
	viper.SetDefault("PLAID_CLIENT_ID", "")
	viper.SetDefault("PLAID_SECRET", "")
	viper.SetDefault("PLAID_ENV_URL", "https://sandbox.plaid.com")

	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("NOTIFY_BUFFER", 256)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
