package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OTP          OTPConfig
	Storage      StorageConfig
	Stripe       StripeConfig
	Payment      PaymentConfig
	Kafka        KafkaConfig
	KYC          KYCConfig
	Logging      LoggingConfig
	GeminiAPIKey string
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps everything
	// in process and is meant for local runs and demos.
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret    string
	AccessExpiryMin int
}

type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

type StorageConfig struct {
	// Type is "s3" or "local".
	Type             string
	Path             string
	PublicBaseURL    string
	S3Bucket         string
	S3Region         string
	MaxPhotoBytes    int64
	MaxDocumentBytes int64
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type PaymentConfig struct {
	Currency        string
	PlatformFeeRate float64
	MinPlatformFee  float64
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type KYCConfig struct {
	ReviewToken string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("ENV"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("DB_DRIVER")),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSL_MODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret:    v.GetString("JWT_ACCESS_SECRET"),
			AccessExpiryMin: v.GetInt("JWT_ACCESS_EXPIRY_MIN"),
		},
		OTP: OTPConfig{
			TTL:         v.GetDuration("OTP_TTL"),
			MaxAttempts: v.GetInt("OTP_MAX_ATTEMPTS"),
		},
		Storage: StorageConfig{
			Type:             strings.ToLower(v.GetString("STORAGE_TYPE")),
			Path:             v.GetString("STORAGE_PATH"),
			PublicBaseURL:    v.GetString("STORAGE_PUBLIC_BASE_URL"),
			S3Bucket:         v.GetString("S3_BUCKET_NAME"),
			S3Region:         v.GetString("AWS_REGION"),
			MaxPhotoBytes:    v.GetInt64("STORAGE_MAX_PHOTO_BYTES"),
			MaxDocumentBytes: v.GetInt64("STORAGE_MAX_DOCUMENT_BYTES"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_API_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Payment: PaymentConfig{
			Currency:        strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
			PlatformFeeRate: v.GetFloat64("PAYMENT_PLATFORM_FEE_RATE"),
			MinPlatformFee:  v.GetFloat64("PAYMENT_MIN_PLATFORM_FEE"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		KYC: KYCConfig{
			ReviewToken: v.GetString("KYC_REVIEW_TOKEN"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("JWT_ACCESS_EXPIRY_MIN", 60*24*7)
	v.SetDefault("OTP_TTL", 5*time.Minute)
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("STORAGE_TYPE", "local")
	v.SetDefault("STORAGE_PATH", "./uploads")
	v.SetDefault("STORAGE_MAX_PHOTO_BYTES", 5<<20)
	v.SetDefault("STORAGE_MAX_DOCUMENT_BYTES", 10<<20)
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("PAYMENT_PLATFORM_FEE_RATE", 0.05)
	v.SetDefault("PAYMENT_MIN_PLATFORM_FEE", 1.00)
	v.SetDefault("KAFKA_TOPIC", "rider-seeker.events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("OTP max attempts must be > 0")
	}
	switch c.Storage.Type {
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket name is required for s3 storage")
		}
	case "local":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for local storage")
		}
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}
	if c.Payment.PlatformFeeRate < 0 || c.Payment.MinPlatformFee < 0 {
		return fmt.Errorf("platform fee settings must not be negative")
	}
	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("payment currency must be a 3-letter ISO code")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
