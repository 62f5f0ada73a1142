package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageTypePostgres = "postgres"
	StorageTypeMemory   = "memory"

	EnvProduction = "production"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OTP       OTPConfig
	Firebase  FirebaseConfig
	SMTP      SMTPConfig
	WebPush   WebPushConfig
	Storage   StorageConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
	RateLimit RateLimitConfig
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
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// AutoMigrate applies embedded migrations on startup.
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type OTPConfig struct {
	// Timeout bounds every round trip to an identity provider.
	Timeout     time.Duration
	TTL         time.Duration
	MaxAttempts int
}

type FirebaseConfig struct {
	APIKey string
	// Endpoint overrides the Identity Toolkit base URL (emulator, tests).
	Endpoint string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

type StorageConfig struct {
	Type string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TelemetryConfig struct {
	TracingEnabled bool
	ServiceName    string
}

type RateLimitConfig struct {
	// OTPPerMinute is the per-client budget on the unauthenticated OTP routes.
	OTPPerMinute int
	OTPBurst     int
}

func setDefaults() {
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 5000)
	viper.SetDefault("ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("JWT_EXPIRY", "168h")
	viper.SetDefault("OTP_TIMEOUT", "5s")
	viper.SetDefault("OTP_TTL", "10m")
	viper.SetDefault("OTP_MAX_ATTEMPTS", 3)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("VAPID_SUBSCRIBER", "mailto:support@grape.app")
	viper.SetDefault("STORAGE_TYPE", StorageTypePostgres)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("OTEL_SERVICE_NAME", "grape-backend")
	viper.SetDefault("RATE_LIMIT_OTP_PER_MINUTE", 10)
	viper.SetDefault("RATE_LIMIT_OTP_BURST", 5)
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = viper.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:           viper.GetString("SERVER_HOST"),
			Port:           viper.GetInt("SERVER_PORT"),
			Env:            viper.GetString("ENV"),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetInt("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			DBName:      viper.GetString("DB_NAME"),
			SSLMode:     viper.GetString("DB_SSL_MODE"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: viper.GetDuration("JWT_EXPIRY"),
		},
		OTP: OTPConfig{
			Timeout:     viper.GetDuration("OTP_TIMEOUT"),
			TTL:         viper.GetDuration("OTP_TTL"),
			MaxAttempts: viper.GetInt("OTP_MAX_ATTEMPTS"),
		},
		Firebase: FirebaseConfig{
			APIKey:   viper.GetString("FIREBASE_API_KEY"),
			Endpoint: viper.GetString("FIREBASE_ENDPOINT"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		WebPush: WebPushConfig{
			PublicKey:  viper.GetString("VAPID_PUBLIC_KEY"),
			PrivateKey: viper.GetString("VAPID_PRIVATE_KEY"),
			Subscriber: viper.GetString("VAPID_SUBSCRIBER"),
		},
		Storage: StorageConfig{
			Type: strings.ToLower(viper.GetString("STORAGE_TYPE")),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: viper.GetBool("OTEL_TRACING_ENABLED"),
			ServiceName:    viper.GetString("OTEL_SERVICE_NAME"),
		},
		RateLimit: RateLimitConfig{
			OTPPerMinute: viper.GetInt("RATE_LIMIT_OTP_PER_MINUTE"),
			OTPBurst:     viper.GetInt("RATE_LIMIT_OTP_BURST"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}
	if c.OTP.Timeout <= 0 {
		return fmt.Errorf("OTP timeout must be positive")
	}
	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("OTP max attempts must be at least 1")
	}
	return nil
}

// IsProduction reports whether provider error details must be redacted.
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
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

// Enabled reports whether a Redis host was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c *WebPushConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
