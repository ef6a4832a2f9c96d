package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the reservation engine
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Slot lock configuration
	Lock LockConfig

	// Payment providers
	MoMo    MoMoConfig
	ZaloPay ZaloPayConfig
	Bank    BankTransferConfig

	// Outbound provider HTTP calls
	ProviderTimeout time.Duration

	// Kafka event publishing
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for cached reference data
	CatalogTTL      time.Duration
	AvailabilityTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// LockConfig holds slot lock behaviour configuration
type LockConfig struct {
	// HoldDuration is how long a fresh hold lasts before lazy expiry
	HoldDuration time.Duration
	// ExtendIncrement is the step used when a holder extends its hold
	ExtendIncrement time.Duration
}

// MoMoConfig holds MoMo gateway credentials and endpoints
type MoMoConfig struct {
	PartnerCode    string
	AccessKey      string
	SecretKey      string
	Endpoint       string
	QueryEndpoint  string
	RefundEndpoint string
}

// ZaloPayConfig holds ZaloPay gateway credentials and endpoints
type ZaloPayConfig struct {
	AppID          int
	Key1           string
	Key2           string
	Endpoint       string
	QueryEndpoint  string
	RefundEndpoint string
}

// BankTransferConfig holds the receiving account used for VietQR transfers
type BankTransferConfig struct {
	BankID      string
	AccountNo   string
	AccountName string
	BankName    string
	// QRExpiry is how long a generated transfer QR stays valid
	QRExpiry time.Duration
}

// KafkaConfig holds event publishing configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	BookingRequests int           `json:"booking_requests"`
	PaymentRequests int           `json:"payment_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "fieldbook_db"),
			User:     getEnv("DB_USER", "fieldbook_user"),
			Password: getEnv("DB_PASSWORD", "fieldbook_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			CatalogTTL:      getDurationEnv("REDIS_CATALOG_TTL", 1*time.Hour),
			AvailabilityTTL: getDurationEnv("REDIS_AVAILABILITY_TTL", 30*time.Second),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		},

		// Slot lock configuration
		Lock: LockConfig{
			HoldDuration:    getDurationEnv("LOCK_HOLD_DURATION", 10*time.Minute),
			ExtendIncrement: getDurationEnv("LOCK_EXTEND_INCREMENT", 5*time.Minute),
		},

		// MoMo configuration
		MoMo: MoMoConfig{
			PartnerCode:    getEnv("MOMO_PARTNER_CODE", ""),
			AccessKey:      getEnv("MOMO_ACCESS_KEY", ""),
			SecretKey:      getEnv("MOMO_SECRET_KEY", ""),
			Endpoint:       getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
			QueryEndpoint:  getEnv("MOMO_QUERY_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/query"),
			RefundEndpoint: getEnv("MOMO_REFUND_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/refund"),
		},

		// ZaloPay configuration
		ZaloPay: ZaloPayConfig{
			AppID:          getIntEnv("ZALOPAY_APP_ID", 0),
			Key1:           getEnv("ZALOPAY_KEY1", ""),
			Key2:           getEnv("ZALOPAY_KEY2", ""),
			Endpoint:       getEnv("ZALOPAY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/create"),
			QueryEndpoint:  getEnv("ZALOPAY_QUERY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/query"),
			RefundEndpoint: getEnv("ZALOPAY_REFUND_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/refund"),
		},

		// Bank transfer configuration
		Bank: BankTransferConfig{
			BankID:      getEnv("BANK_ID", "970422"),
			AccountNo:   getEnv("BANK_ACCOUNT_NO", "0123456789012"),
			AccountName: getEnv("BANK_ACCOUNT_NAME", "FIELDBOOK SPORTS JSC"),
			BankName:    getEnv("BANK_NAME", "MB Bank"),
			QRExpiry:    getDurationEnv("BANK_QR_EXPIRY", 15*time.Minute),
		},

		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),

		// Kafka configuration
		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "fieldbook-events"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 20),
			PaymentRequests: getIntEnv("RATE_LIMIT_PAYMENT_REQUESTS", 20),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
