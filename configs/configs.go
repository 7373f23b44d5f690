// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// Stream contains settings for the market-data websocket connection.
	Stream StreamConfig

	// Market contains settings for the instrument list REST endpoint.
	Market MarketConfig

	// RefData contains settings for the auxiliary reference-data endpoints.
	RefData RefDataConfig

	// Redis contains settings for the instrument snapshot cache.
	Redis RedisConfig

	// Kafka contains settings for the alert relay producer.
	Kafka KafkaConfig

	// Universe contains instrument filtering settings.
	Universe UniverseConfig

	// Limits contains the limit strategy settings.
	Limits LimitsConfig

	// API contains settings for the read-only HTTP API.
	API APIConfig
}

// StreamConfig holds websocket connection settings.
type StreamConfig struct {
	// URL is the streaming endpoint address.
	URL string

	// Token is the bearer token sent on the handshake.
	Token string

	// ReconnectDelay is the fixed wait between reconnect attempts.
	ReconnectDelay time.Duration

	// ReconnectLimit is the reconnect attempt ceiling. When reached the
	// stream is reported permanently down.
	ReconnectLimit int
}

// MarketConfig holds the instrument list endpoint settings.
type MarketConfig struct {
	BaseURL string
	Token   string
}

// RefDataConfig holds reference-data fetch settings.
type RefDataConfig struct {
	// BaseURL is the root of the reference-data service.
	BaseURL string

	// RequestsPerSecond paces outgoing requests.
	RequestsPerSecond float64
}

// RedisConfig holds cache connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds alert relay producer settings.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic is the topic alerts are published to.
	Topic string

	// Enabled toggles the relay. When false alerts are only logged.
	Enabled bool
}

// UniverseConfig holds instrument filtering settings.
type UniverseConfig struct {
	// AllowAll disables the currency partition and streams every instrument.
	AllowAll bool

	// AllowedCurrencies lists the currencies kept when AllowAll is false.
	AllowedCurrencies []string
}

// LimitsConfig holds the limit strategy settings.
type LimitsConfig struct {
	// ThresholdUp is the near-limit threshold percent for the upper band.
	ThresholdUp float64

	// ThresholdDown is the near-limit threshold percent for the lower band.
	ThresholdDown float64

	// AllowUp and AllowDown enable each band direction independently.
	AllowUp   bool
	AllowDown bool

	// MinVolume is the minimum candle volume required for evaluation.
	MinVolume float64

	// Cooldown is the minimum time between two accepted alerts for the
	// same instrument and band.
	Cooldown time.Duration

	// PriceMin and PriceMax bound the eligible instrument price range.
	PriceMin float64
	PriceMax float64
}

// APIConfig holds read-only HTTP API settings.
type APIConfig struct {
	Addr    string
	Enabled bool
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		Stream: StreamConfig{
			URL:            getEnv("STREAM_URL", "wss://api-invest.tinkoff.ru/openapi/md/v1/md-openapi/ws"),
			Token:          getEnv("STREAM_TOKEN", ""),
			ReconnectDelay: time.Duration(getEnvInt("STREAM_RECONNECT_DELAY_SECONDS", 3)) * time.Second,
			ReconnectLimit: getEnvInt("STREAM_RECONNECT_LIMIT", 10000),
		},
		Market: MarketConfig{
			BaseURL: getEnv("MARKET_BASE_URL", "https://api-invest.tinkoff.ru/openapi"),
			Token:   getEnv("MARKET_TOKEN", ""),
		},
		RefData: RefDataConfig{
			BaseURL:           getEnv("REFDATA_BASE_URL", ""),
			RequestsPerSecond: getEnvFloat("REFDATA_RATE_LIMIT", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_ALERT_TOPIC", "bandwatch_alerts"),
			Enabled: getEnvBool("KAFKA_ALERTS_ENABLED", false),
		},
		Universe: UniverseConfig{
			AllowAll:          getEnvBool("UNIVERSE_ALLOW_ALL", false),
			AllowedCurrencies: getEnvList("UNIVERSE_CURRENCIES", "USD"),
		},
		Limits: LimitsConfig{
			ThresholdUp:   getEnvFloat("LIMITS_THRESHOLD_UP", 5),
			ThresholdDown: getEnvFloat("LIMITS_THRESHOLD_DOWN", 5),
			AllowUp:       getEnvBool("LIMITS_ALLOW_UP", true),
			AllowDown:     getEnvBool("LIMITS_ALLOW_DOWN", true),
			MinVolume:     getEnvFloat("LIMITS_MIN_VOLUME", 50),
			Cooldown:      time.Duration(getEnvInt("LIMITS_COOLDOWN_MINUTES", 5)) * time.Minute,
			PriceMin:      getEnvFloat("LIMITS_PRICE_MIN", 0),
			PriceMax:      getEnvFloat("LIMITS_PRICE_MAX", 1e9),
		},
		API: APIConfig{
			Addr:    getEnv("API_ADDR", ":8080"),
			Enabled: getEnvBool("API_ENABLED", true),
		},
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList returns a comma-separated environment variable as a slice.
func getEnvList(key, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
