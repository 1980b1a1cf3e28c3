package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	// Peers allowed to set X-Forwarded-Host / X-Forwarded-For; empty trusts none
	TrustedProxies []string

	// MongoDB
	MongoURI string
	DBName   string

	// Redis Configuration
	RedisEnabled   bool
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	OptionCacheTTL time.Duration

	// JWT Token Secrets
	AccessSecret  string
	RefreshSecret string
	BcryptCost    int

	RateLimitReqs   int
	RateLimitWindow int
	MaxFormSize     int64

	// Plugin
	OptionName      string
	AdminBaseURL    string
	CacheWarmEvery  time.Duration
	SnowflakeNode   int64
	ActivateOnStart bool

	// RabbitMQ settings events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string

	// OpenTelemetry
	OTelEnabled  bool
	OTelEndpoint string
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/helpcrunch"),
		DBName:   getEnv("DB_NAME", "helpcrunch"),

		RedisEnabled:   getEnvBool("REDIS_ENABLED", true),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		OptionCacheTTL: getEnvDuration("OPTION_CACHE_TTL", 5*time.Minute),

		AccessSecret:  getEnv("ACCESS_SECRET", ""),
		RefreshSecret: getEnv("REFRESH_SECRET", ""),
		BcryptCost:    getEnvInt("BCRYPT_COST", 12),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
		MaxFormSize:     getEnvInt64("MAX_FORM_SIZE", 64*1024),

		OptionName:      getEnv("OPTION_NAME", "helpcrunch"),
		AdminBaseURL:    strings.TrimRight(getEnv("ADMIN_BASE_URL", ""), "/"),
		CacheWarmEvery:  getEnvDuration("CACHE_WARM_INTERVAL", time.Minute),
		SnowflakeNode:   getEnvInt64("SNOWFLAKE_NODE", 1),
		ActivateOnStart: getEnvBool("ACTIVATE_ON_START", true),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "helpcrunch.events"),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "helpcrunch-live-chat"),
	}

	// Validate required fields
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET is required - set it in .env file")
	}

	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("REFRESH_SECRET is required - set it in .env file")
	}

	return cfg, nil
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
