package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Config holds application configuration
type Config struct {
	APIBaseURL  string
	Profile     string
	LogLevel    string
	HTTPTimeout time.Duration
	UserAgent   string

	// Session token storage
	SessionStore  string
	SessionFile   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Query cache policy
	QueryRetry          int
	QueryRetryDelay     time.Duration
	QueryStaleTime      time.Duration
	QueryRefetchOnFocus bool
	QueryCacheSize      int

	// Invoice archival
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string
	InvoiceArchiveBucket string

	MockAPIPort string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		APIBaseURL:  strings.TrimRight(getEnv("MYPATIENTS_API_URL", "http://localhost:5150/api"), "/"),
		Profile:     getEnv("MYPATIENTS_PROFILE", "default"),
		LogLevel:    getEnv("LOG_LEVEL", "warn"),
		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		UserAgent:   getEnv("MYPATIENTS_USER_AGENT", "mypatients-cli/0.1"),

		SessionStore:  strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", SessionStoreFile))),
		SessionFile:   getEnv("SESSION_FILE", defaultSessionFile()),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		QueryRetry:          getEnvAsInt("QUERY_RETRY", 2),
		QueryRetryDelay:     getEnvAsDuration("QUERY_RETRY_DELAY", time.Second),
		QueryStaleTime:      getEnvAsDuration("QUERY_STALE_TIME", 0),
		QueryRefetchOnFocus: getEnvAsBool("QUERY_REFETCH_ON_FOCUS", false),
		QueryCacheSize:      getEnvAsInt("QUERY_CACHE_SIZE", 256),

		AWSRegion:            getEnv("AWS_REGION", "eu-west-3"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		InvoiceArchiveBucket: getEnv("INVOICE_ARCHIVE_BUCKET", ""),

		MockAPIPort: getEnv("MOCK_API_PORT", "5150"),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mypatients", "session.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
