package app

import (
	"os"
	"strconv"
	"time"
)

// Queue driver names.
const (
	QueueDriverMemory = "memory"
	QueueDriverRedis  = "redis"
)

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	DatabaseFile string // Path to SQLite database file (default: ./teamspace.db)

	BaseURL string // Public base URL embedded in invitation accept links

	ResendAPIKey    string // Resend API key; empty disables real sends
	ResendFromEmail string // From address for invitation mail

	QueueDriver string // Queue driver (memory, redis) (default: memory)
	RedisAddr   string // Redis address for the redis queue driver (default: localhost:6379)

	SendInterval   time.Duration // Minimum spacing between provider sends (default: 500ms)
	DequeueTimeout time.Duration // Worker blocking-dequeue wait (default: 5s)

	HousekeepingInterval time.Duration // Recovery sweep interval (default: 1m)
	PendingRequeueAfter  time.Duration // Age before a PENDING row is re-enqueued (default: 5m)
	SendingFailAfter     time.Duration // Age before a SENDING row is failed (default: 10m)

	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		DatabaseFile: getEnvOrDefault("TEAMSPACE_DATABASE_FILE", "teamspace.db"),

		BaseURL: getEnvOrDefault("TEAMSPACE_BASE_URL", "http://localhost:8080"),

		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		ResendFromEmail: getEnvOrDefault("RESEND_FROM_EMAIL", "Teamspace <no-reply@teamspace.local>"),

		QueueDriver: getEnvOrDefault("QUEUE_DRIVER", QueueDriverMemory),
		RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),

		SendInterval:   getEnvDurationOrDefault("SEND_INTERVAL", 500*time.Millisecond),
		DequeueTimeout: getEnvDurationOrDefault("DEQUEUE_TIMEOUT", 5*time.Second),

		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
		PendingRequeueAfter:  getEnvDurationOrDefault("PENDING_REQUEUE_AFTER", 5*time.Minute),
		SendingFailAfter:     getEnvDurationOrDefault("SENDING_FAIL_AFTER", 10*time.Minute),

		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
