package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	StoreBackend_Postgres StoreBackend = "postgres"
	StoreBackend_Memory   StoreBackend = "memory"
)

type LookupMode string

const (
	// LookupMode_Strict rejects an order when any requested product id is unknown.
	LookupMode_Strict LookupMode = "strict"
	// LookupMode_Lenient drops unknown ids from pricing as long as one product matched.
	LookupMode_Lenient LookupMode = "lenient"
)

type AppConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	StoreBackend StoreBackend
	LookupMode   LookupMode

	LogLevel  string
	LogFormat string

	OtelEndpoint string
	OtelInsecure bool

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	// OutboxRelayInProcess runs the Kafka relay inside the HTTP server instead of cmd/outbox-relay.
	OutboxRelayInProcess bool
	HealthCheckInterval  time.Duration
	ShutdownTimeout      time.Duration

	// RateLimitMaxTokens caps POST /orders bursts per client; 0 turns the limiter off.
	RateLimitMaxTokens       float64
	RateLimitRefillPerSecond float64
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		HTTPAddr:             getEnv("HTTP_ADDR", ":7576"),
		GRPCAddr:             getEnv("GRPC_ADDR", ":7577"),
		StoreBackend:         StoreBackend(getEnv("STORE_BACKEND", string(StoreBackend_Postgres))),
		LookupMode:           LookupMode(getEnv("PRODUCT_LOOKUP_MODE", string(LookupMode_Strict))),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		OtelEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelInsecure:         getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OutboxPollInterval:   getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second*2),
		OutboxBatchSize:      getEnvInt("OUTBOX_BATCH_SIZE", 100),
		OutboxRelayInProcess: getEnvBool("OUTBOX_RELAY_IN_PROCESS", false),
		HealthCheckInterval:  getEnvDuration("HEALTH_CHECK_INTERVAL", time.Second*10),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", time.Second*20),

		RateLimitMaxTokens:       getEnvFloat("RATE_LIMIT_MAX_TOKENS", 0),
		RateLimitRefillPerSecond: getEnvFloat("RATE_LIMIT_REFILL_PER_SECOND", 1),
	}
}

// LoadEnv loads the .env file that sits next to the calling main package, if there is one.
func LoadEnv() {
	_, filename, _, ok := runtime.Caller(1)
	if !ok {
		log.Fatal("Unable to get current file path")
	}

	envPath := filepath.Join(filepath.Dir(filename), ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env file found at %s", envPath)
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}
