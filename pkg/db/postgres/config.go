package postgres

import (
	"fmt"
	"os"
	"strconv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

func NewPostgresConfig(fallbackDBName string) *PostgresConfig {
	var postgres PostgresConfig

	postgres.Host = getEnv("POSTGRES_HOST", "localhost")
	postgres.Port = getEnv("POSTGRES_PORT", "5452")
	postgres.User = getEnv("POSTGRES_USER", "user")
	postgres.Password = getEnv("POSTGRES_PASSWORD", "pass")
	postgres.DBName = getEnv("POSTGRES_DATABASE", fallbackDBName)
	postgres.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	postgres.MaxOpenConns = getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10)
	postgres.MaxIdleConns = getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5)

	return &postgres
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func GetDefaultConnString() string {
	return "host=localhost port=5452 user=user password=pass dbname=orders sslmode=disable"
}

func GetConnString(options *PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", options.Host, options.Port, options.User, options.Password, options.DBName, options.SSLMode)
}

// GetMigrationURL is the URL form golang-migrate expects.
func GetMigrationURL(options *PostgresConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", options.User, options.Password, options.Host, options.Port, options.DBName, options.SSLMode)
}
