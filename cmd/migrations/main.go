package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	pkgconstants "github.com/k-code-yt/go-order-placement/pkg/constants"
	"github.com/k-code-yt/go-order-placement/pkg/db/postgres"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const errDuplicateDatabase = "42P04"

func loadEnv(service string) {
	envPath := filepath.Join("cmd", service, ".env")
	if err := godotenv.Load(envPath); err != nil {
		logrus.Warnf("No .env file found at %s, using environment variables", envPath)
		return
	}
	logrus.Infof("Loaded .env from %s", envPath)
}

func setupDatabase(cfg *postgres.PostgresConfig) error {
	adminCfg := *cfg
	adminCfg.DBName = "postgres"

	db, err := sql.Open("postgres", postgres.GetConnString(&adminCfg))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	logrus.Infof("Creating database '%s' if not exists...", cfg.DBName)
	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(cfg.DBName)))
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == errDuplicateDatabase {
			logrus.Infof("Database '%s' already exists, skipping creation", cfg.DBName)
			return nil
		}
		return fmt.Errorf("failed to create database: %w", err)
	}
	logrus.Infof("Database '%s' created successfully", cfg.DBName)
	return nil
}

func main() {
	service := flag.String("service", "http-server", "Service whose .env holds the connection settings")
	schema := flag.String("schema", pkgconstants.DBNameOrders, "Migration set under ./migrations")
	action := flag.String("action", "up", "Migration action: up, down, or version")
	steps := flag.Int("steps", 0, "Number of migrations to roll back (for down)")
	flag.Parse()

	loadEnv(*service)
	cfg := postgres.NewPostgresConfig(pkgconstants.DBNameOrders)

	logrus.Info("STEP:DATABASE_SETUP")
	if err := setupDatabase(cfg); err != nil {
		logrus.Fatalf("Database setup failed: %v", err)
	}

	logrus.Info("STEP:SCHEMA_MIGRATIONS")
	migrationPath := filepath.Join("migrations", *schema)
	logrus.Infof("Running migrations from %s", migrationPath)

	m, err := postgres.NewMigrator(migrationPath, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer m.Close()

	switch *action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logrus.Fatalf("Migration up failed: %v", err)
		}
		logrus.Info("Migrations applied successfully")

	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logrus.Fatalf("Migration down failed: %v", err)
		}
		logrus.Info("Migrations rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			logrus.Fatalf("Failed to get version: %v", err)
		}
		logrus.Infof("Current version: %d, Dirty: %v", version, dirty)

	default:
		logrus.Fatalf("Unknown action: %s (use up, down, or version)", *action)
	}
}
