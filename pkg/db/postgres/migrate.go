package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// NewMigrator opens the migrations in dir against the database described by cfg.
func NewMigrator(dir string, cfg *PostgresConfig) (*migrate.Migrate, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", dir), GetMigrationURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration in dir. No pending migrations is not an error.
func MigrateUp(dir string, cfg *PostgresConfig) error {
	m, err := NewMigrator(dir, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}
