package dbkeeper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// runMigrations brings the schema up to date through a database/sql handle
// opened on the pgx driver.
func runMigrations(connConfig *pgx.ConnConfig, log Log) error {
	sqlDB := stdlib.OpenDB(*connConfig)
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("error getting driver: %w", err)
	}

	dir, err := migrationsDir()
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(dir), "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error while performing migration: %w", err)
	}

	log.Info("Migrations applied", zap.String("dir", dir))
	return nil
}

// migrationsDir finds the migrations directory next to the working directory
// or at the repository root when started from cmd/storefront.
func migrationsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("error getting current directory: %w", err)
	}

	for _, dir := range []string{
		filepath.Join(cwd, "migrations"),
		filepath.Join(cwd, "..", "..", "migrations"),
	} {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir, nil
		}
	}
	return "", errors.New("migrations directory not found")
}
