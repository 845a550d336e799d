package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded schema (pgvector extension, documents,
// chunks) and returns the resulting schema version.
func RunMigrations(databaseURL string) (uint, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	err = up(m)
	var dirtyErr migrate.ErrDirty
	if errors.As(err, &dirtyErr) {
		err = recoverDirty(m, dirtyErr.Version)
	}
	if err != nil {
		return 0, err
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// recoverDirty rolls the version marker back past a half-applied migration and
// reapplies it. Every migration file is written to be re-runnable (IF NOT EXISTS).
func recoverDirty(m *migrate.Migrate, dirtyVersion int) error {
	previous := previousVersion(dirtyVersion)

	if err := m.Force(previous); err != nil {
		return fmt.Errorf("force migration version %d: %w", previous, err)
	}
	if err := up(m); err != nil {
		return fmt.Errorf("rerun migrations after dirty version %d: %w", dirtyVersion, err)
	}
	return nil
}

// previousVersion is the version to force before retrying dirtyVersion; the
// first migration rolls back to an empty schema.
func previousVersion(dirtyVersion int) int {
	if dirtyVersion <= 1 {
		return database.NilVersion
	}
	return dirtyVersion - 1
}
