package infra

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	postgres_wrapper "github.com/joripage/exchange-matcher/pkg/infra/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultMigrationSource is the ledger schema shipped with the repo.
const DefaultMigrationSource = "file://migration/sql"

var mutex = &sync.Mutex{} // nolint

// Migrate applies every pending up migration from source. Runs are serialized
// inside the process. A dirty schema is forced back one version and retried.
func Migrate(source string, connStr string) error {
	mutex.Lock()
	defer mutex.Unlock()

	zap.S().Infof("migrating schema from %s", source)

	mg, err := migrate.New(source, connStr)
	if err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if dirty {
		zap.S().Warnf("schema version %d is dirty, forcing %d", version, int(version)-1)
		if err := mg.Force(int(version) - 1); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	zap.S().Info("migration done")
	return nil
}

// ConnectAndMigrate waits for the ledger database, then migrates it. An empty
// source skips the migration.
func ConnectAndMigrate(cfg *postgres_wrapper.PostgresConfig, source string, maxWait time.Duration) (*gorm.DB, error) {
	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg, maxWait)
	if err != nil {
		return nil, err
	}
	if source == "" {
		return db, nil
	}
	if err := Migrate(source, cfg.MigrationConnURL); err != nil {
		return nil, err
	}
	return db, nil
}
