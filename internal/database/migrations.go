package database

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Migrator выполняет миграции базы данных из встроенной файловой системы.
type Migrator struct {
	migrationsFS   fs.FS
	migrationsPath string
	pool           *pgxpool.Pool
	logger         *zap.Logger
}

// NewMigrator создает новый экземпляр Migrator.
func NewMigrator(migrationsFS fs.FS, migrationsPath string, pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		migrationsFS:   migrationsFS,
		migrationsPath: migrationsPath,
		pool:           pool,
		logger:         logger.Named("Migrator"),
	}
}

// Up применяет все доступные миграции.
func (m *Migrator) Up() error {
	migrator, err := m.createMigrator()
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	m.logger.Info("Database migrations applied successfully")
	return nil
}

// createMigrator создает экземпляр migrate.Migrate поверх pgx пула.
func (m *Migrator) createMigrator() (*migrate.Migrate, error) {
	// Создаем sql.DB из pgx пула
	db := stdlib.OpenDBFromPool(m.pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(m.migrationsFS, m.migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return migrator, nil
}
