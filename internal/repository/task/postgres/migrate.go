package postgres

import (
	"embed"
	"errors"
	"fmt"
	"scheduleBoard/internal/logger"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// драйвер pgx/v5 регистрируется в migrate под схемой pgx5
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

func (s *Storage) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(s.connString))
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Repository: Ошибка закрытия мигратора", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}

// Migrate применяет встроенные миграции
func (s *Storage) Migrate() error {
	logger.Info("Repository: Применение миграций")

	m, err := s.migrator()
	if err != nil {
		logger.Error("Repository: Не удалось подготовить миграции", err)
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("версия схемы: %w", err)
	}
	logger.Info("Repository: Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down откатывает все миграции
func (s *Storage) Down() error {
	logger.Info("Repository: Откат миграций")

	m, err := s.migrator()
	if err != nil {
		logger.Error("Repository: Не удалось подготовить миграции", err)
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откатены")
	return nil
}
