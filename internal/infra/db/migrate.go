package db

import (
	"errors"

	"marketplace/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// 埋め込みのSQLでマイグレーションする
func newMigrator(gdb *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sql.DB")
	}
	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not create migration driver")
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not open migration files")
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "could not create migrate instance")
	}
	return m, nil
}

func MigrateUp(gdb *gorm.DB) error {
	m, err := newMigrator(gdb)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "could not run migrations")
	}
	return nil
}

// steps件戻す
func MigrateDown(gdb *gorm.DB, steps int) error {
	m, err := newMigrator(gdb)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "could not roll back migrations")
	}
	return nil
}
