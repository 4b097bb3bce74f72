// Package storage implements the user and catalog stores on PostgreSQL.
package storage

import (
	"database/sql"
	"embed"
	"errors"
)

// Migrations holds the schema, applied at startup from MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
