package sql_db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema. driverName is the database/sql driver the connection was opened
// with: postgres or sqlite3.
func RunMigrations(ctx context.Context, db *sql.DB, driverName string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(driverName); err != nil {
		return errors.Wrapf(err, "unsupported migration dialect %s", driverName)
	}
	if err := gooseUpContext(ctx, db, "migrations"); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	return nil
}
