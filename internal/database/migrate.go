package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	_ "github.com/clipstream/clipstream-api/migrations"
)

// Migrate runs all pending goose migrations. The Go migrations register
// themselves through the blank import; dir is the on-disk migrations folder
// goose uses for version ordering.
func Migrate(ctx context.Context, sqlDB *sql.DB, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
