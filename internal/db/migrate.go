package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the analyses journal if it is missing.  schema.sql only
// uses IF NOT EXISTS statements, so running it on every startup is safe.
func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply journal schema: %w", err)
	}
	return nil
}
