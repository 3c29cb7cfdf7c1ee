package persistent

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/postgres"
)

//go:embed migrations/schema.sql
var schema string

// Migrate creates the tables when they are missing. It is safe to run on every start.
func Migrate(ctx context.Context, pg *postgres.Postgres) error {
	_, err := pg.Pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("persistent - Migrate - pg.Pool.Exec: %w", err)
	}

	return nil
}
