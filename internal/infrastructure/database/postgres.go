package database

import (
	"context"
	"database/sql"

	"homefix_orders/internal/adapter/persistence/postgres"
	"homefix_orders/internal/infrastructure/config"
)

// ConnectPostgres opens DATABASE_URI and applies the embedded migrations.
func ConnectPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return postgres.Open(ctx, cfg.DatabaseURI)
}
