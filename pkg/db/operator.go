// Package db defines the contract of the PostgreSQL connection used by
// verbatim collections and harvest bookkeeping tables.
package db

import (
	"context"

	"github.com/gnames/gnsos/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator provides a connection pool and a few database-wide
// operations.
type Operator interface {
	// Connect establishes a connection pool to PostgreSQL.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close releases all database connections.
	Close() error

	// Pool returns the underlying connection pool, nil if not
	// connected.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the public schema.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the public schema has any tables.
	HasTables(ctx context.Context) (bool, error)

	// Tables returns names of tables that start with prefix.
	// Empty prefix returns all tables of the public schema.
	Tables(ctx context.Context, prefix string) ([]string, error)

	// DropAllTables drops all tables in the public schema.
	DropAllTables(ctx context.Context) error
}
