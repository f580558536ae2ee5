// Package iodb connects to PostgreSQL that keeps verbatim collections
// and harvest bookkeeping tables.
package iodb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxOperator implements db.Operator with a pgxpool.
type pgxOperator struct {
	pool *pgxpool.Pool
}

// NewPgxOperator creates an operator that is not connected yet.
func NewPgxOperator() db.Operator {
	return &pgxOperator{}
}

// DSN returns the connection URL of cfg. User and password are escaped,
// so they may contain any characters.
func DSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect creates the pool and checks that the server answers.
func (p *pgxOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	connErr := func(err error) error {
		return ConnectionError(cfg.Host, cfg.Port, cfg.Database, cfg.User, err)
	}

	pcfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return connErr(err)
	}
	// harvest writes, batch halving and processing share the pool
	pcfg.MaxConns = 16
	pcfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return connErr(err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return connErr(err)
	}

	p.pool = pool
	return nil
}

func (p *pgxOperator) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func (p *pgxOperator) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *pgxOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	var exists bool
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM pg_tables
  WHERE schemaname = 'public' AND tablename = $1
)`, tableName).Scan(&exists)
	if err != nil {
		return false, TableExistsCheckError(tableName, err)
	}
	return exists, nil
}

func (p *pgxOperator) HasTables(ctx context.Context) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	var has bool
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = 'public')`,
	).Scan(&has)
	if err != nil {
		return false, TableCheckError(err)
	}
	return has, nil
}

func (p *pgxOperator) Tables(
	ctx context.Context,
	prefix string,
) ([]string, error) {
	if p.pool == nil {
		return nil, NotConnectedError()
	}

	rows, err := p.pool.Query(ctx, `
SELECT tablename FROM pg_tables
WHERE schemaname = 'public' AND starts_with(tablename, $1)
ORDER BY tablename`, prefix)
	if err != nil {
		return nil, QueryTablesError(err)
	}

	res, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, QueryTablesError(err)
	}
	return res, nil
}

// DropAllTables drops bookkeeping tables and every verbatim and
// processed collection with one statement.
func (p *pgxOperator) DropAllTables(ctx context.Context) error {
	tables, err := p.Tables(ctx, "")
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return nil
	}

	names := make([]string, len(tables))
	for i, v := range tables {
		names[i] = pgx.Identifier{v}.Sanitize()
	}
	q := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", strings.Join(names, ", "))
	if _, err = p.pool.Exec(ctx, q); err != nil {
		return DropTableError(strings.Join(tables, ", "), err)
	}
	return nil
}
