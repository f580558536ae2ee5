// Package ioschema implements SchemaManager and harvest.InfoStore on top
// of GORM. This is an impure I/O package.
package ioschema

import (
	"context"
	"log/slog"

	gnsos "github.com/gnames/gnsos/pkg"
	"github.com/gnames/gnsos/pkg/db"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/schema"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// manager implements the gnsos.SchemaManager interface
// using GORM AutoMigrate.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) gnsos.SchemaManager {
	return &manager{operator: op}
}

// Create creates bookkeeping tables using GORM AutoMigrate.
// Verbatim tables are created later by harvests.
func (m *manager) Create(ctx context.Context) error {
	gormDB, err := openGORM(m.operator)
	if err != nil {
		return err
	}

	if err := schema.Migrate(gormDB.WithContext(ctx)); err != nil {
		return CreateSchemaError(err)
	}
	slog.Info("Schema created", "tables", len(schema.AllModels()))
	return nil
}

// Migrate updates the schema to the latest version of models.
func (m *manager) Migrate(ctx context.Context) error {
	gormDB, err := openGORM(m.operator)
	if err != nil {
		return err
	}

	if err := schema.Migrate(gormDB.WithContext(ctx)); err != nil {
		return MigrateSchemaError(err)
	}
	return nil
}

// SyncProviders upserts rows of data_providers. Providers removed from
// providers.yaml stay in the table, their harvest history refers to
// them.
func (m *manager) SyncProviders(
	ctx context.Context,
	dps []provider.DataProvider,
) error {
	if len(dps) == 0 {
		return nil
	}

	gormDB, err := openGORM(m.operator)
	if err != nil {
		return err
	}

	rows := make([]schema.DataProvider, len(dps))
	for i := range dps {
		rows[i] = schema.NewDataProvider(dps[i])
	}

	err = gormDB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return SyncProvidersError(err)
	}

	slog.Info("Data providers synchronized", "count", len(rows))
	return nil
}

func openGORM(op db.Operator) (*gorm.DB, error) {
	pool := op.Pool()
	if pool == nil {
		return nil, NotConnectedError()
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		return nil, GORMConnectionError(err)
	}
	return gormDB, nil
}
