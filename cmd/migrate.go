/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/iopg"
	"github.com/gnames/gnsos/internal/ioschema"
	"github.com/gnames/gnsos/pkg/db"
	"github.com/spf13/cobra"
)

// getMigrateCmd returns the migrate command.
func getMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Update bookkeeping tables and data providers",
		Long: `Migrate brings bookkeeping tables of an existing database to
the current version and copies providers.yaml into data_providers.

Verbatim and processed collections are not touched, the command lists
them at the end.

Examples:
  gnsos migrate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runMigrate(cmd.Context()); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	op, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer op.Close()

	hasTables, err := op.HasTables(ctx)
	if err != nil {
		return err
	}
	if !hasTables {
		gn.Warn(`Database is empty, nothing to migrate.
	Run 'gnsos create' first to initialize the schema.`)
		return nil
	}

	sm := ioschema.NewManager(op)
	gn.Info("Migrating bookkeeping tables...")
	if err = sm.Migrate(ctx); err != nil {
		return err
	}
	if err = syncProviders(ctx, sm); err != nil {
		return err
	}

	return reportCollections(ctx, op)
}

// reportCollections prints verbatim and processed collections kept by
// the database.
func reportCollections(ctx context.Context, op db.Operator) error {
	tables, err := op.Tables(ctx, iopg.TablePrefix)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		gn.Info("No harvested collections yet.")
		return nil
	}

	gn.Info("Kept <em>%s</em> collections:", humanize.Comma(int64(len(tables))))
	for _, v := range tables {
		gn.Info("  %s", strings.TrimPrefix(v, iopg.TablePrefix))
	}
	return nil
}
