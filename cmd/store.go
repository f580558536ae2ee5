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
	"errors"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/iodb"
	"github.com/gnames/gnsos/internal/iomem"
	"github.com/gnames/gnsos/internal/iometrics"
	"github.com/gnames/gnsos/internal/iopg"
	"github.com/gnames/gnsos/internal/ioschema"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/db"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// store holds the verbatim backend and the store of harvest results
// selected by the store.backend setting.
type store struct {
	backend verbatim.Backend
	infos   harvest.InfoStore
	op      db.Operator
}

// openStore connects to the configured store. With the memory backend
// nothing is kept after the command exits.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.Store.Backend == "memory" {
		gn.Warn("Using <em>memory</em> store, data is lost on exit")
		return &store{backend: iomem.New(), infos: iomem.NewInfoStore()}, nil
	}

	op, err := connectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exists, err := op.TableExists(ctx, "harvest_infos")
	if err != nil {
		op.Close()
		return nil, err
	}
	if !exists {
		op.Close()
		return nil, &gn.Error{
			Code: errcode.DBEmptyDatabaseError,
			Msg: `<err>Database appears to be empty.</err>
   Run <em>'gnsos create'</em> first to initialize the schema.`,
			Err: errors.New("harvest_infos table does not exist"),
		}
	}

	infos, err := ioschema.NewInfoStore(op)
	if err != nil {
		op.Close()
		return nil, err
	}
	return &store{backend: iopg.New(op.Pool()), infos: infos, op: op}, nil
}

// connectDB connects to PostgreSQL of the database section.
func connectDB(ctx context.Context, cfg *config.Config) (db.Operator, error) {
	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return nil, err
	}
	d := cfg.Database
	gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
		d.User, d.Host, d.Port, d.Database)
	return op, nil
}

// Close releases the database connection.
func (s *store) Close() {
	if s.op != nil {
		s.op.Close()
	}
}

// repoOptions are settings of every verbatim repository.
func repoOptions(cfg *config.Config) []verbatim.RepoOption {
	return []verbatim.RepoOption{
		verbatim.OptBatchSize(cfg.Database.BatchSize),
		verbatim.OptSplitJobs(cfg.JobsNumber),
		verbatim.OptObserver(iometrics.Observer{}),
	}
}
