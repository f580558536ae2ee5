package ioharvest

import (
	"context"
	"time"

	"github.com/gnames/gnsos/internal/ioobsdb"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/obsdb"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// ObsDBHarvester harvests SQLite exports of observation databases.
// Export rows keep their IDs between exports, so changed rows can be
// merged into the permanent collection.
type ObsDBHarvester struct {
	dp      provider.DataProvider
	fetcher Fetcher
	backend verbatim.Backend
	opts    []verbatim.RepoOption
}

// NewObsDBHarvester creates a harvester of an export provider.
func NewObsDBHarvester(
	dp provider.DataProvider,
	fetcher Fetcher,
	backend verbatim.Backend,
	opts ...verbatim.RepoOption,
) *ObsDBHarvester {
	return &ObsDBHarvester{dp: dp, fetcher: fetcher, backend: backend, opts: opts}
}

// Provider returns the harvested data provider.
func (h *ObsDBHarvester) Provider() provider.DataProvider {
	return h.dp
}

// Repository returns the verbatim repository of the provider.
func (h *ObsDBHarvester) Repository() *verbatim.Repository[obsdb.Observation, int64] {
	return verbatim.NewRepository[obsdb.Observation, int64](
		h.backend, h.dp.Collection(obsdb.Collection), h.opts...,
	)
}

// HarvestObservations replaces the collection with all rows of the
// export.
func (h *ObsDBHarvester) HarvestObservations(ctx context.Context) *harvest.Info {
	return h.harvest(ctx, harvest.Full, time.Time{})
}

// HarvestIncremental merges rows modified after since into the
// collection.
func (h *ObsDBHarvester) HarvestIncremental(
	ctx context.Context,
	since time.Time,
) *harvest.Info {
	return h.harvest(ctx, harvest.Incremental, since)
}

func (h *ObsDBHarvester) harvest(
	ctx context.Context,
	mode harvest.Mode,
	since time.Time,
) *harvest.Info {
	f := obsdb.NewFactory()
	var r *ioobsdb.Reader
	var lastID int64
	defer func() {
		if r != nil {
			r.Close()
		}
	}()

	next := func(ctx context.Context) ([]obsdb.Observation, bool, error) {
		if r == nil {
			path, err := h.fetcher.Fetch(ctx, h.dp)
			if err != nil {
				return nil, false, err
			}
			if r, err = ioobsdb.Open(path); err != nil {
				return nil, false, err
			}
		}

		rows, err := r.Page(ctx, lastID, since, pageSize(h.dp))
		if err != nil {
			return nil, false, err
		}
		if len(rows) == 0 {
			return nil, false, nil
		}
		lastID = rows[len(rows)-1].ID
		return f.CastToVerbatim(rows), len(rows) == pageSize(h.dp), nil
	}

	return run(ctx, h.dp, h.Repository(), mode, next)
}
