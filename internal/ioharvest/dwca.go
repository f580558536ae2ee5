package ioharvest

import (
	"context"

	"github.com/gnames/gnsos/internal/ioarchive"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/dwca"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// Fetcher returns a local path to the data file of a provider.
type Fetcher interface {
	Fetch(ctx context.Context, dp provider.DataProvider) (string, error)
}

// DwcaHarvester harvests the occurrence core of a Darwin Core Archive.
type DwcaHarvester struct {
	dp      provider.DataProvider
	fetcher Fetcher
	backend verbatim.Backend
	opts    []verbatim.RepoOption
}

// NewDwcaHarvester creates a harvester of a DwC-A provider.
func NewDwcaHarvester(
	dp provider.DataProvider,
	fetcher Fetcher,
	backend verbatim.Backend,
	opts ...verbatim.RepoOption,
) *DwcaHarvester {
	return &DwcaHarvester{dp: dp, fetcher: fetcher, backend: backend, opts: opts}
}

// Provider returns the harvested data provider.
func (h *DwcaHarvester) Provider() provider.DataProvider {
	return h.dp
}

// Repository returns the verbatim repository of the provider.
func (h *DwcaHarvester) Repository() *verbatim.Repository[dwca.Observation, int] {
	return verbatim.NewRepository[dwca.Observation, int](
		h.backend, h.dp.Collection(dwca.Collection), h.opts...,
	)
}

// HarvestObservations fetches the archive and reads its core in pages
// of the provider page size.
func (h *DwcaHarvester) HarvestObservations(ctx context.Context) *harvest.Info {
	f := dwca.NewFactory(harvest.NewIDSequence())
	var core *ioarchive.CoreReader
	defer func() {
		if core != nil {
			core.Close()
		}
	}()

	next := func(ctx context.Context) ([]dwca.Observation, bool, error) {
		if core == nil {
			path, err := h.fetcher.Fetch(ctx, h.dp)
			if err != nil {
				return nil, false, err
			}
			if core, err = ioarchive.OpenCore(path); err != nil {
				return nil, false, err
			}
		}

		rows, err := core.Next(pageSize(h.dp))
		if err != nil {
			return nil, false, err
		}
		return f.CastToVerbatim(rows), len(rows) == pageSize(h.dp), nil
	}

	return run(ctx, h.dp, h.Repository(), harvest.Full, next)
}
