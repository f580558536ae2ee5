package ioharvest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/provider/shark"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// SharkSource lists datasets and returns their tables.
type SharkSource interface {
	GetDatasets(ctx context.Context) ([]shark.DatasetInfo, error)
	GetDataset(ctx context.Context, name string) (*shark.JSONFile, error)
}

// SharkHarvester harvests datasets of the SHARK service. Rows of the
// same sample and taxon are merged across all datasets of a run, so
// merged observations are written after the last dataset is read.
type SharkHarvester struct {
	dp      provider.DataProvider
	src     SharkSource
	backend verbatim.Backend
	opts    []verbatim.RepoOption
}

// NewSharkHarvester creates a harvester of a SHARK provider.
func NewSharkHarvester(
	dp provider.DataProvider,
	src SharkSource,
	backend verbatim.Backend,
	opts ...verbatim.RepoOption,
) *SharkHarvester {
	return &SharkHarvester{dp: dp, src: src, backend: backend, opts: opts}
}

// Provider returns the harvested data provider.
func (h *SharkHarvester) Provider() provider.DataProvider {
	return h.dp
}

// Repository returns the verbatim repository of the provider.
func (h *SharkHarvester) Repository() *verbatim.Repository[shark.Observation, string] {
	return verbatim.NewRepository[shark.Observation, string](
		h.backend, h.dp.Collection(shark.Collection), h.opts...,
	)
}

// HarvestObservations reads datasets allowed by the provider settings
// one by one. Cancellation is checked between datasets.
func (h *SharkHarvester) HarvestObservations(ctx context.Context) *harvest.Info {
	f := shark.NewFactory()
	var names []string
	var listed bool

	next := func(ctx context.Context) ([]shark.Observation, bool, error) {
		if !listed {
			listed = true
			var err error
			if names, err = h.datasets(ctx); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}

		capped := h.dp.MaxRecords > 0 && f.Len() >= h.dp.MaxRecords
		if len(names) == 0 || capped {
			return f.Drain(), false, nil
		}

		name := names[0]
		names = names[1:]
		slog.Info("Reading SHARK dataset", "provider", h.dp.Identifier, "dataset", name)
		file, err := h.src.GetDataset(ctx, name)
		if err != nil {
			return nil, false, err
		}
		if file == nil {
			return nil, false, SourceDataMissingError(h.dp.Identifier,
				"dataset "+name, errors.New("empty response"))
		}
		if err = f.Add(file); err != nil {
			return nil, false, SourceDataMissingError(h.dp.Identifier,
				"dataset "+name, err)
		}
		return nil, true, nil
	}

	return run(ctx, h.dp, h.Repository(), harvest.Full, next)
}

// datasets returns names of datasets that contain any of the allowed
// substrings. Empty allow-list keeps all datasets.
func (h *SharkHarvester) datasets(ctx context.Context) ([]string, error) {
	list, err := h.src.GetDatasets(ctx)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, v := range list {
		if allowed(v.Name, h.dp.Datasets) {
			res = append(res, v.Name)
		}
	}
	if len(res) == 0 {
		return nil, SourceDataMissingError(h.dp.Identifier, "dataset list",
			errors.New("no datasets to harvest"))
	}
	slog.Info("SHARK datasets selected",
		"provider", h.dp.Identifier, "datasets", len(res), "available", len(list))
	return res, nil
}

func allowed(name string, allow []string) bool {
	if name == "" {
		return false
	}
	if len(allow) == 0 {
		return true
	}
	for _, v := range allow {
		if strings.Contains(name, v) {
			return true
		}
	}
	return false
}
