// Package gnsos provides version information and the top level
// interfaces of the species observation harvesting pipeline.
package gnsos

import (
	"context"
	"time"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
)

var (
	// Version is set by build flags.
	Version = "v0.1.0"
	// Build is a timestamp of the build, set by build flags.
	Build = "n/a"
)

// Harvester runs one full harvest of a data provider into its verbatim
// collection. It never returns an error: the outcome is reported by
// the Status of the returned HarvestInfo.
type Harvester interface {
	// Provider returns the data provider this harvester works with.
	Provider() provider.DataProvider

	// HarvestObservations harvests all records of the provider into a
	// shadow collection and promotes it on success.
	HarvestObservations(ctx context.Context) *harvest.Info
}

// IncrementalHarvester is implemented by harvesters whose source can
// return only records changed after a given time.
type IncrementalHarvester interface {
	Harvester

	// HarvestIncremental harvests records modified after since and merges
	// them into the permanent collection on success.
	HarvestIncremental(ctx context.Context, since time.Time) *harvest.Info
}

// Processor maps the verbatim collection of a provider into processed
// observations.
type Processor interface {
	// Process returns the number of processed observations.
	Process(ctx context.Context, dp provider.DataProvider) (int, error)
}

// SchemaManager creates bookkeeping tables of the database and keeps
// the data_providers table in sync with providers.yaml.
type SchemaManager interface {
	// Create creates tables from scratch.
	Create(ctx context.Context) error

	// Migrate updates tables to the current version of models.
	Migrate(ctx context.Context) error

	// SyncProviders inserts or updates rows of data providers.
	SyncProviders(ctx context.Context, dps []provider.DataProvider) error
}
