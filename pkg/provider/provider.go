// Package provider describes data providers of species observations.
//
// Providers are configured in providers.yaml. Every provider has a type
// that selects a harvester and a source that tells the harvester where
// data lives (a web service URL, a file path, an http(s) URL or an
// s3://bucket/key location).
package provider

import (
	"time"
)

// Registry loads configured data providers.
type Registry interface {
	Load() (*ProvidersConfig, error)
}

// Type selects how data of a provider is harvested.
type Type string

const (
	// MVM is a paged web service of observations with a change-id cursor.
	MVM Type = "mvm"
	// Shark is a web service of datasets in a tabular JSON format.
	Shark Type = "shark"
	// DwcA is a Darwin Core Archive with an occurrence core.
	DwcA Type = "dwca"
	// ObsDB is a SQLite export of an observation database.
	ObsDB Type = "obsdb"
)

// LocalIDs tells if verbatim IDs of the type are numbered by each
// harvest, so the same record gets a different ID in the next run.
func (t Type) LocalIDs() bool {
	return t == MVM || t == DwcA
}

// Types lists all supported provider types.
var Types = []Type{MVM, Shark, DwcA, ObsDB}

// Default settings of providers.
const (
	DefaultHarvestInterval = "24h"
	DefaultPageDelay       = "1s"
)

var defaultPageSize = map[Type]int{
	MVM:   1_000,
	Shark: 0,
	DwcA:  10_000,
	ObsDB: 10_000,
}

// ProvidersConfig represents the providers.yaml file.
type ProvidersConfig struct {
	// DataProviders is the list of configured data providers.
	DataProviders []DataProvider `yaml:"data_providers"`

	// Warnings holds non-fatal validation warnings (not serialized).
	Warnings []ValidationWarning `yaml:"-"`
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	DataProviderID int    // ID of the data provider
	Field          string // Field name that has the issue
	Message        string // Description of the issue
	Suggestion     string // How to fix it
}

// DataProvider represents configuration of one data provider.
type DataProvider struct {
	// ID is a unique positive number of the provider.
	ID int `yaml:"id"`

	// Identifier is a unique short name, for example "artportalen".
	// It is used for lock keys, metrics labels and event keys.
	Identifier string `yaml:"identifier"`

	// Name is a human readable name of the provider.
	Name string `yaml:"name"`

	// Description is an optional description of the provider.
	Description string `yaml:"description,omitempty"`

	// Organization that publishes data.
	Organization string `yaml:"organization,omitempty"`

	// Type is one of "mvm", "shark", "dwca", "obsdb".
	Type Type `yaml:"type"`

	// Source is a base URL of a web service, a path to a file, an http(s)
	// URL of a file or s3://bucket/key location.
	Source string `yaml:"source"`

	// IsActive providers are harvested when no IDs are requested.
	IsActive bool `yaml:"is_active"`

	// SupportsIncremental allows harvesting only changed records.
	SupportsIncremental bool `yaml:"supports_incremental,omitempty"`

	// HarvestInterval is a Go duration between scheduled harvests.
	HarvestInterval string `yaml:"harvest_interval,omitempty"`

	// PageSize is the number of records requested or read at once.
	PageSize int `yaml:"page_size,omitempty"`

	// PageDelay is a Go duration of a pause between web service calls.
	PageDelay string `yaml:"page_delay,omitempty"`

	// MaxRecords stops a harvest after so many records. Zero means no
	// limit.
	MaxRecords int `yaml:"max_records,omitempty"`

	// Datasets is the allow-list of substrings of SHARK dataset names.
	// Empty list harvests all datasets.
	Datasets []string `yaml:"datasets,omitempty"`
}

// DefaultPageSize returns the page size of a provider type.
func DefaultPageSize(t Type) int {
	if res, ok := defaultPageSize[t]; ok && res > 0 {
		return res
	}
	return 1_000
}

// Interval returns HarvestInterval as a duration.
func (d DataProvider) Interval() time.Duration {
	return parseDuration(d.HarvestInterval, DefaultHarvestInterval)
}

// Delay returns PageDelay as a duration.
func (d DataProvider) Delay() time.Duration {
	return parseDuration(d.PageDelay, DefaultPageDelay)
}

// Collection is the name of the verbatim collection of the provider,
// base is the collection name of the entity type. Providers of the same
// type get separate collections.
func (d DataProvider) Collection(base string) string {
	return base + "_" + d.Identifier
}

func parseDuration(s, def string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	d, _ := time.ParseDuration(def)
	return d
}
