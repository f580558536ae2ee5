// Package schema provides GORM models of the bookkeeping tables of
// GNsos. Verbatim collections are not described here, their tables are
// created on demand by the verbatim store.
package schema

import (
	"strings"
	"time"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider"
)

// HarvestInfo is a saved result of one harvest run.
type HarvestInfo struct {
	// RunID is a UUID of the run.
	RunID string `gorm:"primaryKey;type:uuid"`

	// Identifier of the data provider.
	Identifier string `gorm:"type:varchar(100);not null;index:idx_harvest_provider_end,priority:1"`

	// DataProviderID is the numeric ID of the data provider.
	DataProviderID int `gorm:"not null"`

	StartedAt time.Time `gorm:"not null"`
	EndedAt   time.Time `gorm:"index:idx_harvest_provider_end,priority:2"`

	// Status is one of not_yet_run, success, failed, canceled.
	Status string `gorm:"type:varchar(20);not null;index"`

	// Mode is full or incremental.
	Mode string `gorm:"type:varchar(20);not null"`

	Count           int
	PreHarvestCount int64

	// DataLastModified is the watermark of harvested records.
	DataLastModified *time.Time

	Notes string `gorm:"type:text"`
}

// DataProvider mirrors providers.yaml for downstream services.
type DataProvider struct {
	// ID is the ID from providers.yaml, it is not generated.
	ID int `gorm:"primaryKey;autoIncrement:false"`

	Identifier   string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(255);not null"`
	Description  string `gorm:"type:text"`
	Organization string `gorm:"type:varchar(255)"`
	Type         string `gorm:"type:varchar(20);not null"`
	Source       string `gorm:"type:text;not null"`

	IsActive            bool
	SupportsIncremental bool

	HarvestInterval string `gorm:"type:varchar(50)"`

	// Datasets is a list of SHARK dataset filters separated by '|'.
	Datasets string `gorm:"type:text"`

	UpdatedAt time.Time
}

// NewHarvestInfo creates a row from a harvest result.
func NewHarvestInfo(info *harvest.Info) HarvestInfo {
	res := HarvestInfo{
		RunID:           info.RunID,
		Identifier:      info.ID,
		DataProviderID:  info.DataProviderID,
		StartedAt:       info.Start,
		EndedAt:         info.End,
		Status:          info.Status.String(),
		Mode:            info.Mode.String(),
		Count:           info.Count,
		PreHarvestCount: info.PreHarvestCount,
		Notes:           info.Notes,
	}
	if info.DataLastModified != nil {
		t := *info.DataLastModified
		res.DataLastModified = &t
	}
	return res
}

// ToInfo converts a row back to harvest.Info.
func (h HarvestInfo) ToInfo() *harvest.Info {
	return &harvest.Info{
		ID:               h.Identifier,
		DataProviderID:   h.DataProviderID,
		RunID:            h.RunID,
		Start:            h.StartedAt,
		End:              h.EndedAt,
		Status:           harvest.NewStatus(h.Status),
		Count:            h.Count,
		DataLastModified: h.DataLastModified,
		PreHarvestCount:  h.PreHarvestCount,
		Mode:             harvest.NewMode(h.Mode),
		Notes:            h.Notes,
	}
}

// NewDataProvider creates a row from the provider registry.
func NewDataProvider(dp provider.DataProvider) DataProvider {
	return DataProvider{
		ID:                  dp.ID,
		Identifier:          dp.Identifier,
		Name:                dp.Name,
		Description:         dp.Description,
		Organization:        dp.Organization,
		Type:                string(dp.Type),
		Source:              dp.Source,
		IsActive:            dp.IsActive,
		SupportsIncremental: dp.SupportsIncremental,
		HarvestInterval:     dp.Interval().String(),
		Datasets:            strings.Join(dp.Datasets, "|"),
	}
}
