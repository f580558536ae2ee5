// Package obsdb contains verbatim observations from SQLite exports of
// observation databases. Export rows have their own stable int64 IDs,
// which become IDs of verbatim observations.
package obsdb

import (
	"strings"
	"time"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnsos/pkg/process"
)

// Collection is the verbatim collection name of exported observations.
const Collection = "obsdb_observation"

// Row is a row of the observation table of an export.
type Row struct {
	ID             int64
	TaxonName      string
	VernacularName string
	Kingdom        string
	ObservedAt     *time.Time
	Latitude       *float64
	Longitude      *float64
	Accuracy       int
	Site           string
	Municipality   string
	Count          string
	Observer       string
	Project        string
	Modified       time.Time
	IsDeleted      bool
}

// Observation is a verbatim exported observation.
type Observation struct {
	ID             int64      `json:"id"`
	TaxonName      string     `json:"taxonName"`
	VernacularName string     `json:"vernacularName,omitempty"`
	Kingdom        string     `json:"kingdom,omitempty"`
	ObservedAt     *time.Time `json:"observedAt,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	Accuracy       int        `json:"accuracy,omitempty"`
	Site           string     `json:"site,omitempty"`
	Municipality   string     `json:"municipality,omitempty"`
	Count          string     `json:"count,omitempty"`
	Observer       string     `json:"observer,omitempty"`
	Project        string     `json:"project,omitempty"`
	Modified       time.Time  `json:"modified"`
}

// VerbatimID returns the ID of the export row.
func (o Observation) VerbatimID() int64 { return o.ID }

// LastModified returns when the row was changed.
func (o Observation) LastModified() time.Time { return o.Modified }

// ToRecord maps the observation to Darwin Core terms.
func (o Observation) ToRecord() process.Record {
	return process.Record{
		ScientificName:  o.TaxonName,
		VernacularName:  o.VernacularName,
		Kingdom:         o.Kingdom,
		EventStart:      o.ObservedAt,
		Latitude:        o.Latitude,
		Longitude:       o.Longitude,
		UncertaintyM:    o.Accuracy,
		Locality:        o.Site,
		County:          o.Municipality,
		IndividualCount: o.Count,
		BasisOfRecord:   "HumanObservation",
		RecordedBy:      o.Observer,
		DatasetName:     o.Project,
		Modified:        o.Modified,
	}
}

// Factory converts export rows to observations.
type Factory struct{}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CastToVerbatim converts rows. Deleted rows and rows without taxon are
// skipped.
func (f *Factory) CastToVerbatim(rows []Row) []Observation {
	if len(rows) == 0 {
		return nil
	}
	res := make([]Observation, 0, len(rows))
	for _, v := range rows {
		name := clean(v.TaxonName)
		if v.IsDeleted || name == "" {
			continue
		}
		res = append(res, Observation{
			ID:             v.ID,
			TaxonName:      name,
			VernacularName: clean(v.VernacularName),
			Kingdom:        clean(v.Kingdom),
			ObservedAt:     v.ObservedAt,
			Latitude:       v.Latitude,
			Longitude:      v.Longitude,
			Accuracy:       v.Accuracy,
			Site:           clean(v.Site),
			Municipality:   clean(v.Municipality),
			Count:          clean(v.Count),
			Observer:       clean(v.Observer),
			Project:        clean(v.Project),
			Modified:       v.Modified,
		})
	}
	return res
}

func clean(s string) string {
	return strings.TrimSpace(gnlib.FixUtf8(s))
}
