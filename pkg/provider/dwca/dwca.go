// Package dwca contains verbatim observations read from the occurrence
// core of Darwin Core Archives.
package dwca

import (
	"maps"
	"strings"
	"time"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/process"
)

// Collection is the verbatim collection name of DwC-A observations.
const Collection = "dwca_observation"

// Row is an occurrence core row. Keys are simple Darwin Core term names,
// for example "scientificName".
type Row map[string]string

// Observation is a verbatim DwC-A observation.
type Observation struct {
	ID                            int               `json:"id"`
	OccurrenceID                  string            `json:"occurrenceID"`
	BasisOfRecord                 string            `json:"basisOfRecord,omitempty"`
	ScientificName                string            `json:"scientificName"`
	VernacularName                string            `json:"vernacularName,omitempty"`
	TaxonID                       string            `json:"taxonID,omitempty"`
	Kingdom                       string            `json:"kingdom,omitempty"`
	EventDate                     string            `json:"eventDate,omitempty"`
	DecimalLatitude               string            `json:"decimalLatitude,omitempty"`
	DecimalLongitude              string            `json:"decimalLongitude,omitempty"`
	CoordinateUncertaintyInMeters string            `json:"coordinateUncertaintyInMeters,omitempty"`
	Locality                      string            `json:"locality,omitempty"`
	County                        string            `json:"county,omitempty"`
	Country                       string            `json:"country,omitempty"`
	IndividualCount               string            `json:"individualCount,omitempty"`
	OrganismQuantity              string            `json:"organismQuantity,omitempty"`
	OrganismQuantityType          string            `json:"organismQuantityType,omitempty"`
	RecordedBy                    string            `json:"recordedBy,omitempty"`
	DatasetName                   string            `json:"datasetName,omitempty"`
	Modified                      time.Time         `json:"modified"`
	Other                         map[string]string `json:"other,omitempty"`
}

// VerbatimID returns the local ID.
func (o Observation) VerbatimID() int { return o.ID }

// LastModified returns the dcterms:modified of the record.
func (o Observation) LastModified() time.Time { return o.Modified }

// ToRecord maps the observation to a processed record.
func (o Observation) ToRecord() process.Record {
	res := process.Record{
		OccurrenceID:    o.OccurrenceID,
		ScientificName:  o.ScientificName,
		VernacularName:  o.VernacularName,
		TaxonID:         o.TaxonID,
		Kingdom:         o.Kingdom,
		Latitude:        harvest.ParseFloat(o.DecimalLatitude),
		Longitude:       harvest.ParseFloat(o.DecimalLongitude),
		Locality:        o.Locality,
		County:          o.County,
		Country:         o.Country,
		IndividualCount: o.IndividualCount,
		Quantity:        o.OrganismQuantity,
		QuantityUnit:    o.OrganismQuantityType,
		BasisOfRecord:   o.BasisOfRecord,
		RecordedBy:      o.RecordedBy,
		DatasetName:     o.DatasetName,
		Modified:        o.Modified,
	}
	res.EventStart, res.EventEnd = harvest.ParseInterval(o.EventDate)
	if f := harvest.ParseFloat(o.CoordinateUncertaintyInMeters); f != nil {
		res.UncertaintyM = int(*f)
	}
	return res
}

// Factory converts occurrence rows to observations.
type Factory struct {
	seq *harvest.IDSequence
}

// NewFactory creates a factory that takes IDs from seq.
func NewFactory(seq *harvest.IDSequence) *Factory {
	return &Factory{seq: seq}
}

// CastToVerbatim converts rows. Terms that have no field are kept in
// Other.
func (f *Factory) CastToVerbatim(rows []Row) []Observation {
	if len(rows) == 0 {
		return nil
	}
	res := make([]Observation, 0, len(rows))
	for _, row := range rows {
		res = append(res, f.cast(row))
	}
	return res
}

func (f *Factory) cast(row Row) Observation {
	other := maps.Clone(row)
	take := func(term string) string {
		v := row[term]
		delete(other, term)
		return strings.TrimSpace(gnlib.FixUtf8(v))
	}

	res := Observation{
		ID:                            f.seq.Next(),
		OccurrenceID:                  take("occurrenceID"),
		BasisOfRecord:                 take("basisOfRecord"),
		ScientificName:                take("scientificName"),
		VernacularName:                take("vernacularName"),
		TaxonID:                       take("taxonID"),
		Kingdom:                       take("kingdom"),
		EventDate:                     take("eventDate"),
		DecimalLatitude:               take("decimalLatitude"),
		DecimalLongitude:              take("decimalLongitude"),
		CoordinateUncertaintyInMeters: take("coordinateUncertaintyInMeters"),
		Locality:                      take("locality"),
		County:                        take("county"),
		Country:                       take("country"),
		IndividualCount:               take("individualCount"),
		OrganismQuantity:              take("organismQuantity"),
		OrganismQuantityType:          take("organismQuantityType"),
		RecordedBy:                    take("recordedBy"),
		DatasetName:                   take("datasetName"),
	}
	if t, ok := harvest.ParseTime(take("modified")); ok {
		res.Modified = t
	}
	if res.OccurrenceID == "" {
		res.OccurrenceID = take("id")
	}
	delete(other, "id")
	for k, v := range other {
		if strings.TrimSpace(v) == "" {
			delete(other, k)
		}
	}
	if len(other) > 0 {
		res.Other = other
	}
	return res
}

// Modified returns dcterms:modified of a raw row.
func (r Row) Modified() (time.Time, bool) {
	return harvest.ParseTime(r["modified"])
}
