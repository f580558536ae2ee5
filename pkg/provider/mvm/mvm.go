// Package mvm contains verbatim observations of the MVM web service of
// environmental monitoring data. The service returns observations changed
// after a change-id cursor, MaxChangeID of a page moves the cursor and
// zero MaxChangeID means there are no more changes.
package mvm

import (
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/process"
)

// Collection is the verbatim collection name of MVM observations.
const Collection = "mvm_observation"

// ObservationsResponse is a page of the web service.
type ObservationsResponse struct {
	Observations []WebServiceObservation `json:"observations"`
	MaxChangeID  int64                   `json:"maxChangeId"`
}

// WebServiceObservation is an observation as returned by the service.
type WebServiceObservation struct {
	OccurrenceID    string  `json:"occurrenceId"`
	ReportID        string  `json:"reportId"`
	SampleID        string  `json:"sampleId"`
	DyntaxaTaxonID  int     `json:"dyntaxaTaxonId"`
	ScientificName  string  `json:"scientificName"`
	SwedishName     string  `json:"swedishName"`
	Kingdom         string  `json:"kingdom"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate"`
	DecimalLat      float64 `json:"decimalLatitude"`
	DecimalLon      float64 `json:"decimalLongitude"`
	CoordUncertainM int     `json:"coordinateUncertaintyInMeters"`
	Locality        string  `json:"locality"`
	Municipality    string  `json:"municipality"`
	County          string  `json:"county"`
	Quantity        string  `json:"quantity"`
	QuantityUnit    string  `json:"quantityUnit"`
	RecordedBy      string  `json:"recordedBy"`
	ProductName     string  `json:"productName"`
	Modified        string  `json:"modified"`
	IsDeleted       bool    `json:"isDeleted"`
}

// Observation is a verbatim MVM observation.
type Observation struct {
	ID              int        `json:"id"`
	OccurrenceID    string     `json:"occurrenceId"`
	ReportID        string     `json:"reportId"`
	SampleID        string     `json:"sampleId"`
	DyntaxaTaxonID  int        `json:"dyntaxaTaxonId"`
	ScientificName  string     `json:"scientificName"`
	SwedishName     string     `json:"swedishName,omitempty"`
	Kingdom         string     `json:"kingdom,omitempty"`
	Start           *time.Time `json:"start,omitempty"`
	End             *time.Time `json:"end,omitempty"`
	DecimalLat      float64    `json:"decimalLatitude"`
	DecimalLon      float64    `json:"decimalLongitude"`
	CoordUncertainM int        `json:"coordinateUncertaintyInMeters,omitempty"`
	Locality        string     `json:"locality,omitempty"`
	Municipality    string     `json:"municipality,omitempty"`
	County          string     `json:"county,omitempty"`
	Quantity        string     `json:"quantity,omitempty"`
	QuantityUnit    string     `json:"quantityUnit,omitempty"`
	RecordedBy      string     `json:"recordedBy,omitempty"`
	ProductName     string     `json:"productName,omitempty"`
	Modified        time.Time  `json:"modified"`
}

// VerbatimID returns the local ID.
func (o Observation) VerbatimID() int { return o.ID }

// LastModified returns when the observation was changed at the source.
func (o Observation) LastModified() time.Time { return o.Modified }

// ToRecord maps the observation to Darwin Core terms.
func (o Observation) ToRecord() process.Record {
	res := process.Record{
		OccurrenceID:    o.OccurrenceID,
		ScientificName:  o.ScientificName,
		VernacularName:  o.SwedishName,
		Kingdom:         o.Kingdom,
		EventStart:      o.Start,
		EventEnd:        o.End,
		UncertaintyM:    o.CoordUncertainM,
		Locality:        o.Locality,
		County:          o.County,
		Country:         "Sweden",
		IndividualCount: o.Quantity,
		Quantity:        o.Quantity,
		QuantityUnit:    o.QuantityUnit,
		BasisOfRecord:   "HumanObservation",
		RecordedBy:      o.RecordedBy,
		DatasetName:     o.ProductName,
		Modified:        o.Modified,
	}
	if o.DyntaxaTaxonID > 0 {
		res.TaxonID = "urn:lsid:dyntaxa.se:Taxon:" + strconv.Itoa(o.DyntaxaTaxonID)
	}
	if o.DecimalLat != 0 || o.DecimalLon != 0 {
		lat, lon := o.DecimalLat, o.DecimalLon
		res.Latitude, res.Longitude = &lat, &lon
	}
	return res
}

// Factory converts pages of the web service to verbatim observations.
type Factory struct {
	seq *harvest.IDSequence
}

// NewFactory creates a factory that takes IDs from seq.
func NewFactory(seq *harvest.IDSequence) *Factory {
	return &Factory{seq: seq}
}

// CastToVerbatim converts a page. Deleted observations are skipped.
func (f *Factory) CastToVerbatim(src *ObservationsResponse) []Observation {
	if src == nil || len(src.Observations) == 0 {
		return nil
	}
	res := make([]Observation, 0, len(src.Observations))
	for _, v := range src.Observations {
		if v.IsDeleted {
			continue
		}
		res = append(res, f.cast(v))
	}
	return res
}

func (f *Factory) cast(v WebServiceObservation) Observation {
	res := Observation{
		ID:              f.seq.Next(),
		OccurrenceID:    clean(v.OccurrenceID),
		ReportID:        clean(v.ReportID),
		SampleID:        clean(v.SampleID),
		DyntaxaTaxonID:  v.DyntaxaTaxonID,
		ScientificName:  clean(v.ScientificName),
		SwedishName:     clean(v.SwedishName),
		Kingdom:         clean(v.Kingdom),
		DecimalLat:      v.DecimalLat,
		DecimalLon:      v.DecimalLon,
		CoordUncertainM: v.CoordUncertainM,
		Locality:        clean(v.Locality),
		Municipality:    clean(v.Municipality),
		County:          clean(v.County),
		Quantity:        clean(v.Quantity),
		QuantityUnit:    clean(v.QuantityUnit),
		RecordedBy:      clean(v.RecordedBy),
		ProductName:     clean(v.ProductName),
	}
	if t, ok := harvest.ParseTime(v.StartDate); ok {
		res.Start = &t
	}
	if t, ok := harvest.ParseTime(v.EndDate); ok {
		res.End = &t
	}
	if t, ok := harvest.ParseTime(v.Modified); ok {
		res.Modified = t
	}
	if res.OccurrenceID == "" && res.ReportID != "" {
		res.OccurrenceID = "urn:lsid:mvm:" + res.ReportID
	}
	return res
}

func clean(s string) string {
	return strings.TrimSpace(gnlib.FixUtf8(s))
}
