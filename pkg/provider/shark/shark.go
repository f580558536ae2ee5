// Package shark contains verbatim observations of SHARK, the marine
// environmental data service. A dataset is a table where every row is one
// measured parameter of a sample and taxon. Rows with the same sample and
// taxon are merged into one observation with many parameters.
package shark

import (
	"fmt"
	"strings"
	"time"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/process"
)

// Collection is the verbatim collection name of SHARK observations.
const Collection = "shark_observation"

// Column names of dataset tables.
const (
	ColSampleID       = "sample_id"
	ColDyntaxaID      = "dyntaxa_id"
	ColScientificName = "scientific_name"
	ColSampleDate     = "sample_date"
	ColLatitude       = "sample_latitude_dd"
	ColLongitude      = "sample_longitude_dd"
	ColStationName    = "station_name"
	ColDatasetName    = "dataset_name"
	ColRecordedBy     = "sampler"
	ColParameter      = "parameter"
	ColValue          = "value"
	ColUnit           = "unit"
	ColDepth          = "sample_depth_m"
)

// RequiredColumns must be present in every dataset table.
var RequiredColumns = []string{ColSampleID, ColDyntaxaID}

// DatasetInfo describes a dataset available from the service.
type DatasetInfo struct {
	Name     string `json:"datasetName"`
	Type     string `json:"datasetType"`
	Modified string `json:"modified"`
}

// JSONFile is a dataset table as returned by the service.
type JSONFile struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Parameter is a measured value of an observation.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Observation is a verbatim SHARK observation.
type Observation struct {
	// ID is "<sample_id>-<dyntaxa_id>".
	ID             string      `json:"id"`
	SampleID       string      `json:"sampleId"`
	DyntaxaID      string      `json:"dyntaxaId"`
	ScientificName string      `json:"scientificName,omitempty"`
	SampleDate     *time.Time  `json:"sampleDate,omitempty"`
	Latitude       *float64    `json:"latitude,omitempty"`
	Longitude      *float64    `json:"longitude,omitempty"`
	StationName    string      `json:"stationName,omitempty"`
	DatasetName    string      `json:"datasetName,omitempty"`
	RecordedBy     string      `json:"recordedBy,omitempty"`
	Depth          string      `json:"depth,omitempty"`
	Parameters     []Parameter `json:"parameters,omitempty"`
}

// Key returns the merge key of a sample and a taxon.
func Key(sampleID, dyntaxaID string) string {
	return sampleID + "-" + dyntaxaID
}

// VerbatimID returns the merge key.
func (o Observation) VerbatimID() string { return o.ID }

// ToRecord maps the observation to Darwin Core terms. Parameters become
// measurements or facts.
func (o Observation) ToRecord() process.Record {
	res := process.Record{
		OccurrenceID:   "urn:lsid:shark:" + o.ID,
		ScientificName: o.ScientificName,
		EventStart:     o.SampleDate,
		Latitude:       o.Latitude,
		Longitude:      o.Longitude,
		Locality:       o.StationName,
		Country:        "Sweden",
		BasisOfRecord:  "HumanObservation",
		RecordedBy:     o.RecordedBy,
		DatasetName:    o.DatasetName,
	}
	if o.DyntaxaID != "" {
		res.TaxonID = "urn:lsid:dyntaxa.se:Taxon:" + o.DyntaxaID
	}
	for _, v := range o.Parameters {
		res.MeasurementFacts = append(res.MeasurementFacts, process.Measurement{
			Type:  v.Name,
			Value: v.Value,
			Unit:  v.Unit,
		})
		if strings.EqualFold(v.Name, "abundance") {
			res.IndividualCount = v.Value
		}
	}
	return res
}

// Factory converts dataset tables to observations. It also accumulates
// observations of a whole harvest run, so rows of the same sample and
// taxon from different tables end up in one observation.
type Factory struct {
	merged map[string]*Observation
	order  []string
}

// NewFactory creates a Factory with an empty accumulator.
func NewFactory() *Factory {
	return &Factory{merged: make(map[string]*Observation)}
}

// CastToVerbatim converts one table, merging its rows by sample and taxon.
// Tables without required columns give nil.
func (f *Factory) CastToVerbatim(src *JSONFile) []Observation {
	res, err := Cast(src)
	if err != nil {
		return nil
	}
	return res
}

// Cast converts one table, merging its rows by sample and taxon, in the
// order keys first appear. It returns harvest.ErrSourceDataMissing if
// required columns are absent.
func Cast(src *JSONFile) ([]Observation, error) {
	if src == nil || len(src.Rows) == 0 {
		return nil, nil
	}
	idx := make(map[string]int, len(src.Header))
	for i, v := range src.Header {
		idx[strings.ToLower(strings.TrimSpace(v))] = i
	}
	var missing []string
	for _, v := range RequiredColumns {
		if _, ok := idx[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: columns %s",
			harvest.ErrSourceDataMissing, strings.Join(missing, ", "))
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(gnlib.FixUtf8(row[i]))
	}

	byKey := make(map[string]*Observation)
	var order []string
	for _, row := range src.Rows {
		sampleID, dyntaxaID := get(row, ColSampleID), get(row, ColDyntaxaID)
		if sampleID == "" || dyntaxaID == "" {
			continue
		}
		key := Key(sampleID, dyntaxaID)
		obs, ok := byKey[key]
		if !ok {
			obs = &Observation{
				ID:             key,
				SampleID:       sampleID,
				DyntaxaID:      dyntaxaID,
				ScientificName: get(row, ColScientificName),
				Latitude:       harvest.ParseFloat(get(row, ColLatitude)),
				Longitude:      harvest.ParseFloat(get(row, ColLongitude)),
				StationName:    get(row, ColStationName),
				DatasetName:    get(row, ColDatasetName),
				RecordedBy:     get(row, ColRecordedBy),
				Depth:          get(row, ColDepth),
			}
			if t, ok := harvest.ParseTime(get(row, ColSampleDate)); ok {
				obs.SampleDate = &t
			}
			byKey[key] = obs
			order = append(order, key)
		}
		obs.addParameter(Parameter{
			Name:  get(row, ColParameter),
			Value: get(row, ColValue),
			Unit:  get(row, ColUnit),
		})
	}

	res := make([]Observation, 0, len(order))
	for _, k := range order {
		res = append(res, *byKey[k])
	}
	return res, nil
}

// Add converts a table and merges its observations into the accumulator.
func (f *Factory) Add(src *JSONFile) error {
	obs, err := Cast(src)
	if err != nil {
		return err
	}
	for _, v := range obs {
		acc, ok := f.merged[v.ID]
		if !ok {
			o := v
			f.merged[v.ID] = &o
			f.order = append(f.order, v.ID)
			continue
		}
		for _, p := range v.Parameters {
			acc.addParameter(p)
		}
	}
	return nil
}

// Len returns the number of accumulated observations.
func (f *Factory) Len() int {
	return len(f.order)
}

// Drain returns accumulated observations in the order they first appeared
// and empties the accumulator.
func (f *Factory) Drain() []Observation {
	res := make([]Observation, 0, len(f.order))
	for _, k := range f.order {
		res = append(res, *f.merged[k])
	}
	f.merged = make(map[string]*Observation)
	f.order = nil
	return res
}

// addParameter appends a parameter unless it is empty or already known.
func (o *Observation) addParameter(p Parameter) {
	if p.Name == "" && p.Value == "" {
		return
	}
	for _, v := range o.Parameters {
		if v == p {
			return
		}
	}
	o.Parameters = append(o.Parameters, p)
}
