// Package process describes processed observations. Processed
// observations are verbatim records of any provider mapped to a common set
// of Darwin Core terms with a parsed scientific name and validated
// coordinates and dates.
package process

import (
	"fmt"
	"time"
)

// Collection is the base name of processed observation collections.
const Collection = "processed_observation"

// StateCollection keeps ActiveInstance of every provider.
const StateCollection = "process_state"

// Recorder is implemented by verbatim entities that can be processed.
type Recorder interface {
	ToRecord() Record
}

// Measurement is a measurement or fact about an observation.
type Measurement struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Record is a flat set of Darwin Core terms extracted from a verbatim
// entity.
type Record struct {
	OccurrenceID     string        `json:"occurrenceId"`
	ScientificName   string        `json:"scientificName"`
	VernacularName   string        `json:"vernacularName,omitempty"`
	TaxonID          string        `json:"taxonId,omitempty"`
	Kingdom          string        `json:"kingdom,omitempty"`
	EventStart       *time.Time    `json:"eventStart,omitempty"`
	EventEnd         *time.Time    `json:"eventEnd,omitempty"`
	Latitude         *float64      `json:"decimalLatitude,omitempty"`
	Longitude        *float64      `json:"decimalLongitude,omitempty"`
	UncertaintyM     int           `json:"coordinateUncertaintyInMeters,omitempty"`
	Locality         string        `json:"locality,omitempty"`
	County           string        `json:"county,omitempty"`
	Country          string        `json:"country,omitempty"`
	IndividualCount  string        `json:"individualCount,omitempty"`
	Quantity         string        `json:"organismQuantity,omitempty"`
	QuantityUnit     string        `json:"organismQuantityType,omitempty"`
	BasisOfRecord    string        `json:"basisOfRecord,omitempty"`
	RecordedBy       string        `json:"recordedBy,omitempty"`
	DatasetName      string        `json:"datasetName,omitempty"`
	Modified         time.Time     `json:"modified,omitzero"`
	MeasurementFacts []Measurement `json:"measurementOrFacts,omitempty"`
}

// Issue is a problem found while processing a record.
type Issue string

const (
	IssueNoName         Issue = "no_scientific_name"
	IssueNameNotParsed  Issue = "name_not_parsed"
	IssueNoCoordinates  Issue = "no_coordinates"
	IssueBadCoordinates Issue = "coordinates_out_of_range"
	IssueNoDate         Issue = "no_event_date"
	IssueFutureDate     Issue = "event_date_in_future"
	IssueDateRangeFlip  Issue = "event_end_before_start"
	IssueUnknownKingdom Issue = "unknown_kingdom"
	IssueNegativeCount  Issue = "negative_individual_count"
	IssueBadUncertainty Issue = "negative_coordinate_uncertainty"
)

// Observation is a processed observation.
type Observation struct {
	// ID is a UUID v5 made from provider identifier and Source.Key.
	ID string `json:"id"`
	// DataProviderID is the numeric ID of the provider.
	DataProviderID int `json:"dataProviderId"`
	// SourceID is the ID of the verbatim entity.
	SourceID string `json:"verbatimId"`
	Record
	// CanonicalName is the simple canonical form of ScientificName.
	CanonicalName string `json:"canonicalName,omitempty"`
	// CanonicalID is a UUID v5 of CanonicalName.
	CanonicalID string `json:"canonicalId,omitempty"`
	// Cardinality is 1 for uninomials, 2 for binomials and so on.
	Cardinality int `json:"cardinality,omitempty"`
	// Year of the event start.
	Year int `json:"year,omitempty"`
	// Issues found during processing.
	Issues []Issue `json:"issues,omitempty"`
	// IsValid is false if location, date or name is missing or wrong.
	IsValid bool `json:"isValid"`
}

// VerbatimID returns the key of the processed observation.
func (o Observation) VerbatimID() string {
	return o.ID
}

// ActiveInstance selects which of the two processed collections of a
// provider is used by readers. Processing writes into the inactive one
// and toggles the value when writing is complete.
type ActiveInstance struct {
	Value int `json:"value"`
}

// Inactive returns the other instance.
func (a ActiveInstance) Inactive() ActiveInstance {
	return ActiveInstance{Value: 1 - a.Value&1}
}

// Collection returns the processed collection name of the instance for a
// provider.
func (a ActiveInstance) Collection(identifier string) string {
	return fmt.Sprintf("%s_%s_%d", Collection, identifier, a.Value&1)
}

// State is the processing state of a provider.
type State struct {
	Identifier string         `json:"identifier"`
	Active     ActiveInstance `json:"active"`
	Count      int            `json:"count"`
	Processed  time.Time      `json:"processed"`
}

// VerbatimID returns the key of the state record.
func (s State) VerbatimID() string {
	return s.Identifier
}
