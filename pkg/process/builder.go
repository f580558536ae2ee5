package process

import (
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnlib"
	"github.com/gnames/gnsos/pkg/parserpool"
	"github.com/gnames/gnuuid"
)

// Builder makes processed observations from records. It is safe for
// concurrent use if its parser pool is.
type Builder struct {
	pool parserpool.Pool
	now  func() time.Time
}

// NewBuilder creates a Builder. With nil pool scientific names are not
// parsed.
func NewBuilder(pool parserpool.Pool) *Builder {
	return &Builder{pool: pool, now: time.Now}
}

// ObservationID returns the ID of a processed observation made from
// the provider identifier and a stable key of its record.
func ObservationID(identifier, key string) string {
	return gnuuid.New(identifier + "|" + key).String()
}

// Source tells where a record comes from.
type Source struct {
	ProviderID int
	Identifier string
	VerbatimID string
	// LocalID is true when VerbatimID is assigned by a harvest and
	// changes from run to run.
	LocalID bool
}

// Key returns the part of the observation ID that does not change
// between harvests. Run-local verbatim IDs are replaced by the
// occurrence ID of the record when it has one.
func (s Source) Key(rec Record) string {
	occ := strings.TrimSpace(rec.OccurrenceID)
	if s.LocalID && occ != "" {
		return "occurrence:" + occ
	}
	return s.VerbatimID
}

// Build validates a record and creates a processed observation.
func (b *Builder) Build(src Source, rec Record) Observation {
	res := Observation{
		ID:             ObservationID(src.Identifier, src.Key(rec)),
		DataProviderID: src.ProviderID,
		SourceID:       src.VerbatimID,
		Record:         rec,
		IsValid:        true,
	}
	if res.OccurrenceID == "" {
		res.OccurrenceID = src.VerbatimID
	}

	b.name(&res)
	kingdom(&res)
	b.location(&res)
	b.date(&res)
	counts(&res)

	return res
}

func (b *Builder) name(o *Observation) {
	name := strings.TrimSpace(gnlib.FixUtf8(o.ScientificName))
	o.ScientificName = name
	if name == "" {
		o.addIssue(IssueNoName, true)
		return
	}
	if b.pool == nil {
		return
	}

	p, err := b.pool.Parse(name, parserpool.CodeFor(o.Kingdom))
	if err != nil || !p.Parsed || p.Canonical == nil {
		o.addIssue(IssueNameNotParsed, false)
		return
	}
	o.CanonicalName = p.Canonical.Simple
	o.CanonicalID = gnuuid.New(p.Canonical.Simple).String()
	o.Cardinality = p.Cardinality
}

// kingdoms of the Catalogue of Life top level.
var kingdoms = map[string]string{
	"animalia":  "Animalia",
	"archaea":   "Archaea",
	"bacteria":  "Bacteria",
	"chromista": "Chromista",
	"fungi":     "Fungi",
	"plantae":   "Plantae",
	"protozoa":  "Protozoa",
	"viruses":   "Viruses",
}

// kingdom normalizes the case of a known kingdom. Unknown kingdoms are
// kept as is and flagged, the name is still parsed with the zoological
// code.
func kingdom(o *Observation) {
	k := strings.TrimSpace(o.Kingdom)
	if k == "" {
		o.Kingdom = ""
		return
	}
	if v, ok := kingdoms[strings.ToLower(k)]; ok {
		o.Kingdom = v
		return
	}
	o.Kingdom = k
	o.addIssue(IssueUnknownKingdom, false)
}

func (b *Builder) location(o *Observation) {
	if o.UncertaintyM < 0 {
		o.addIssue(IssueBadUncertainty, false)
		o.UncertaintyM = 0
	}

	if o.Latitude == nil || o.Longitude == nil {
		o.Latitude, o.Longitude = nil, nil
		o.addIssue(IssueNoCoordinates, true)
		return
	}
	lat, lon := *o.Latitude, *o.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		o.Latitude, o.Longitude = nil, nil
		o.addIssue(IssueBadCoordinates, true)
	}
}

func (b *Builder) date(o *Observation) {
	if o.EventStart == nil {
		if o.EventEnd == nil {
			o.addIssue(IssueNoDate, true)
			return
		}
		o.EventStart = o.EventEnd
	}
	if o.EventEnd != nil && o.EventEnd.Before(*o.EventStart) {
		o.EventStart, o.EventEnd = o.EventEnd, o.EventStart
		o.addIssue(IssueDateRangeFlip, false)
	}
	if o.EventStart.After(b.now()) {
		o.addIssue(IssueFutureDate, true)
	}
	o.Year = o.EventStart.Year()
}

func counts(o *Observation) {
	if o.IndividualCount == "" {
		return
	}
	if i, err := strconv.Atoi(strings.TrimSpace(o.IndividualCount)); err == nil && i < 0 {
		o.addIssue(IssueNegativeCount, false)
		o.IndividualCount = ""
	}
}

func (o *Observation) addIssue(issue Issue, invalid bool) {
	o.Issues = append(o.Issues, issue)
	if invalid {
		o.IsValid = false
	}
}
