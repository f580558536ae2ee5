// Package harvest describes results of harvest runs and the contract of
// factories that turn provider data into verbatim entities.
package harvest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a harvest run. Schedulers use it as an exit
// code: Failed runs are retried on the next schedule, Canceled runs were
// stopped on request.
type Status int

const (
	NotYetRun Status = iota
	Success
	Failed
	Canceled
)

var statusNames = map[Status]string{
	NotYetRun: "not_yet_run",
	Success:   "success",
	Failed:    "failed",
	Canceled:  "canceled",
}

func (s Status) String() string {
	if res, ok := statusNames[s]; ok {
		return res
	}
	return "unknown"
}

// NewStatus converts a string to Status.
func NewStatus(s string) Status {
	for k, v := range statusNames {
		if v == s {
			return k
		}
	}
	return NotYetRun
}

// Mode tells if a run replaces all data of a provider or adds changes
// to it.
type Mode int

const (
	Full Mode = iota
	Incremental
)

func (m Mode) String() string {
	if m == Incremental {
		return "incremental"
	}
	return "full"
}

// NewMode converts a string to Mode.
func NewMode(s string) Mode {
	if s == "incremental" {
		return Incremental
	}
	return Full
}

// Info describes one harvest run of a data provider.
type Info struct {
	// ID is the identifier of the data provider.
	ID string `json:"id"`
	// DataProviderID is the numeric ID of the data provider.
	DataProviderID int `json:"dataProviderId"`
	// RunID is unique for every run.
	RunID string `json:"runId"`
	// Start is when the run started.
	Start time.Time `json:"start"`
	// End is when the run finished, zero while it runs.
	End time.Time `json:"end"`
	// Status is the outcome of the run.
	Status Status `json:"status"`
	// Count is the number of harvested verbatim records.
	Count int `json:"count"`
	// DataLastModified is the largest modification time of harvested
	// records, nil if records do not have it.
	DataLastModified *time.Time `json:"dataLastModified,omitempty"`
	// PreHarvestCount is the number of records in the permanent
	// collection before the run.
	PreHarvestCount int64 `json:"preHarvestCount"`
	// Mode is full or incremental.
	Mode Mode `json:"mode"`
	// Notes keep the error message of a failed run.
	Notes string `json:"notes,omitempty"`
}

// NewInfo creates Info of a run that has not started yet.
func NewInfo(identifier string, providerID int, mode Mode) *Info {
	return &Info{
		ID:             identifier,
		DataProviderID: providerID,
		RunID:          uuid.NewString(),
		Status:         NotYetRun,
		Mode:           mode,
	}
}

// Add increases Count.
func (i *Info) Add(n int) {
	i.Count += n
}

// Observe moves the watermark to t if t is later than it. Zero t is
// ignored.
func (i *Info) Observe(t time.Time) {
	if t.IsZero() {
		return
	}
	if i.DataLastModified == nil || t.After(*i.DataLastModified) {
		tm := t
		i.DataLastModified = &tm
	}
}

// Finish sets the final status and end time.
func (i *Info) Finish(s Status) {
	i.Status = s
	i.End = time.Now()
}

// Duration is the length of a finished run.
func (i *Info) Duration() time.Duration {
	if i.End.IsZero() || i.Start.IsZero() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// IDSequence generates local IDs of verbatim entities. IDs increase
// monotonically and are unique for one sequence. It is safe for
// concurrent use.
type IDSequence struct {
	last atomic.Int64
}

// NewIDSequence creates a sequence that starts from 1.
func NewIDSequence() *IDSequence {
	return &IDSequence{}
}

// Next returns the next ID.
func (s *IDSequence) Next() int {
	return int(s.last.Add(1))
}

// Last returns the last generated ID.
func (s *IDSequence) Last() int {
	return int(s.last.Load())
}

// Factory converts data of a provider to verbatim entities. The
// conversion does no I/O, empty source gives nil.
type Factory[S, E any] interface {
	CastToVerbatim(src S) []E
}

// InfoStore keeps results of harvest runs.
type InfoStore interface {
	// Save stores the result of a finished run.
	Save(ctx context.Context, info *Info) error

	// LastSuccess returns the latest successful run of a provider, nil
	// if there was none.
	LastSuccess(ctx context.Context, identifier string) (*Info, error)
}
