package verbatim

// Outcome is the result of writing a list of entities.
type Outcome int

const (
	// OutcomeEmpty means there was nothing to write. It is not a failure,
	// but nothing was written either.
	OutcomeEmpty Outcome = iota
	// OutcomeWritten means every batch was written.
	OutcomeWritten
	// OutcomeFailed means at least one batch was not written. Batches
	// written before or after it stay in the store.
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeEmpty:   "empty",
	OutcomeWritten: "written",
	OutcomeFailed:  "failed",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// OK is true only when data was written.
func (o Outcome) OK() bool {
	return o == OutcomeWritten
}
