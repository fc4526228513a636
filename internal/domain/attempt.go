package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptOutcome is the result of a single fetch attempt.
type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "succeeded"
	AttemptFailed    AttemptOutcome = "failed"
)

// AttemptRecord captures one fetch attempt against one source. Records
// are ephemeral: they feed logging and backoff decisions and are
// discarded once the item's acquisition completes.
type AttemptRecord struct {
	ID         string
	SourceURL  string
	SourceKind SourceKind
	Attempt    int
	Outcome    AttemptOutcome
	Elapsed    time.Duration
	Error      string
}

// NewAttemptRecord creates a record for attempt number n against source.
func NewAttemptRecord(source *Source, attempt int) *AttemptRecord {
	return &AttemptRecord{
		ID:         uuid.New().String(),
		SourceURL:  source.URL,
		SourceKind: source.Kind,
		Attempt:    attempt,
	}
}

// Finish closes the record with an outcome and elapsed time.
func (r *AttemptRecord) Finish(start time.Time, err error) {
	r.Elapsed = time.Since(start)
	if err != nil {
		r.Outcome = AttemptFailed
		r.Error = err.Error()
	} else {
		r.Outcome = AttemptSucceeded
	}
}
