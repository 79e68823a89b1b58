package models

import "time"

// Iteration outcome constants
const (
	OutcomeCommitted      = "committed"
	OutcomeLocateFailed   = "locate_failed"
	OutcomeProviderFailed = "provider_failed"
	OutcomeWriteFailed    = "write_failed"
	OutcomeCheckFailed    = "check_failed"
	OutcomeCommitFailed   = "commit_failed"
)

// IterationRecord describes one pass through the replace loop.
type IterationRecord struct {
	RunID             string
	Iteration         int
	Path              string // Relative to the job root
	Start             int
	End               int
	MatchedText       string
	ReplacementLength int
	Retries           int // Overload retries before the final outcome
	Outcome           string
	ErrorMessage      string
	Duration          time.Duration
	Timestamp         time.Time
}

// Succeeded reports whether the iteration ended in a commit.
func (r *IterationRecord) Succeeded() bool {
	return r.Outcome == OutcomeCommitted
}

// RunResult is the aggregate result of a run.
type RunResult struct {
	RunID      string
	JobPath    string
	Commits    int
	Retries    int
	FinalState string
	StartedAt  time.Time
	Duration   time.Duration
	Records    []IterationRecord
}
