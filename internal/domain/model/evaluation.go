package model

import "time"

// EvaluationResult is the verdict for one CredentialRecord. It is created by
// the evaluator and never modified afterwards.
type EvaluationResult struct {
	CredentialRecord

	LengthOK     bool
	ComplexityOK bool
	IsStrong     bool
	Suggestions  []string
	Score        int
	Compromise   CompromiseStatus
}

// IsCompromised reports whether the password was found in the corpus. It is
// false both for clean passwords and for runs without a corpus; use
// Compromise to tell the two apart.
func (r EvaluationResult) IsCompromised() bool {
	return r.Compromise == CompromiseFound
}

// Duplicate is a password value that occurs more than once in a batch.
type Duplicate struct {
	Password string
	Count    int
}

// SkippedRecord describes a record excluded from evaluation.
type SkippedRecord struct {
	Index  int // Position in the submitted batch, 0-based.
	Row    int
	ID     string
	Reason string
}

// Aggregates are the batch-level counts of an evaluation.
type Aggregates struct {
	Total          int
	StrongCount    int
	WeakCount      int
	DuplicateCount int

	// CompromisedCount is only meaningful when CompromiseEvaluated is true.
	CompromisedCount    int
	CompromiseEvaluated bool

	SkippedCount int
}

// Evaluation is the full output of one evaluator pass over a batch.
type Evaluation struct {
	Results    []EvaluationResult
	Duplicates []Duplicate
	Skipped    []SkippedRecord
	Stats      Aggregates
}

// Report is an Evaluation stamped with run metadata, as handed to sinks.
type Report struct {
	RunID        string
	GeneratedAt  time.Time
	Source       string
	CorpusSource string
	MinLength    int
	Evaluation
}

// RunSummary is the listing view of an archived report.
type RunSummary struct {
	RunID        string
	GeneratedAt  time.Time
	Source       string
	CorpusSource string
	Stats        Aggregates
}
