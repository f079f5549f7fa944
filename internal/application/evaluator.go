package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// evalChunkSize is the number of records handed to one worker at a time.
const evalChunkSize = 512

// EvaluatorOptions configures an Evaluator.
type EvaluatorOptions struct {
	// MinLength is the inclusive minimum password length for the strength
	// rule. It does not affect the scorer's fixed length bonus.
	MinLength int

	// CommonPatterns are the penalized substrings. Nil selects
	// DefaultCommonPatterns.
	CommonPatterns []string

	// Workers is the number of goroutines evaluating records. 0 and 1 both
	// mean sequential evaluation.
	Workers int
}

// DefaultEvaluatorOptions returns the reference rule set with sequential
// evaluation.
func DefaultEvaluatorOptions() EvaluatorOptions {
	return EvaluatorOptions{MinLength: DefaultMinLength}
}

// Evaluator runs the classifier, scorer and compromise check over a batch of
// records and aggregates the outcome. It holds no per-run state and is safe
// for concurrent use.
type Evaluator struct {
	minLength int
	scorer    *Scorer
	workers   int
}

// NewEvaluator validates opts and creates an Evaluator. Errors wrap
// model.ErrInvalidConfiguration.
func NewEvaluator(opts EvaluatorOptions) (*Evaluator, error) {
	if opts.MinLength < 0 {
		return nil, fmt.Errorf("%w: min length must not be negative, got %d", model.ErrInvalidConfiguration, opts.MinLength)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must not be negative, got %d", model.ErrInvalidConfiguration, opts.Workers)
	}
	for i, p := range opts.CommonPatterns {
		if p == "" {
			return nil, fmt.Errorf("%w: common pattern %d is empty", model.ErrInvalidConfiguration, i)
		}
	}

	workers := opts.Workers
	if workers == 0 {
		workers = 1
	}

	return &Evaluator{
		minLength: opts.MinLength,
		scorer:    NewScorer(opts.CommonPatterns),
		workers:   workers,
	}, nil
}

// MinLength returns the configured minimum password length.
func (e *Evaluator) MinLength() int {
	return e.minLength
}

// EvaluatePassword produces the result for a single well-formed record.
func (e *Evaluator) EvaluatePassword(rec model.CredentialRecord, corpus *model.Corpus) model.EvaluationResult {
	c := Classify(rec.Password, e.minLength)
	return model.EvaluationResult{
		CredentialRecord: rec,
		LengthOK:         c.LengthOK,
		ComplexityOK:     c.ComplexityOK,
		IsStrong:         c.IsStrong(),
		Suggestions:      c.Suggestions,
		Score:            e.scorer.Score(rec.Password),
		Compromise:       CheckCompromise(rec.Password, corpus),
	}
}

// Evaluate evaluates records in order. A nil corpus disables compromise
// checking: every result reports CompromiseNotEvaluated and the aggregates
// mark the compromised count as not evaluated.
//
// Malformed records are excluded from the results and listed in Skipped; they
// never fail the batch. The only errors are context cancellation.
func (e *Evaluator) Evaluate(ctx context.Context, records []model.CredentialRecord, corpus *model.Corpus) (*model.Evaluation, error) {
	valid := make([]model.CredentialRecord, 0, len(records))
	skipped := []model.SkippedRecord{}
	for i, rec := range records {
		if err := validateRecord(rec); err != nil {
			skipped = append(skipped, model.SkippedRecord{
				Index:  i,
				Row:    rec.Row,
				ID:     rec.ID,
				Reason: err.Error(),
			})
			continue
		}
		valid = append(valid, rec)
	}

	results := make([]model.EvaluationResult, len(valid))
	if err := e.evaluateInto(ctx, valid, corpus, results); err != nil {
		return nil, err
	}

	passwords := make([]string, len(results))
	for i := range results {
		passwords[i] = results[i].Password
	}
	dups := FindDuplicates(passwords)

	return &model.Evaluation{
		Results:    results,
		Duplicates: dups,
		Skipped:    skipped,
		Stats:      aggregate(results, dups, skipped, corpus != nil),
	}, nil
}

// evaluateInto fills results[i] for records[i], sequentially or in parallel
// chunks. Each slot is written by exactly one goroutine.
func (e *Evaluator) evaluateInto(ctx context.Context, records []model.CredentialRecord, corpus *model.Corpus, results []model.EvaluationResult) error {
	if e.workers <= 1 || len(records) <= evalChunkSize {
		for i, rec := range records {
			if i%evalChunkSize == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			results[i] = e.EvaluatePassword(rec, corpus)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for start := 0; start < len(records); start += evalChunkSize {
		end := min(start+evalChunkSize, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				results[i] = e.EvaluatePassword(records[i], corpus)
			}
			return nil
		})
	}
	return g.Wait()
}

func validateRecord(rec model.CredentialRecord) error {
	if rec.PasswordMissing {
		if rec.Row > 0 {
			return fmt.Errorf("%w: row %d has no password field", model.ErrMalformedRecord, rec.Row)
		}
		return fmt.Errorf("%w: record %q has no password field", model.ErrMalformedRecord, rec.ID)
	}
	return nil
}

func aggregate(results []model.EvaluationResult, dups []model.Duplicate, skipped []model.SkippedRecord, compromiseEvaluated bool) model.Aggregates {
	stats := model.Aggregates{
		Total:               len(results),
		DuplicateCount:      len(dups),
		CompromiseEvaluated: compromiseEvaluated,
		SkippedCount:        len(skipped),
	}
	for _, r := range results {
		if r.IsStrong {
			stats.StrongCount++
		}
		if r.IsCompromised() {
			stats.CompromisedCount++
		}
	}
	stats.WeakCount = stats.Total - stats.StrongCount
	return stats
}
