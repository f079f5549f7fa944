package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// AuditOptions configures an AuditService.
type AuditOptions struct {
	// CorpusRequired fails a run when a configured corpus cannot be loaded.
	// When false the run continues with compromise checking marked as not
	// evaluated.
	CorpusRequired bool
}

// AuditService drives one audit run end to end: it reads a record batch,
// resolves the corpus, evaluates, and hands the report to every sink.
type AuditService struct {
	evaluator *Evaluator
	corpora   *CorpusProvider
	sinks     []driven.ReportSink
	opts      AuditOptions
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewAuditService creates an AuditService. sinks may be empty.
func NewAuditService(
	evaluator *Evaluator,
	corpora *CorpusProvider,
	sinks []driven.ReportSink,
	opts AuditOptions,
	logger *slog.Logger,
) *AuditService {
	return &AuditService{
		evaluator: evaluator,
		corpora:   corpora,
		sinks:     sinks,
		opts:      opts,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Run evaluates every record from source.
func (s *AuditService) Run(ctx context.Context, source driven.RecordSource) (*model.Report, error) {
	records, err := source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records from %s: %w", source.Name(), err)
	}
	s.logger.Info("records loaded", "source", source.Name(), "count", len(records))

	return s.EvaluateRecords(ctx, source.Name(), records)
}

// EvaluateRecords evaluates an in-memory batch labelled label. When the sinks
// fail, the report is still returned alongside the joined sink errors.
func (s *AuditService) EvaluateRecords(ctx context.Context, label string, records []model.CredentialRecord) (*model.Report, error) {
	corpus, err := s.resolveCorpus(ctx)
	if err != nil {
		return nil, err
	}

	eval, err := s.evaluator.Evaluate(ctx, records, corpus)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", label, err)
	}

	report := &model.Report{
		RunID:       s.newID(),
		GeneratedAt: s.now(),
		Source:      label,
		MinLength:   s.evaluator.MinLength(),
		Evaluation:  *eval,
	}
	if corpus != nil {
		report.CorpusSource = corpus.Source()
	}

	s.logger.Info("evaluation complete",
		"run_id", report.RunID,
		"source", label,
		"total", eval.Stats.Total,
		"strong", eval.Stats.StrongCount,
		"weak", eval.Stats.WeakCount,
		"duplicates", eval.Stats.DuplicateCount,
		"compromised", compromisedAttr(eval.Stats),
		"skipped", eval.Stats.SkippedCount,
	)
	for _, sk := range eval.Skipped {
		s.logger.Warn("record skipped", "run_id", report.RunID, "index", sk.Index, "row", sk.Row, "reason", sk.Reason)
	}

	return report, s.export(ctx, report)
}

// resolveCorpus applies the corpus policy. A disabled provider yields nil. A
// load failure is returned when the corpus is required; otherwise it is
// logged and the run proceeds without compromise data.
func (s *AuditService) resolveCorpus(ctx context.Context) (*model.Corpus, error) {
	if s.corpora == nil || !s.corpora.Enabled() {
		return nil, nil
	}

	corpus, err := s.corpora.Current(ctx)
	if err == nil {
		return corpus, nil
	}
	if s.opts.CorpusRequired {
		return nil, err
	}

	s.logger.Warn("corpus unavailable, compromise checking not evaluated",
		"source", s.corpora.Source(),
		"error", err,
	)
	return nil, nil
}

func (s *AuditService) export(ctx context.Context, report *model.Report) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Export(ctx, report); err != nil {
			s.logger.Error("report export failed", "run_id", report.RunID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func compromisedAttr(stats model.Aggregates) any {
	if !stats.CompromiseEvaluated {
		return string(model.CompromiseNotEvaluated)
	}
	return stats.CompromisedCount
}
