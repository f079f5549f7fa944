package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// ErrRunNotFound is returned by RunArchive.Get when no run has the given ID.
var ErrRunNotFound = errors.New("run not found")

// ReportSink defines the driven port that accepts a finished report.
type ReportSink interface {
	// Export hands the report to the sink. Sinks must treat the report as
	// read-only.
	Export(ctx context.Context, report *model.Report) error
}

// RunArchive is a ReportSink that can also serve archived reports back.
type RunArchive interface {
	ReportSink

	// Get returns the archived report for runID, or ErrRunNotFound.
	Get(ctx context.Context, runID string) (*model.Report, error)

	// List returns summaries of all archived runs, newest first.
	List(ctx context.Context) ([]model.RunSummary, error)
}
