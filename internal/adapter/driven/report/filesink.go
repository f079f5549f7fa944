package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReportSink = (*FileSink)(nil)

const fileTimestampLayout = "20060102_150405"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileSink writes each report to a file in one format under a directory.
type FileSink struct {
	dir    string
	format model.ReportFormat
	logger *slog.Logger
}

// NewFileSink creates a FileSink writing format reports into dir. The
// directory is created on first export.
func NewFileSink(dir string, format model.ReportFormat, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSink{dir: dir, format: format, logger: logger}
}

// Format returns the sink's report format.
func (s *FileSink) Format() model.ReportFormat {
	return s.format
}

// Export renders r and writes it atomically, so readers never observe a
// partial report.
func (s *FileSink) Export(ctx context.Context, r *model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Render(r, s.format)
	if err != nil {
		return fmt.Errorf("render %s report: %w", s.format, err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create report directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, FileName(r, s.format))
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	s.logger.Info("report written", "run_id", r.RunID, "format", string(s.format), "path", path)
	return nil
}

// FileName is "<source>_report_<timestamp>.<ext>", where source is the base
// name of the record source without its extension.
func FileName(r *model.Report, f model.ReportFormat) string {
	base := filepath.Base(r.Source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		base = "passwords"
	}
	return fmt.Sprintf("%s_report_%s.%s", base, r.GeneratedAt.UTC().Format(fileTimestampLayout), Extension(f))
}

// Extension returns the file extension for f, without the dot.
func Extension(f model.ReportFormat) string {
	if f == model.ReportFormatMarkdown {
		return "md"
	}
	return string(f)
}
