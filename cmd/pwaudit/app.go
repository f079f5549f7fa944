package main

import (
	"log/slog"

	"github.com/ericfisherdev/pwaudit/internal/adapter/driven/report"
	sqliteadapter "github.com/ericfisherdev/pwaudit/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pwaudit/internal/adapter/driven/wordlist"
	"github.com/ericfisherdev/pwaudit/internal/application"
	"github.com/ericfisherdev/pwaudit/internal/config"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// app is the wired object graph shared by both commands.
type app struct {
	corpora *application.CorpusProvider
	audit   *application.AuditService
	archive driven.RunArchive // nil when no database is configured.
	db      *sqliteadapter.DB
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	logger.Info("config loaded",
		"min_length", cfg.MinLength,
		"corpus_source", cfg.CorpusSource,
		"corpus_required", cfg.CorpusRequired,
		"workers", cfg.Workers,
		"report_dir", cfg.ReportDir,
		"report_formats", cfg.ReportFormats,
		"db_path", cfg.DBPath,
	)

	enc, err := wordlist.ParseEncoding(cfg.CorpusEncoding)
	if err != nil {
		return nil, err
	}
	loader := wordlist.NewLoader(wordlist.Options{
		Encoding:     enc,
		FetchTimeout: cfg.CorpusFetchTimeout,
		Logger:       logger,
	})
	corpora := application.NewCorpusProvider(loader, cfg.CorpusSource, logger)

	opts := application.DefaultEvaluatorOptions()
	opts.MinLength = cfg.MinLength
	opts.CommonPatterns = cfg.CommonPatterns
	opts.Workers = cfg.Workers
	evaluator, err := application.NewEvaluator(opts)
	if err != nil {
		return nil, err
	}

	a := &app{corpora: corpora}

	sinks := make([]driven.ReportSink, 0, len(cfg.ReportFormats)+1)
	for _, f := range cfg.ReportFormats {
		sinks = append(sinks, report.NewFileSink(cfg.ReportDir, f, logger))
	}

	if cfg.HasArchive() {
		db, err := sqliteadapter.NewDB(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		repo, err := sqliteadapter.NewRunRepo(db, cfg.SecretKey)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if !repo.StoresPasswords() {
			logger.Warn("PWAUDIT_SECRET_KEY not set, archived runs will not include password values")
		}
		logger.Info("database opened", "path", cfg.DBPath)

		a.db = db
		a.archive = repo
		sinks = append(sinks, repo)
	}

	a.audit = application.NewAuditService(evaluator, corpora, sinks,
		application.AuditOptions{CorpusRequired: cfg.CorpusRequired}, logger)
	return a, nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
