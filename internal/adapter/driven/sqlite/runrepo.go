package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunArchive = (*RunRepo)(nil)

// timeLayout is fixed-width so that generated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRepo is the SQLite implementation of the RunArchive port interface.
// Password values are encrypted with AES-256-GCM when a key is configured and
// not stored at all otherwise.
type RunRepo struct {
	db     *DB
	cipher *passwordCipher // nil when password storage is disabled.
}

// NewRunRepo creates a RunRepo backed by db. key must be 32 bytes, or nil to
// archive reports without password values.
func NewRunRepo(db *DB, key []byte) (*RunRepo, error) {
	r := &RunRepo{db: db}
	if key != nil {
		c, err := newPasswordCipher(key)
		if err != nil {
			return nil, err
		}
		r.cipher = c
	}
	return r, nil
}

// StoresPasswords reports whether password values are archived.
func (r *RunRepo) StoresPasswords() bool {
	return r.cipher != nil
}

// Export archives a report in a single transaction.
func (r *RunRepo) Export(ctx context.Context, report *model.Report) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const runQuery = `
		INSERT INTO audit_runs (
			id, generated_at, source, corpus_source, min_length,
			total, strong_count, weak_count, duplicate_count,
			compromised_count, compromise_evaluated, skipped_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	s := report.Stats
	if _, err := tx.ExecContext(ctx, runQuery,
		report.RunID, report.GeneratedAt.UTC().Format(timeLayout), report.Source, report.CorpusSource,
		report.MinLength, s.Total, s.StrongCount, s.WeakCount, s.DuplicateCount,
		s.CompromisedCount, boolInt(s.CompromiseEvaluated), s.SkippedCount,
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("archive run %s: run already archived", report.RunID)
		}
		return fmt.Errorf("archive run %s: %w", report.RunID, err)
	}

	const resultQuery = `
		INSERT INTO audit_results (
			run_id, position, record_id, username, password_enc, row_num,
			length_ok, complexity_ok, is_strong, score, compromise, suggestions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, res := range report.Results {
		enc, err := r.sealPassword(res.Password)
		if err != nil {
			return fmt.Errorf("encrypt password of record %q: %w", res.ID, err)
		}
		suggestions, err := json.Marshal(nonNil(res.Suggestions))
		if err != nil {
			return fmt.Errorf("encode suggestions of record %q: %w", res.ID, err)
		}

		if _, err := tx.ExecContext(ctx, resultQuery,
			report.RunID, i, res.ID, res.Username, enc, res.Row,
			boolInt(res.LengthOK), boolInt(res.ComplexityOK), boolInt(res.IsStrong),
			res.Score, string(res.Compromise), string(suggestions),
		); err != nil {
			return fmt.Errorf("insert result %d for run %s: %w", i, report.RunID, err)
		}
	}

	const duplicateQuery = `INSERT INTO audit_duplicates (run_id, position, password_enc, count) VALUES (?, ?, ?, ?)`
	for i, d := range report.Duplicates {
		enc, err := r.sealPassword(d.Password)
		if err != nil {
			return fmt.Errorf("encrypt duplicate %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, duplicateQuery, report.RunID, i, enc, d.Count); err != nil {
			return fmt.Errorf("insert duplicate %d for run %s: %w", i, report.RunID, err)
		}
	}

	const skippedQuery = `
		INSERT INTO audit_skipped (run_id, position, record_index, row_num, record_id, reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, sk := range report.Skipped {
		if _, err := tx.ExecContext(ctx, skippedQuery, report.RunID, i, sk.Index, sk.Row, sk.ID, sk.Reason); err != nil {
			return fmt.Errorf("insert skipped record %d for run %s: %w", i, report.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", report.RunID, err)
	}
	return nil
}

// Get loads an archived report. Returns driven.ErrRunNotFound if no run has
// that ID. Passwords are empty when the repo has no key.
func (r *RunRepo) Get(ctx context.Context, runID string) (*model.Report, error) {
	const runQuery = `
		SELECT id, generated_at, source, corpus_source, min_length,
			total, strong_count, weak_count, duplicate_count,
			compromised_count, compromise_evaluated, skipped_count
		FROM audit_runs
		WHERE id = ?
	`
	summary, minLength, err := scanRun(r.db.Reader.QueryRowContext(ctx, runQuery, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", runID, driven.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	report := &model.Report{
		RunID:        summary.RunID,
		GeneratedAt:  summary.GeneratedAt,
		Source:       summary.Source,
		CorpusSource: summary.CorpusSource,
		MinLength:    minLength,
		Evaluation:   model.Evaluation{Stats: summary.Stats},
	}

	if report.Results, err = r.getResults(ctx, runID); err != nil {
		return nil, err
	}
	if report.Duplicates, err = r.getDuplicates(ctx, runID); err != nil {
		return nil, err
	}
	if report.Skipped, err = r.getSkipped(ctx, runID); err != nil {
		return nil, err
	}
	return report, nil
}

// List returns summaries of all archived runs, newest first.
func (r *RunRepo) List(ctx context.Context) ([]model.RunSummary, error) {
	const query = `
		SELECT id, generated_at, source, corpus_source, min_length,
			total, strong_count, weak_count, duplicate_count,
			compromised_count, compromise_evaluated, skipped_count
		FROM audit_runs
		ORDER BY generated_at DESC, id
	`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.RunSummary{}
	for rows.Next() {
		summary, _, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (r *RunRepo) getResults(ctx context.Context, runID string) ([]model.EvaluationResult, error) {
	const query = `
		SELECT record_id, username, password_enc, row_num,
			length_ok, complexity_ok, is_strong, score, compromise, suggestions
		FROM audit_results
		WHERE run_id = ?
		ORDER BY position
	`
	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query results for run %s: %w", runID, err)
	}
	defer rows.Close()

	results := []model.EvaluationResult{}
	for rows.Next() {
		var (
			res                            model.EvaluationResult
			enc                            sql.NullString
			lengthOK, complexityOK, strong int
			compromise, suggestions        string
		)
		if err := rows.Scan(
			&res.ID, &res.Username, &enc, &res.Row,
			&lengthOK, &complexityOK, &strong, &res.Score, &compromise, &suggestions,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		if res.Password, err = r.openPassword(enc); err != nil {
			return nil, fmt.Errorf("decrypt password of record %q: %w", res.ID, err)
		}
		if err := json.Unmarshal([]byte(suggestions), &res.Suggestions); err != nil {
			return nil, fmt.Errorf("decode suggestions of record %q: %w", res.ID, err)
		}
		res.LengthOK = lengthOK != 0
		res.ComplexityOK = complexityOK != 0
		res.IsStrong = strong != 0
		res.Compromise = model.CompromiseStatus(compromise)

		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func (r *RunRepo) getDuplicates(ctx context.Context, runID string) ([]model.Duplicate, error) {
	const query = `SELECT password_enc, count FROM audit_duplicates WHERE run_id = ? ORDER BY position`
	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query duplicates for run %s: %w", runID, err)
	}
	defer rows.Close()

	dups := []model.Duplicate{}
	for rows.Next() {
		var (
			d   model.Duplicate
			enc sql.NullString
		)
		if err := rows.Scan(&enc, &d.Count); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		if d.Password, err = r.openPassword(enc); err != nil {
			return nil, fmt.Errorf("decrypt duplicate password: %w", err)
		}
		dups = append(dups, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicates: %w", err)
	}
	return dups, nil
}

func (r *RunRepo) getSkipped(ctx context.Context, runID string) ([]model.SkippedRecord, error) {
	const query = `
		SELECT record_index, row_num, record_id, reason
		FROM audit_skipped
		WHERE run_id = ?
		ORDER BY position
	`
	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query skipped records for run %s: %w", runID, err)
	}
	defer rows.Close()

	skipped := []model.SkippedRecord{}
	for rows.Next() {
		var sk model.SkippedRecord
		if err := rows.Scan(&sk.Index, &sk.Row, &sk.ID, &sk.Reason); err != nil {
			return nil, fmt.Errorf("scan skipped record: %w", err)
		}
		skipped = append(skipped, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skipped records: %w", err)
	}
	return skipped, nil
}

// sealPassword returns nil (stored as NULL) when the repo has no key.
func (r *RunRepo) sealPassword(p string) (any, error) {
	if r.cipher == nil {
		return nil, nil
	}
	return r.cipher.encrypt(p)
}

func (r *RunRepo) openPassword(enc sql.NullString) (string, error) {
	if !enc.Valid || r.cipher == nil {
		return "", nil
	}
	return r.cipher.decrypt(enc.String)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (model.RunSummary, int, error) {
	var (
		summary     model.RunSummary
		generatedAt string
		minLength   int
		evaluated   int
	)
	err := s.Scan(
		&summary.RunID, &generatedAt, &summary.Source, &summary.CorpusSource, &minLength,
		&summary.Stats.Total, &summary.Stats.StrongCount, &summary.Stats.WeakCount,
		&summary.Stats.DuplicateCount, &summary.Stats.CompromisedCount, &evaluated,
		&summary.Stats.SkippedCount,
	)
	if err != nil {
		return model.RunSummary{}, 0, err
	}

	summary.Stats.CompromiseEvaluated = evaluated != 0
	summary.GeneratedAt, err = time.Parse(timeLayout, generatedAt)
	if err != nil {
		return model.RunSummary{}, 0, fmt.Errorf("parse generated_at for run %s: %w", summary.RunID, err)
	}
	return summary, minLength, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
