package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/pwaudit/internal/adapter/driven/report"
	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// writeJSON marshals v and writes it with status. A marshaling failure is
// written as a 500 instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type errorResponse struct {
	Error string `json:"error"`
}

// EvaluationRequest is the body of POST /api/v1/evaluations.
type EvaluationRequest struct {
	Source  string          `json:"source"`
	Records []RecordRequest `json:"records"`
}

// RecordRequest is one submitted credential. A nil Password marks the record
// as malformed; it is reported as skipped rather than rejected.
type RecordRequest struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Password *string `json:"password"`
}

// EvaluationResponse is the report document plus any sink failure.
type EvaluationResponse struct {
	report.Document
	ExportError string `json:"export_error,omitempty"`
}

// RunSummaryResponse is one entry of GET /api/v1/runs.
type RunSummaryResponse struct {
	RunID        string                 `json:"run_id"`
	GeneratedAt  string                 `json:"generated_at"`
	Source       string                 `json:"source"`
	CorpusSource string                 `json:"corpus_source,omitempty"`
	Summary      report.SummaryDocument `json:"summary"`
}

// CorpusResponse describes the loaded corpus.
type CorpusResponse struct {
	Enabled bool   `json:"enabled"`
	Loaded  bool   `json:"loaded"`
	Source  string `json:"source,omitempty"`
	Entries int    `json:"entries"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status string         `json:"status"`
	Time   string         `json:"time"`
	Corpus CorpusResponse `json:"corpus"`
}

func toRecords(reqs []RecordRequest) []model.CredentialRecord {
	recs := make([]model.CredentialRecord, len(reqs))
	for i, r := range reqs {
		recs[i] = model.CredentialRecord{ID: r.ID, Username: r.Username}
		if r.Password == nil {
			recs[i].PasswordMissing = true
			continue
		}
		recs[i].Password = *r.Password
	}
	return recs
}

func toRunSummaryResponse(s model.RunSummary) RunSummaryResponse {
	return RunSummaryResponse{
		RunID:        s.RunID,
		GeneratedAt:  s.GeneratedAt.UTC().Format(time.RFC3339),
		Source:       s.Source,
		CorpusSource: s.CorpusSource,
		Summary:      report.Summary(s.Stats),
	}
}

func toCorpusResponse(source string, c *model.Corpus) CorpusResponse {
	resp := CorpusResponse{Enabled: source != "", Source: source}
	if c != nil {
		resp.Loaded = true
		resp.Entries = c.Len()
	}
	return resp
}
