package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/pwaudit/internal/adapter/driven/report"
	"github.com/ericfisherdev/pwaudit/internal/application"
	"github.com/ericfisherdev/pwaudit/internal/domain/model"
	"github.com/ericfisherdev/pwaudit/internal/domain/port/driven"
)

// MaxRequestBytes bounds the body of an evaluation request.
const MaxRequestBytes = 32 << 20

const defaultSourceLabel = "api"

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auditSvc *application.AuditService
	corpora  *application.CorpusProvider
	archive  driven.RunArchive
	logger   *slog.Logger
}

// NewHandler creates a Handler. archive may be nil, in which case the run
// endpoints answer 503.
func NewHandler(
	auditSvc *application.AuditService,
	corpora *application.CorpusProvider,
	archive driven.RunArchive,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auditSvc: auditSvc,
		corpora:  corpora,
		archive:  archive,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/evaluations", h.Evaluate)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("POST /api/v1/corpus/reload", h.ReloadCorpus)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Evaluate runs an audit over the submitted records and returns the report.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)

	var req EvaluationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	label := req.Source
	if label == "" {
		label = defaultSourceLabel
	}

	rep, err := h.auditSvc.EvaluateRecords(r.Context(), label, toRecords(req.Records))
	if rep == nil {
		switch {
		case errors.Is(err, model.ErrCorpusUnavailable):
			h.logger.Error("evaluation aborted: corpus unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "compromised-password corpus unavailable")
		default:
			h.logger.Error("evaluation failed", "source", label, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	resp := EvaluationResponse{Document: report.ToDocument(rep)}
	if err != nil {
		// The evaluation itself succeeded; only archiving or file export failed.
		resp.ExportError = "report export failed"
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRuns returns summaries of archived runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	runs, err := h.archive.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RunSummaryResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunSummaryResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns one archived report.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}

	id := r.PathValue("id")
	rep, err := h.archive.Get(r.Context(), id)
	if errors.Is(err, driven.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, report.ToDocument(rep))
}

// ReloadCorpus re-reads the corpus from its source. A failed reload keeps the
// previous corpus.
func (h *Handler) ReloadCorpus(w http.ResponseWriter, r *http.Request) {
	if h.corpora == nil || !h.corpora.Enabled() {
		writeError(w, http.StatusConflict, "compromise checking is disabled")
		return
	}

	c, err := h.corpora.Reload(r.Context())
	if err != nil {
		h.logger.Error("corpus reload failed", "source", h.corpora.Source(), "error", err)
		writeError(w, http.StatusBadGateway, "corpus reload failed")
		return
	}

	writeJSON(w, http.StatusOK, toCorpusResponse(h.corpora.Source(), c))
}

// Health returns a liveness response with the corpus state.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if h.corpora != nil {
		resp.Corpus = toCorpusResponse(h.corpora.Source(), h.corpora.Get())
	}
	writeJSON(w, http.StatusOK, resp)
}
