// Package handlers exposes the reporting and ingestion HTTP surface.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/finledger/ledger-engine/internal/api/middleware"
	"github.com/finledger/ledger-engine/internal/jobs"
	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/report"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// ReportsHandler serves the aggregate report endpoints.
type ReportsHandler struct {
	reporter *report.Reporter
	log      zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reporter *report.Reporter, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{reporter: reporter, log: log}
}

// parseWindow reads start/end query parameters. end defaults to today and
// start to 30 days before end.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %s", raw)
		}
		end = parsed
		start = end.AddDate(0, 0, -30)
	}
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %s", raw)
		}
		start = parsed
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date after end date")
	}
	return start, end, nil
}

// GetReport handles GET /api/reports/{type}. The path suffix selects the
// report kind, e.g. /api/reports/profit-loss.
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	kind = strings.ReplaceAll(strings.Trim(kind, "/"), "-", "_")

	start, end, err := parseWindow(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	var payload any
	switch kind {
	case report.TypeProfitLoss:
		payload, err = h.reporter.ProfitLoss(ctx, start, end)
	case report.TypeExpenseBreakdown:
		payload, err = h.reporter.ExpenseBreakdown(ctx, start, end)
	case report.TypeVendorAnalysis:
		payload, err = h.reporter.VendorAnalysis(ctx, start, end)
	case report.TypeMonthlyTrends:
		payload, err = h.reporter.MonthlyTrends(ctx, start, end)
	case report.TypeComplianceLog:
		payload, err = h.reporter.ComplianceLog(ctx, start, end)
	case report.TypeAccountBalances:
		payload, err = h.reporter.AccountBalances(ctx, end)
	case report.TypeRiskIndicators:
		payload, err = h.reporter.RiskIndicators(ctx, start, end)
	default:
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Unknown report type: %s", kind))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("report_type", kind).Msg("Failed to build report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"report_type": kind,
		"start":       start.Format(dateLayout),
		"end":         end.Format(dateLayout),
		"data":        payload,
	})
}

// IngestHandler accepts batches and enqueues them for loading.
type IngestHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(publisher jobs.Publisher, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{publisher: publisher, log: log}
}

// EnqueueBatch handles POST /api/ingest. The body is an ingestion batch; the
// response carries the job id to poll.
func (h *IngestHandler) EnqueueBatch(w http.ResponseWriter, r *http.Request) {
	var job jobs.IngestBatchJob
	if err := json.NewDecoder(r.Body).Decode(&job.Batch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(job.Batch.Accounts) == 0 && len(job.Batch.Vendors) == 0 && len(job.Batch.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Batch is empty")
		return
	}

	if err := h.publisher.PublishIngestBatch(r.Context(), &job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingestion batch")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue batch")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Int("transactions", len(job.Batch.Transactions)).
		Msg("Ingestion batch enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler serves job status queries.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{jobID}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Job not found: %s", jobID))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{Status: jobs.JobStatus(r.URL.Query().Get("status")), Limit: 100}
	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}

// SummaryHandler serves the ledger content summary.
type SummaryHandler struct {
	store ledger.Store
	log   zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(store ledger.Store, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{store: store, log: log}
}

// GetSummary handles GET /api/summary.
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
