package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/finledger/ledger-engine/internal/api/handlers"
	"github.com/finledger/ledger-engine/internal/api/middleware"
	infraBQ "github.com/finledger/ledger-engine/internal/infra/bigquery"
	"github.com/finledger/ledger-engine/internal/jobs"
	"github.com/finledger/ledger-engine/internal/jobs/inmemory"
	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/ledger/memory"
	"github.com/finledger/ledger-engine/internal/logger"
	"github.com/finledger/ledger-engine/internal/pipeline"
	"github.com/finledger/ledger-engine/internal/rates"
	"github.com/finledger/ledger-engine/internal/report"
	"github.com/finledger/ledger-engine/internal/validate"
	"github.com/finledger/ledger-engine/pkg/metrics"
)

func main() {
	var (
		port    = flag.String("port", "8080", "HTTP server port")
		project = flag.String("project", os.Getenv("BQ_PROJECT"), "BigQuery project id (or set BQ_PROJECT env)")
		dataset = flag.String("dataset", envOr("BQ_DATASET", "finance"), "BigQuery dataset (or set BQ_DATASET env)")
		rateURL = flag.String("rates-endpoint", rates.DefaultEndpoint, "Exchange rate API endpoint")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	// Without a project the engine runs against the in-memory store, which
	// is enough for local development.
	var store ledger.Store
	if *project == "" {
		log.Warn().Msg("No BigQuery project configured - using in-memory store")
		store = memory.NewStore()
	} else {
		bqStore, err := infraBQ.NewStore(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create ledger store")
		}
		store = bqStore
	}
	defer store.Close()

	collector := metrics.NewCollector()
	loader := ledger.NewLoader(store, log)
	rateClient := rates.NewClient(*rateURL, log)
	engine := pipeline.NewEngine(loader, rateClient, validate.DefaultRules(), collector, log)
	reporter := report.NewReporter(store)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.IngestBatchJob) (*pipeline.RunReport, error) {
		log.Info().
			Str("job_id", job.JobID).
			Int("transactions", len(job.Batch.Transactions)).
			Msg("Processing ingestion job")
		return engine.Ingest(ctx, job.Batch)
	}

	go func() {
		log.Info().Msg("Starting ingestion worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Ingestion worker stopped with error")
		}
	}()

	reportsHandler := handlers.NewReportsHandler(reporter, log)
	ingestHandler := handlers.NewIngestHandler(jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)
	summaryHandler := handlers.NewSummaryHandler(store, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.GetReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.EnqueueBatch(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.GetSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/health", handlers.Health)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
