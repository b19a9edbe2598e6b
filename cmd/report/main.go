package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/finledger/ledger-engine/internal/artifact"
	infraBQ "github.com/finledger/ledger-engine/internal/infra/bigquery"
	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/logger"
	"github.com/finledger/ledger-engine/internal/pipeline"
	"github.com/finledger/ledger-engine/internal/report"
)

const dateLayout = "2006-01-02"

func main() {
	log := logger.New()

	var (
		reportType = flag.String("type", "", "Report type to generate; empty runs all of them")
		startRaw   = flag.String("start", "", "Window start date (YYYY-MM-DD)")
		endRaw     = flag.String("end", "", "Window end date (YYYY-MM-DD), defaults to today")
		project    = flag.String("project", os.Getenv("BQ_PROJECT"), "BigQuery project id (or set BQ_PROJECT env)")
		dataset    = flag.String("dataset", envOr("BQ_DATASET", "finance"), "BigQuery dataset")
		outDir     = flag.String("out", "reports", "Local directory for report artifacts")
		bucket     = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report artifacts; overrides --out")
	)
	flag.Parse()

	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, -1, 0)
	var err error
	if *endRaw != "" {
		if end, err = time.Parse(dateLayout, *endRaw); err != nil {
			log.Fatal().Err(err).Msg("Invalid --end date")
		}
	}
	if *startRaw != "" {
		if start, err = time.Parse(dateLayout, *startRaw); err != nil {
			log.Fatal().Err(err).Msg("Invalid --start date")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := infraBQ.NewStore(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger store")
	}
	defer store.Close()

	var writer artifact.Writer
	if *bucket != "" {
		gcsWriter, err := artifact.NewGCSWriter(ctx, *bucket, "reports")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS writer")
		}
		defer gcsWriter.Close()
		writer = gcsWriter
	} else {
		localWriter, err := artifact.NewLocalWriter(*outDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output directory")
		}
		writer = localWriter
	}

	generator := pipeline.NewGenerator(report.NewReporter(store), writer, store, nil, log)

	var entries []*ledger.ReportLog
	if *reportType == "" {
		entries, err = generator.GenerateAll(ctx, start, end)
	} else {
		var entry *ledger.ReportLog
		entry, err = generator.Generate(ctx, *reportType, start, end)
		entries = append(entries, entry)
	}
	if err != nil {
		log.Error().Err(err).Msg("Report generation finished with errors")
	}

	failed := false
	for _, entry := range entries {
		fmt.Printf("%-20s %-8s %6d records  %s\n",
			entry.ReportType, entry.Status, entry.RecordCount, entry.FilePath)
		if entry.Status != ledger.ReportSuccess {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
