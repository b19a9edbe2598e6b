package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	infraBQ "github.com/finledger/ledger-engine/internal/infra/bigquery"
	"github.com/finledger/ledger-engine/internal/ingest"
	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/ledger/memory"
	"github.com/finledger/ledger-engine/internal/logger"
	"github.com/finledger/ledger-engine/internal/pipeline"
	"github.com/finledger/ledger-engine/internal/rates"
	"github.com/finledger/ledger-engine/internal/validate"
)

func main() {
	log := logger.New()

	var (
		accountsPath = flag.String("accounts", "", "CSV file with account master data")
		vendorsPath  = flag.String("vendors", "", "CSV file with vendor master data")
		txPath       = flag.String("transactions", "", "CSV file with transactions")
		project      = flag.String("project", os.Getenv("BQ_PROJECT"), "BigQuery project id (or set BQ_PROJECT env)")
		dataset      = flag.String("dataset", envOr("BQ_DATASET", "finance"), "BigQuery dataset")
		rateURL      = flag.String("rates-endpoint", rates.DefaultEndpoint, "Exchange rate API endpoint")
		dryRun       = flag.Bool("dry-run", false, "Validate and transform against an in-memory store without touching BigQuery")
	)
	flag.Parse()

	if *accountsPath == "" && *vendorsPath == "" && *txPath == "" {
		log.Fatal().Msg("Error: at least one of --accounts, --vendors, --transactions is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var batch pipeline.Batch
	var err error
	if *accountsPath != "" {
		if batch.Accounts, err = ingest.ReadCSVFile(*accountsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to read accounts file")
		}
	}
	if *vendorsPath != "" {
		if batch.Vendors, err = ingest.ReadCSVFile(*vendorsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to read vendors file")
		}
	}
	if *txPath != "" {
		if batch.Transactions, err = ingest.ReadCSVFile(*txPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to read transactions file")
		}
	}

	var store ledger.Store
	if *dryRun || *project == "" {
		if !*dryRun {
			log.Warn().Msg("No BigQuery project configured - using in-memory store")
		}
		store = memory.NewStore()
	} else {
		bqStore, err := infraBQ.NewStore(ctx, *project, *dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create ledger store")
		}
		store = bqStore
	}
	defer store.Close()

	engine := pipeline.NewEngine(
		ledger.NewLoader(store, log),
		rates.NewClient(*rateURL, log),
		validate.DefaultRules(),
		nil,
		log,
	)

	report, err := engine.Ingest(ctx, batch)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if report.Status == pipeline.RunFailed {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
