// Package ingest reads raw tabular batches from CSV sources into records the
// transformer consumes. It does no cleaning beyond header capture: value
// normalization belongs to the transform step.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/finledger/ledger-engine/internal/transform"
)

// ReadCSV parses CSV from r. The first row is the header; every following
// row becomes one record keyed by those headers. Short rows are padded with
// empty values, long rows are rejected by the CSV reader.
func ReadCSV(r io.Reader) ([]transform.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ReadCSV: reading header: %w", err)
	}

	var records []transform.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadCSV: reading row %d: %w", len(records)+2, err)
		}
		rec := make(transform.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCSVFile reads a CSV batch from disk.
func ReadCSVFile(path string) ([]transform.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadCSVFile: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ReadCSVFile: %s: %w", path, err)
	}
	return records, nil
}
