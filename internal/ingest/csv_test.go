package ingest

import (
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Transaction ID,Amount,Currency",
		"T1,100.00,USD",
		"T2,50.25,EUR",
	}, "\n")

	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["Transaction ID"] != "T1" || records[0]["Amount"] != "100.00" {
		t.Errorf("record 0 = %v", records[0])
	}
	if records[1]["Currency"] != "EUR" {
		t.Errorf("record 1 currency = %q, want EUR", records[1]["Currency"])
	}
}

func TestReadCSVShortRowsPadded(t *testing.T) {
	input := "a,b,c\n1,2\n"
	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if records[0]["c"] != "" {
		t.Errorf("missing trailing field = %q, want empty string", records[0]["c"])
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil for empty input", records)
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	records, err := ReadCSV(strings.NewReader("a,b,c\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}
