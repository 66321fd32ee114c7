package resultio

import (
	"path/filepath"
	"testing"

	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/experiment"
)

func TestResultSchemaFieldCount(t *testing.T) {
	schema := ResultSchema()

	if schema.NumFields() != len(csvHeader) {
		t.Fatalf("schema has %d fields, csv header has %d columns; they must match", schema.NumFields(), len(csvHeader))
	}
	for i, name := range csvHeader {
		if schema.Field(i).Name != name {
			t.Errorf("field %d: schema name %q, csv header name %q", i, schema.Field(i).Name, name)
		}
	}
}

func TestBuildRecordRowCount(t *testing.T) {
	aw := NewArrowWriter()
	rows := []Row{
		{ExperimentID: 0, Config: config.Default(), Result: experiment.Result{TotalPublishedGlobal: 10}},
		{ExperimentID: 1, Config: config.Default(), Result: experiment.Result{TotalPublishedGlobal: 20}},
	}

	record, err := aw.BuildRecord(rows)
	if err != nil {
		t.Fatalf("BuildRecord: %v", err)
	}
	defer record.Release()

	if record.NumRows() != int64(len(rows)) {
		t.Errorf("NumRows() = %d, want %d", record.NumRows(), len(rows))
	}
	if record.NumCols() != int64(len(csvHeader)) {
		t.Errorf("NumCols() = %d, want %d", record.NumCols(), len(csvHeader))
	}
}

func TestBuildRecordEmptyRowsErrors(t *testing.T) {
	aw := NewArrowWriter()

	if _, err := aw.BuildRecord(nil); err == nil {
		t.Fatal("expected an error building a record from zero rows")
	}
}

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	aw := NewArrowWriter()
	rows := []Row{
		{ExperimentID: 0, Config: config.Default(), Result: experiment.Result{TotalPublishedGlobal: 10, FinalPendingCount: 5}},
	}

	path := filepath.Join(t.TempDir(), "results.arrow")
	if err := aw.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	record, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	defer record.Release()

	if record.NumRows() != 1 {
		t.Errorf("NumRows() = %d, want 1", record.NumRows())
	}
	if record.NumCols() != int64(len(csvHeader)) {
		t.Errorf("NumCols() = %d, want %d", record.NumCols(), len(csvHeader))
	}
}
