package arrow

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func buildTestRecord() arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()
	builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	return builder.NewRecord()
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	w := NewIPCWriter()
	record := buildTestRecord()
	defer record.Release()

	data, err := w.SerializeToIPC(record)
	if err != nil {
		t.Fatalf("SerializeToIPC: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("SerializeToIPC returned no bytes")
	}

	got, err := w.DeserializeFromIPC(data)
	if err != nil {
		t.Fatalf("DeserializeFromIPC: %v", err)
	}
	defer got.Release()

	if got.NumRows() != record.NumRows() {
		t.Errorf("NumRows() = %d, want %d", got.NumRows(), record.NumRows())
	}
}

func TestDeserializeFromIPCEmptyErrors(t *testing.T) {
	w := NewIPCWriter()
	if _, err := w.DeserializeFromIPC([]byte{}); err == nil {
		t.Fatal("expected an error deserializing empty data")
	}
}

func TestSerializeMultipleToIPCRequiresRecords(t *testing.T) {
	w := NewIPCWriter()
	if _, err := w.SerializeMultipleToIPC(nil); err == nil {
		t.Fatal("expected an error serializing zero records")
	}
}
