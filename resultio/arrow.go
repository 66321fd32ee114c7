package resultio

import (
	"fmt"
	"os"

	arrowlib "github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/txsim-engine/arrow"
	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/experiment"
)

// ResultSchema is the Arrow schema for one row of experiment output,
// column-for-column identical to csvHeader so the two formats are
// interchangeable. Grounded on hierachain-engine/data/schema.go's
// pattern of one function returning a fixed *arrowlib.Schema.
func ResultSchema() *arrowlib.Schema {
	return arrowlib.NewSchema(
		[]arrowlib.Field{
			{Name: "experiment_id", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "num_peers", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "full_mesh", Type: arrowlib.FixedWidthTypes.Boolean},
			{Name: "min_conn", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "max_conn", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "delay_min", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "delay_max", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "delay_multiplier", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "num_validators", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "tx_size_min", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "tx_size_max", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "total_simulation_ms", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "injection_count", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "simulation_step_ms", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "publish_threshold", Type: arrowlib.PrimitiveTypes.Float64},
			{Name: "blocktime_ms", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "bandwidth_kb_per_ms", Type: arrowlib.PrimitiveTypes.Float64},
			{Name: "max_transactions", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "max_block_size_kb", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "known_rows", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "known_cols", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "reset_cycle_on_force", Type: arrowlib.FixedWidthTypes.Boolean},
			{Name: "seed", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "total_published_global", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "tps", Type: arrowlib.PrimitiveTypes.Float64},
			{Name: "published_mb", Type: arrowlib.PrimitiveTypes.Float64},
			{Name: "mb_per_sec", Type: arrowlib.PrimitiveTypes.Float64},
			{Name: "forced_publish_count", Type: arrowlib.PrimitiveTypes.Int64},
			{Name: "final_pending_count", Type: arrowlib.PrimitiveTypes.Int64},
		},
		nil,
	)
}

// Row pairs a Config and its Result under one experiment id, the unit
// ArrowWriter batches into a RecordBatch.
type Row struct {
	ExperimentID int
	Config       config.Config
	Result       experiment.Result
}

// ArrowWriter builds one Arrow RecordBatch from a full set of experiment
// rows and serializes it to IPC (streaming) form. Supplemental to the
// mandatory CSV output, for callers who want to load a sweep's results
// into an Arrow-aware analysis pipeline without a CSV parse step.
// Grounded on arrow/ipc.go's IPCWriter and
// hierachain-engine/data/converter.go's RecordBuilder usage.
type ArrowWriter struct {
	allocator memory.Allocator
}

// NewArrowWriter creates an ArrowWriter using the default allocator.
func NewArrowWriter() *ArrowWriter {
	return &ArrowWriter{allocator: memory.DefaultAllocator}
}

// BuildRecord converts rows into a single Arrow Record. The caller must
// call Release on the returned record.
func (aw *ArrowWriter) BuildRecord(rows []Row) (arrowlib.Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("resultio: no rows to build")
	}

	schema := ResultSchema()
	builder := array.NewRecordBuilder(aw.allocator, schema)
	defer builder.Release()

	for _, row := range rows {
		cfg, res := row.Config, row.Result

		builder.Field(0).(*array.Int64Builder).Append(int64(row.ExperimentID))
		builder.Field(1).(*array.Int64Builder).Append(int64(cfg.NumPeers))
		builder.Field(2).(*array.BooleanBuilder).Append(cfg.FullMesh)
		builder.Field(3).(*array.Int64Builder).Append(int64(cfg.MinConn))
		builder.Field(4).(*array.Int64Builder).Append(int64(cfg.MaxConn))
		builder.Field(5).(*array.Int64Builder).Append(int64(cfg.DelayMin))
		builder.Field(6).(*array.Int64Builder).Append(int64(cfg.DelayMax))
		builder.Field(7).(*array.Int64Builder).Append(int64(cfg.DelayMultiplier))
		builder.Field(8).(*array.Int64Builder).Append(int64(cfg.NumValidators))
		builder.Field(9).(*array.Int64Builder).Append(int64(cfg.TxSizeMin))
		builder.Field(10).(*array.Int64Builder).Append(int64(cfg.TxSizeMax))
		builder.Field(11).(*array.Int64Builder).Append(int64(cfg.TotalSimulationMs))
		builder.Field(12).(*array.Int64Builder).Append(int64(cfg.InjectionCount))
		builder.Field(13).(*array.Int64Builder).Append(int64(cfg.SimulationStepMs))
		builder.Field(14).(*array.Float64Builder).Append(cfg.PublishThreshold)
		builder.Field(15).(*array.Int64Builder).Append(int64(cfg.BlocktimeMs))
		builder.Field(16).(*array.Float64Builder).Append(cfg.BandwidthKBPerMs)
		builder.Field(17).(*array.Int64Builder).Append(int64(cfg.MaxTransactions))
		builder.Field(18).(*array.Int64Builder).Append(int64(cfg.MaxBlockSizeKB))
		builder.Field(19).(*array.Int64Builder).Append(int64(cfg.KnownRows))
		builder.Field(20).(*array.Int64Builder).Append(int64(cfg.KnownCols))
		builder.Field(21).(*array.BooleanBuilder).Append(cfg.ResetCycleOnForce)
		builder.Field(22).(*array.Int64Builder).Append(cfg.Seed)
		builder.Field(23).(*array.Int64Builder).Append(res.TotalPublishedGlobal)
		builder.Field(24).(*array.Float64Builder).Append(res.TPS)
		builder.Field(25).(*array.Float64Builder).Append(res.PublishedMB)
		builder.Field(26).(*array.Float64Builder).Append(res.MBPerSec)
		builder.Field(27).(*array.Int64Builder).Append(res.ForcedPublishCount)
		builder.Field(28).(*array.Int64Builder).Append(int64(res.FinalPendingCount))
	}

	return builder.NewRecord(), nil
}

// WriteFile builds rows into a record and writes it to path in Arrow IPC
// format, via the shared arrow.IPCWriter rather than driving
// arrow/ipc directly a second time.
func (aw *ArrowWriter) WriteFile(path string, rows []Row) error {
	record, err := aw.BuildRecord(rows)
	if err != nil {
		return err
	}
	defer record.Release()

	data, err := arrow.NewIPCWriter().SerializeToIPC(record)
	if err != nil {
		return fmt.Errorf("resultio: serializing arrow record: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("resultio: writing %s: %w", path, err)
	}
	return nil
}

// ReadFile deserializes an Arrow IPC file previously written by WriteFile
// back into a Record. The caller must call Release on the result.
func ReadFile(path string) (arrowlib.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resultio: reading %s: %w", path, err)
	}
	record, err := arrow.NewIPCWriter().DeserializeFromIPC(data)
	if err != nil {
		return nil, fmt.Errorf("resultio: deserializing %s: %w", path, err)
	}
	return record, nil
}
