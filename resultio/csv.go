// Package resultio serializes experiment.Result records into the
// mandatory CSV format plus a supplemental Apache Arrow IPC form,
// grounded on arrow/ipc.go and hierachain-engine/data's
// schema/converter pair.
package resultio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/experiment"
)

// csvHeader lists every mandated column, in order: experiment_id, then
// every config field except label (in Config's declared field order),
// then the six result columns.
var csvHeader = []string{
	"experiment_id",
	"num_peers", "full_mesh", "min_conn", "max_conn",
	"delay_min", "delay_max", "delay_multiplier",
	"num_validators", "tx_size_min", "tx_size_max",
	"total_simulation_ms", "injection_count", "simulation_step_ms",
	"publish_threshold", "blocktime_ms", "bandwidth_kb_per_ms",
	"max_transactions", "max_block_size_kb",
	"known_rows", "known_cols", "reset_cycle_on_force", "seed",
	"total_published_global", "tps", "published_mb", "mb_per_sec",
	"forced_publish_count", "final_pending_count",
}

// CSVWriter writes one row per experiment to an io.Writer, matching the
// exact mandated column list. Uses stdlib encoding/csv directly: no example repo
// in the corpus carries a dedicated CSV library, and the format here is
// a fixed, small table with no quoting/dialect complexity that would
// justify one.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter wraps w and writes the mandatory header row immediately.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("resultio: writing csv header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("resultio: writing csv header: %w", err)
	}
	return &CSVWriter{w: cw}, nil
}

// CreateCSVFile opens path for writing and returns a ready CSVWriter. The
// caller must call Close when done.
func CreateCSVFile(path string) (*CSVWriter, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resultio: creating %s: %w", path, err)
	}
	cw, err := NewCSVWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return cw, f, nil
}

// WriteRow appends one experiment's config and result as a CSV row.
func (cw *CSVWriter) WriteRow(experimentID int, cfg config.Config, res experiment.Result) error {
	row := []string{
		strconv.Itoa(experimentID),
		strconv.Itoa(cfg.NumPeers),
		strconv.FormatBool(cfg.FullMesh),
		strconv.Itoa(cfg.MinConn),
		strconv.Itoa(cfg.MaxConn),
		strconv.Itoa(cfg.DelayMin),
		strconv.Itoa(cfg.DelayMax),
		strconv.Itoa(cfg.DelayMultiplier),
		strconv.Itoa(cfg.NumValidators),
		strconv.Itoa(cfg.TxSizeMin),
		strconv.Itoa(cfg.TxSizeMax),
		strconv.Itoa(cfg.TotalSimulationMs),
		strconv.Itoa(cfg.InjectionCount),
		strconv.Itoa(cfg.SimulationStepMs),
		strconv.FormatFloat(cfg.PublishThreshold, 'f', -1, 64),
		strconv.Itoa(cfg.BlocktimeMs),
		strconv.FormatFloat(cfg.BandwidthKBPerMs, 'f', -1, 64),
		strconv.Itoa(cfg.MaxTransactions),
		strconv.Itoa(cfg.MaxBlockSizeKB),
		strconv.Itoa(cfg.KnownRows),
		strconv.Itoa(cfg.KnownCols),
		strconv.FormatBool(cfg.ResetCycleOnForce),
		strconv.FormatInt(cfg.Seed, 10),
		strconv.FormatInt(res.TotalPublishedGlobal, 10),
		strconv.FormatFloat(res.TPS, 'f', -1, 64),
		strconv.FormatFloat(res.PublishedMB, 'f', -1, 64),
		strconv.FormatFloat(res.MBPerSec, 'f', -1, 64),
		strconv.FormatInt(res.ForcedPublishCount, 10),
		strconv.Itoa(res.FinalPendingCount),
	}
	if err := cw.w.Write(row); err != nil {
		return fmt.Errorf("resultio: writing csv row %d: %w", experimentID, err)
	}
	return nil
}

// Flush flushes any buffered rows and reports the first write error, if
// any, matching the usual csv.Writer.Flush/Error pairing.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
