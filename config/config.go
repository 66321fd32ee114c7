// Package config loads experiment configuration as an external collaborator:
// the core never parses YAML itself. Structure and
// defaults mirror hierachain-engine/network/network_service.go's
// NetworkConfig/DefaultNetworkConfig pattern; the file format itself uses
// go.yaml.in/yaml/v2, already present as an indirect dependency of the
// teacher's own go.mod and promoted here to direct use.
package config

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v2"
)

// Config holds every field of the external-interface configuration table.
type Config struct {
	NumPeers          int  `yaml:"num_peers"`
	FullMesh          bool `yaml:"full_mesh"`
	MinConn           int  `yaml:"min_conn"`
	MaxConn           int  `yaml:"max_conn"`
	DelayMin          int  `yaml:"delay_min"`
	DelayMax          int  `yaml:"delay_max"`
	DelayMultiplier   int  `yaml:"delay_multiplier"`
	NumValidators     int  `yaml:"num_validators"`
	TxSizeMin         int  `yaml:"tx_size_min"`
	TxSizeMax         int  `yaml:"tx_size_max"`
	TotalSimulationMs int  `yaml:"total_simulation_ms"`
	InjectionCount    int  `yaml:"injection_count"`
	SimulationStepMs  int  `yaml:"simulation_step_ms"`

	PublishThreshold  float64 `yaml:"publish_threshold"`
	BlocktimeMs       int     `yaml:"blocktime_ms"`
	BandwidthKBPerMs  float64 `yaml:"bandwidth_kb_per_ms"`
	MaxTransactions   int     `yaml:"max_transactions"`
	MaxBlockSizeKB    int     `yaml:"max_block_size_kb"`

	KnownRows int `yaml:"known_rows"`
	KnownCols int `yaml:"known_cols"`

	// ResetCycleOnForce controls whether a forced publish also zeroes
	// block_cycle_time the way a normal publish does. Defaults to true:
	// original_source/include/montecarlo/network.hpp's run_experiment
	// resets block_cycle_time whenever published_now > 0, with no
	// distinction between the normal-quorum and forced-publish paths.
	// Exposed as a policy flag anyway (rather than baked in) so an
	// experiment can study the asymmetric alternative.
	ResetCycleOnForce bool `yaml:"reset_cycle_on_force"`

	// Seed drives the injectable Source (rng package). Zero means "seed
	// from the OS clock"; set explicitly for reproducible runs.
	Seed int64 `yaml:"seed"`

	// Label identifies this config in sweep output. LoadSweepFile and
	// ExpandSweep fill an empty label with "experiment-<index>"; LoadFile
	// leaves it as loaded.
	Label string `yaml:"label"`
}

// Default returns the "Typical" column values from the configuration table.
func Default() Config {
	return Config{
		NumPeers:          30,
		FullMesh:          false,
		MinConn:           3,
		MaxConn:           12,
		DelayMin:          10,
		DelayMax:          500,
		DelayMultiplier:   1,
		NumValidators:     7,
		TxSizeMin:         1,
		TxSizeMax:         5,
		TotalSimulationMs: 60000,
		InjectionCount:    150000,
		SimulationStepMs:  1000,
		PublishThreshold:  95.0,
		BlocktimeMs:       3000,
		BandwidthKBPerMs:  1000.0,
		MaxTransactions:   500000,
		MaxBlockSizeKB:    1000000,
		KnownRows:         1000000,
		KnownCols:         20,
		ResetCycleOnForce: true,
	}
}

// Sweep is the shape of a sweep file: an `experiments:` list with one
// Config per entry (see ExpandSweep for how a small set of varying axes
// becomes such a list).
type Sweep struct {
	Experiments []Config `yaml:"experiments"`
}

// LoadFile parses a YAML config file into a single Config, starting from
// Default() so the file only needs to name the fields it overrides.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadSweepFile parses a YAML file containing an `experiments:` list, one
// entry per Config, each layered over Default().
func LoadSweepFile(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var raw struct {
		Experiments []map[string]interface{} `yaml:"experiments"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	out := make([]Config, 0, len(raw.Experiments))
	for i, entry := range raw.Experiments {
		remarshaled, err := yaml.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("config: re-encoding experiment %d: %w", i, err)
		}
		cfg := Default()
		if err := yaml.Unmarshal(remarshaled, &cfg); err != nil {
			return nil, fmt.Errorf("config: decoding experiment %d: %w", i, err)
		}
		if cfg.Label == "" {
			cfg.Label = fmt.Sprintf("experiment-%d", i)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// ExpandSweep cartesian-expands the named axes against base, producing one
// Config per combination. Field names in axes must match Config's yaml
// tags (e.g. "bandwidth_kb_per_ms", "publish_threshold"). An axis with an
// unknown field name sets nothing, but its values still multiply the
// number of combinations, matching the "no eligible actor"
// philosophy of silently-recoverable local conditions rather than
// aborting a whole sweep over one typo.
func ExpandSweep(base Config, axes map[string][]interface{}) []Config {
	combos := []Config{base}
	for field, values := range axes {
		if len(values) == 0 {
			continue
		}
		next := make([]Config, 0, len(combos)*len(values))
		for _, c := range combos {
			for _, v := range values {
				next = append(next, applyField(c, field, v))
			}
		}
		combos = next
	}
	for i := range combos {
		if combos[i].Label == "" {
			combos[i].Label = fmt.Sprintf("experiment-%d", i)
		}
	}
	return combos
}

// applyField sets the named yaml field on a copy of c. Unsupported field
// names or value types leave c unchanged.
func applyField(c Config, field string, value interface{}) Config {
	switch field {
	case "num_peers":
		if v, ok := toInt(value); ok {
			c.NumPeers = v
		}
	case "full_mesh":
		if v, ok := value.(bool); ok {
			c.FullMesh = v
		}
	case "min_conn":
		if v, ok := toInt(value); ok {
			c.MinConn = v
		}
	case "max_conn":
		if v, ok := toInt(value); ok {
			c.MaxConn = v
		}
	case "delay_min":
		if v, ok := toInt(value); ok {
			c.DelayMin = v
		}
	case "delay_max":
		if v, ok := toInt(value); ok {
			c.DelayMax = v
		}
	case "delay_multiplier":
		if v, ok := toInt(value); ok {
			c.DelayMultiplier = v
		}
	case "num_validators":
		if v, ok := toInt(value); ok {
			c.NumValidators = v
		}
	case "tx_size_min":
		if v, ok := toInt(value); ok {
			c.TxSizeMin = v
		}
	case "tx_size_max":
		if v, ok := toInt(value); ok {
			c.TxSizeMax = v
		}
	case "total_simulation_ms":
		if v, ok := toInt(value); ok {
			c.TotalSimulationMs = v
		}
	case "injection_count":
		if v, ok := toInt(value); ok {
			c.InjectionCount = v
		}
	case "simulation_step_ms":
		if v, ok := toInt(value); ok {
			c.SimulationStepMs = v
		}
	case "publish_threshold":
		if v, ok := toFloat(value); ok {
			c.PublishThreshold = v
		}
	case "blocktime_ms":
		if v, ok := toInt(value); ok {
			c.BlocktimeMs = v
		}
	case "bandwidth_kb_per_ms":
		if v, ok := toFloat(value); ok {
			c.BandwidthKBPerMs = v
		}
	case "max_transactions":
		if v, ok := toInt(value); ok {
			c.MaxTransactions = v
		}
	case "max_block_size_kb":
		if v, ok := toInt(value); ok {
			c.MaxBlockSizeKB = v
		}
	case "known_rows":
		if v, ok := toInt(value); ok {
			c.KnownRows = v
		}
	case "known_cols":
		if v, ok := toInt(value); ok {
			c.KnownCols = v
		}
	case "seed":
		if v, ok := toInt(value); ok {
			c.Seed = int64(v)
		}
	}
	return c
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
