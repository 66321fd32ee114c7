package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesTypicalColumn(t *testing.T) {
	cfg := Default()

	if cfg.NumPeers != 30 {
		t.Errorf("NumPeers = %d, want 30", cfg.NumPeers)
	}
	if cfg.NumValidators != 7 {
		t.Errorf("NumValidators = %d, want 7", cfg.NumValidators)
	}
	if cfg.PublishThreshold != 95.0 {
		t.Errorf("PublishThreshold = %f, want 95.0", cfg.PublishThreshold)
	}
	if !cfg.ResetCycleOnForce {
		t.Error("ResetCycleOnForce should default to true")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := "num_peers: 50\nfull_mesh: true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.NumPeers != 50 {
		t.Errorf("NumPeers = %d, want 50", cfg.NumPeers)
	}
	if !cfg.FullMesh {
		t.Error("FullMesh = false, want true")
	}
	if cfg.NumValidators != Default().NumValidators {
		t.Errorf("NumValidators = %d, want unchanged default %d", cfg.NumValidators, Default().NumValidators)
	}
}

func TestLoadFileMissingReturnsError(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadSweepFileAssignsDefaultLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.yaml")
	contents := "experiments:\n  - num_peers: 10\n  - num_peers: 20\n    label: custom\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfgs, err := LoadSweepFile(path)
	if err != nil {
		t.Fatalf("LoadSweepFile: %v", err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("len(cfgs) = %d, want 2", len(cfgs))
	}
	if cfgs[0].Label != "experiment-0" {
		t.Errorf("cfgs[0].Label = %q, want auto-assigned experiment-0", cfgs[0].Label)
	}
	if cfgs[1].Label != "custom" {
		t.Errorf("cfgs[1].Label = %q, want custom", cfgs[1].Label)
	}
	if cfgs[1].NumPeers != 20 {
		t.Errorf("cfgs[1].NumPeers = %d, want 20", cfgs[1].NumPeers)
	}
}

func TestExpandSweepCartesianProduct(t *testing.T) {
	base := Default()
	axes := map[string][]interface{}{
		"num_peers":  {10, 20},
		"full_mesh":  {true, false},
	}

	combos := ExpandSweep(base, axes)

	if len(combos) != 4 {
		t.Fatalf("len(combos) = %d, want 4", len(combos))
	}
	for i, c := range combos {
		if c.Label == "" {
			t.Errorf("combos[%d] has no label", i)
		}
	}
}

func TestExpandSweepUnknownFieldIsSkipped(t *testing.T) {
	base := Default()
	combos := ExpandSweep(base, map[string][]interface{}{
		"not_a_real_field": {1, 2},
	})

	if len(combos) != 2 {
		t.Fatalf("len(combos) = %d, want 2 (one per value, even though the field is unknown)", len(combos))
	}
	for _, c := range combos {
		if c.NumPeers != base.NumPeers {
			t.Errorf("unknown field application mutated NumPeers: got %d, want %d", c.NumPeers, base.NumPeers)
		}
	}
}
