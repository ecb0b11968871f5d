package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Think.Buckets != 6 {
		t.Errorf("Think.Buckets = %d, want 6", cfg.Think.Buckets)
	}
	if cfg.Think.AccumulateDT {
		t.Error("Think.AccumulateDT should default to false")
	}
	if cfg.Frontier.DecisionRate != 1.2 {
		t.Errorf("Frontier.DecisionRate = %f, want 1.2", cfg.Frontier.DecisionRate)
	}
	if len(cfg.Homes) != 2 {
		t.Fatalf("len(Homes) = %d, want 2", len(cfg.Homes))
	}
	if cfg.Derived.TotalAgents != 5000 {
		t.Errorf("Derived.TotalAgents = %d, want 5000", cfg.Derived.TotalAgents)
	}
	if _, ok := cfg.Derived.HomeIndex["north"]; !ok {
		t.Error("expected home index to contain north")
	}
	if cfg.Derived.TicksPerSec < 59.9 || cfg.Derived.TicksPerSec > 60.1 {
		t.Errorf("Derived.TicksPerSec = %f, want ~60", cfg.Derived.TicksPerSec)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	overlay := `
think:
  buckets: 3
homes:
  - name: solo
    x: 5
    y: 5
    spawn:
      amount: 10
      speed: [3, 1]
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load overlay: %v", err)
	}

	if cfg.Think.Buckets != 3 {
		t.Errorf("Think.Buckets = %d, want 3", cfg.Think.Buckets)
	}
	// Fields absent from the overlay keep their defaults
	if cfg.Task.DeliverEpsilon != 0.1 {
		t.Errorf("Task.DeliverEpsilon = %f, want 0.1", cfg.Task.DeliverEpsilon)
	}
	if len(cfg.Homes) != 1 || cfg.Homes[0].Name != "solo" {
		t.Fatalf("Homes = %+v, want single home 'solo'", cfg.Homes)
	}
	speed := cfg.Homes[0].Spawn.Speed
	if speed.Min() != 1 || speed.Max() != 3 {
		t.Errorf("swapped speed range not sorted: %v", speed)
	}
	if cfg.Derived.TotalAgents != 10 {
		t.Errorf("Derived.TotalAgents = %d, want 10", cfg.Derived.TotalAgents)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown section", "bogus:\n  x: 1\n"},
		{"negative dt", "sim:\n  dt: -1\n"},
		{"short range", "items:\n  amount: [1]\n"},
		{"layer out of range", "items:\n  layer: 40\n"},
		{"probability above one", "frontier:\n  pause_prob: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate([]byte(tt.doc)); err == nil {
				t.Errorf("Validate(%q) succeeded, want error", tt.doc)
			}
		})
	}
}

func TestValidateAcceptsEmpty(t *testing.T) {
	if err := Validate([]byte("")); err != nil {
		t.Errorf("empty document should validate: %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "decision_rate") {
		t.Error("written config missing frontier section")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if reloaded.Derived.TotalAgents != cfg.Derived.TotalAgents {
		t.Errorf("TotalAgents changed across round trip: %d != %d",
			reloaded.Derived.TotalAgents, cfg.Derived.TotalAgents)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("Cfg() should panic before Init")
		}
	}()
	Cfg()
}
