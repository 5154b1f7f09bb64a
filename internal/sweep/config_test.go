package sweep

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
graph_file: topology.json
traffic_file: traffic.csv
output_dir: out
workers: 8
seed: 42
runs_per_point: 3
metrics_listen: ":9090"
axis:
  name: latency_inflation
  min: 1
  max: 3
  step: 0.5
configurations:
  - name: worst_case
    description: adversarial latencies
    transit_base_cost: 1
    peering_base_cost: 1
    use_worst_case_links: true
  - name: peering_with_port_fees
    peering_base_cost: 2000
    prefer_peering: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.GraphFile != "topology.json" || cfg.TrafficFile != "traffic.csv" {
		t.Errorf("input files = %q/%q", cfg.GraphFile, cfg.TrafficFile)
	}
	if cfg.Workers != 8 || cfg.Seed != 42 || cfg.RunsPerPoint != 3 {
		t.Errorf("workers/seed/runs = %d/%d/%d", cfg.Workers, cfg.Seed, cfg.RunsPerPoint)
	}
	if cfg.Axis.Name != AxisLatencyInflation || cfg.Axis.Step != 0.5 {
		t.Errorf("axis = %+v", cfg.Axis)
	}
	if len(cfg.Configs) != 2 {
		t.Fatalf("configurations = %d, want 2", len(cfg.Configs))
	}
	wc := cfg.Configs[0]
	if wc.Name != "worst_case" || !wc.UseWorstCaseLinks {
		t.Errorf("first configuration = %+v", wc)
	}
	if wc.TransitBaseCost == nil || *wc.TransitBaseCost != 1 {
		t.Errorf("transit_base_cost = %v, want 1", wc.TransitBaseCost)
	}
	if wc.PeeringVariableCost != nil {
		t.Errorf("peering_variable_cost = %v, want unset", *wc.PeeringVariableCost)
	}
	if !cfg.Configs[1].PreferPeering {
		t.Errorf("second configuration = %+v, want prefer_peering", cfg.Configs[1])
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
graph_file: topology.json
traffic_file: traffic.csv
configurations:
  - name: baseline
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.OutputDir != "results" || cfg.Workers != 4 || cfg.RunsPerPoint != 1 {
		t.Errorf("defaults = %q/%d/%d", cfg.OutputDir, cfg.Workers, cfg.RunsPerPoint)
	}
	if cfg.Axis.Name != AxisTrafficFactor || cfg.Axis.Min != 1 || cfg.Axis.Max != 20 || cfg.Axis.Step != 1 {
		t.Errorf("default axis = %+v", cfg.Axis)
	}
	if got := len(cfg.Axis.Values()); got != 20 {
		t.Errorf("default axis points = %d, want 20", got)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing graph", "traffic_file: t.csv\nconfigurations:\n  - name: a\n"},
		{"missing traffic", "graph_file: g.json\nconfigurations:\n  - name: a\n"},
		{"no configurations", "graph_file: g.json\ntraffic_file: t.csv\n"},
		{"unnamed configuration", "graph_file: g.json\ntraffic_file: t.csv\nconfigurations:\n  - description: x\n"},
		{"unknown axis", "graph_file: g.json\ntraffic_file: t.csv\naxis:\n  name: jitter\nconfigurations:\n  - name: a\n"},
		{"bad step", "graph_file: g.json\ntraffic_file: t.csv\naxis:\n  name: traffic_factor\n  step: 0\nconfigurations:\n  - name: a\n"},
		{"max below min", "graph_file: g.json\ntraffic_file: t.csv\naxis:\n  name: traffic_factor\n  min: 5\n  max: 2\n  step: 1\nconfigurations:\n  - name: a\n"},
		{"zero workers", "graph_file: g.json\ntraffic_file: t.csv\nworkers: -1\nconfigurations:\n  - name: a\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.yaml)); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestAxisValues(t *testing.T) {
	cases := []struct {
		name string
		axis AxisSpec
		want []float64
	}{
		{"unit steps", AxisSpec{Min: 1, Max: 4, Step: 1}, []float64{1, 2, 3, 4}},
		{"single point", AxisSpec{Min: 2, Max: 2, Step: 1}, []float64{2}},
		{"fractional", AxisSpec{Min: 1, Max: 2, Step: 0.5}, []float64{1, 1.5, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.axis.Values()
			if len(got) != len(tc.want) {
				t.Fatalf("values = %v, want %v", got, tc.want)
			}
			for i := range got {
				if diff := got[i] - tc.want[i]; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("values[%d] = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}
