package sweep

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const runnerTestGraph = `
{
  "nodes": [
    {"id": "dc1", "type": "internal"},
    {"id": "dc2", "type": "internal"}
  ],
  "edges": [
    {"id": "L1", "edge_type": "external", "link_type": "transit", "to": "cogent", "capacity": "100G"},
    {"id": "L2", "edge_type": "external", "link_type": "peering", "to": "swissix", "capacity": "40G"},
    {"id": "L3", "edge_type": "external", "link_type": "peering", "to": "cixp", "capacity": "10G"}
  ]
}
`

const runnerTestTraffic = `to,traffic_out_gbps
swissix,12
cixp,4
cogent,25
`

func runnerTestConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.json")
	trafficPath := filepath.Join(dir, "traffic.csv")
	if err := os.WriteFile(graphPath, []byte(runnerTestGraph), 0o644); err != nil {
		t.Fatalf("write graph: %v", err)
	}
	if err := os.WriteFile(trafficPath, []byte(runnerTestTraffic), 0o644); err != nil {
		t.Fatalf("write traffic: %v", err)
	}
	return Config{
		GraphFile:    graphPath,
		TrafficFile:  trafficPath,
		OutputDir:    filepath.Join(dir, "out"),
		Workers:      2,
		Seed:         42,
		RunsPerPoint: 2,
		Axis:         AxisSpec{Name: AxisTrafficFactor, Min: 1, Max: 2, Step: 1},
		Configs: []ConfigurationSpec{
			{Name: "baseline"},
		},
	}
}

func TestExpandJobs_DerivedSeeds(t *testing.T) {
	cfg := runnerTestConfig(t)
	r := NewRunner(cfg, nil, nil, nil)

	jobs := r.expandJobs()
	if len(jobs) != 4 { // 1 configuration x 2 axis values x 2 runs
		t.Fatalf("jobs = %d, want 4", len(jobs))
	}
	seen := map[int64]bool{}
	for i, j := range jobs {
		if j.seed != cfg.Seed+int64(i)+1 {
			t.Errorf("job %d seed = %d, want %d", i, j.seed, cfg.Seed+int64(i)+1)
		}
		if seen[j.seed] {
			t.Errorf("seed %d reused", j.seed)
		}
		seen[j.seed] = true
	}
	if jobs[0].value != 1 || jobs[2].value != 2 {
		t.Errorf("axis values = %v/%v, want 1/2", jobs[0].value, jobs[2].value)
	}
}

func TestRunner_WritesScenarioAndResultFiles(t *testing.T) {
	cfg := runnerTestConfig(t)
	r := NewRunner(cfg, nil, nil, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, value := range []string{"1", "2"} {
		for _, run := range []string{"0", "1"} {
			scenarioPath := filepath.Join(cfg.OutputDir, "baseline", "scenarios", "scenario_factor_"+value+"_run_"+run+".json")
			if _, err := os.Stat(scenarioPath); err != nil {
				t.Errorf("scenario file missing: %v", err)
			}
			resultPath := filepath.Join(cfg.OutputDir, "baseline", "results", "result_factor_"+value+"_run_"+run+".json")
			raw, err := os.ReadFile(resultPath)
			if err != nil {
				t.Errorf("result file missing: %v", err)
				continue
			}
			var report map[string]json.RawMessage
			if err := json.Unmarshal(raw, &report); err != nil {
				t.Errorf("result %s does not parse: %v", resultPath, err)
				continue
			}
			for _, key := range []string{"isp_optimal", "thundering_herd", "sweep_parameters"} {
				if _, ok := report[key]; !ok {
					t.Errorf("result %s missing %q block", resultPath, key)
				}
			}
		}
	}
}

func TestRunner_SweepParametersMatchPoint(t *testing.T) {
	cfg := runnerTestConfig(t)
	cfg.RunsPerPoint = 1
	cfg.Axis = AxisSpec{Name: AxisTrafficFactor, Min: 2, Max: 2, Step: 1}
	r := NewRunner(cfg, nil, nil, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "baseline", "results", "result_factor_2_run_0.json"))
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var report struct {
		Parameters struct {
			Configuration string  `json:"configuration"`
			Axis          string  `json:"axis"`
			Value         float64 `json:"value"`
			Run           int     `json:"run"`
			Seed          int64   `json:"seed"`
		} `json:"sweep_parameters"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	p := report.Parameters
	if p.Configuration != "baseline" || p.Axis != AxisTrafficFactor || p.Value != 2 || p.Run != 0 || p.Seed != 43 {
		t.Errorf("sweep_parameters = %+v", p)
	}
}

func TestRunner_ScenarioFilesAreReproducible(t *testing.T) {
	cfg := runnerTestConfig(t)
	cfg.RunsPerPoint = 1
	cfg.Axis = AxisSpec{Name: AxisLatencyInflation, Min: 2, Max: 2, Step: 1}

	read := func(outputDir string) []byte {
		t.Helper()
		raw, err := os.ReadFile(filepath.Join(outputDir, "baseline", "scenarios", "scenario_factor_2_run_0.json"))
		if err != nil {
			t.Fatalf("read scenario: %v", err)
		}
		return raw
	}

	if err := NewRunner(cfg, nil, nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := read(cfg.OutputDir)

	cfg.OutputDir = filepath.Join(t.TempDir(), "again")
	if err := NewRunner(cfg, nil, nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := read(cfg.OutputDir)

	if string(first) != string(second) {
		t.Errorf("same seed produced different scenario files")
	}
}
