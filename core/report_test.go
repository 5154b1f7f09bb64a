package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ixplabs/egresssim/model"
)

func TestFlowKey_RoundTripWithUnderscoredPath(t *testing.T) {
	key := model.FlowKey{Host: "h1", Path: "p_h1_e2", Destination: "D_Peer_e2"}

	encoded := EncodeFlowKey(key)
	if want := "h1_p_h1_e2_to_D_Peer_e2"; encoded != want {
		t.Fatalf("encoded = %q, want %q", encoded, want)
	}

	parsed, err := ParseFlowKey(encoded)
	if err != nil {
		t.Fatalf("ParseFlowKey: %v", err)
	}
	if parsed != key {
		t.Errorf("parsed = %+v, want %+v", parsed, key)
	}
}

func TestParseFlowKey_Malformed(t *testing.T) {
	for _, s := range []string{"", "h1_p1", "noseparator", "h1to_X"} {
		if _, err := ParseFlowKey(s); !errors.Is(err, ErrMalformedScenario) {
			t.Errorf("ParseFlowKey(%q) err = %v, want ErrMalformedScenario", s, err)
		}
	}
}

func TestBuildPolicyResult_SerializesReportShape(t *testing.T) {
	s := buildTestScenario(t, twoHostFile())
	res, err := ThunderingHerdAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	block, err := buildPolicyResult(s, "example", res)
	if err != nil {
		t.Fatalf("buildPolicyResult: %v", err)
	}

	report := Report{}
	if err := report.set(PolicyThunderingHerd, block); err != nil {
		t.Fatalf("set: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// The plotting pipeline reads these exact keys back out.
	var decoded map[string]struct {
		ScenarioName       string                           `json:"scenario_name"`
		Status             string                           `json:"lp_status"`
		TotalCost          float64                          `json:"total_cost"`
		TotalSentTraffic   float64                          `json:"total_sent_traffic"`
		TotalUnsentTraffic float64                          `json:"total_unsent_traffic"`
		TrafficAllocation  map[string]float64               `json:"traffic_allocation"`
		Performance        *PerformanceAnalysis             `json:"performance_analysis"`
		CongestionAnalysis map[string]DestinationCongestion `json:"congestion_analysis"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	got, ok := decoded[PolicyThunderingHerd]
	if !ok {
		t.Fatalf("report has no %q block", PolicyThunderingHerd)
	}
	if got.Status != StatusSimulated {
		t.Errorf("lp_status = %q, want %q", got.Status, StatusSimulated)
	}
	if math.Abs(got.TotalSentTraffic-40) > 1e-6 {
		t.Errorf("total_sent_traffic = %v, want 40", got.TotalSentTraffic)
	}
	if got.Performance == nil || len(got.Performance.EgressUtilization) != 2 {
		t.Errorf("performance_analysis missing egress utilization: %+v", got.Performance)
	}
	if _, ok := got.CongestionAnalysis["X"]; !ok {
		t.Errorf("congestion_analysis missing destination X")
	}
	var sum float64
	for key, v := range got.TrafficAllocation {
		if _, err := ParseFlowKey(key); err != nil {
			t.Errorf("allocation key %q does not parse: %v", key, err)
		}
		sum += v
	}
	if math.Abs(sum-40) > 1e-6 {
		t.Errorf("allocation sums to %v, want 40", sum)
	}
}

func TestBuildTimeResult_InfiniteDurationSerializesAsNull(t *testing.T) {
	res := TimeOptimizationResult{
		Status:      "Optimal",
		DurationSec: math.Inf(1),
		Allocation:  model.Allocation{},
		Details: map[string]DestinationTransfer{
			"X": {DataVolume: 100, CompletionTimeSec: math.Inf(1)},
		},
	}

	report := Report{}
	if err := report.set(PolicyTimeOptimalWorst, buildTimeResult(WorstCaseTransfer, res)); err != nil {
		t.Fatalf("set: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded map[string]struct {
		Goal     string   `json:"optimization_goal"`
		Duration *float64 `json:"transfer_duration_sec"`
		Details  map[string]struct {
			Completion *float64 `json:"completion_time_sec"`
		} `json:"destination_details"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	block := decoded[PolicyTimeOptimalWorst]
	if block.Goal != "minimize" {
		t.Errorf("optimization_goal = %q, want minimize", block.Goal)
	}
	if block.Duration != nil {
		t.Errorf("transfer_duration_sec = %v, want null", *block.Duration)
	}
	if d, ok := block.Details["X"]; !ok || d.Completion != nil {
		t.Errorf("destination details = %+v, want completion null", block.Details)
	}
}

func TestReport_SetParameters(t *testing.T) {
	report := Report{}
	err := report.SetParameters(ReportParameters{
		Configuration: "worst_case",
		Axis:          "traffic_factor",
		Value:         2.5,
		Run:           1,
		Seed:          42,
	})
	if err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	raw, ok := report["sweep_parameters"]
	if !ok {
		t.Fatalf("report has no sweep_parameters block")
	}
	var p ReportParameters
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode parameters: %v", err)
	}
	if p.Configuration != "worst_case" || p.Value != 2.5 || p.Seed != 42 {
		t.Errorf("parameters = %+v", p)
	}
}
