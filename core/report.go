package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ixplabs/egresssim/model"
)

// Policy names used as report keys. Downstream plotting selects result
// blocks by these exact strings.
const (
	PolicyISPOptimal               = "isp_optimal"
	PolicyISPPessimal              = "isp_pessimal"
	PolicyLatencyOptimal           = "latency_optimal"
	PolicyThunderingHerd           = "thundering_herd"
	PolicyThunderingHerdAllLinks   = "thundering_herd_all_links"
	PolicyThunderingHerdPeering    = "thundering_herd_peering_only"
	PolicyFairShareLatencyOptimal  = "fair_share_latency_optimal"
	PolicyFairShareLatencyOptimal2 = "fair_share_latency_optimal_2"
	PolicyFairShareLatencyOptimal3 = "fair_share_latency_optimal_3"
	PolicyWaterFillingOptimal1     = "waterfilling_optimal_1"
	PolicyWaterFillingOptimal2     = "waterfilling_optimal_2"
	PolicyWaterFillingOptimal3     = "waterfilling_optimal_3"
	PolicyTimeOptimalBest          = "time_optimal_best"
	PolicyTimeOptimalWorst         = "time_optimal_worst"
)

const flowKeySeparator = "_to_"

// EncodeFlowKey renders a flow key in the "{host}_{path}_to_{destination}"
// form the report file uses. Host IDs must not contain underscores for the
// encoding to round-trip; path IDs may.
func EncodeFlowKey(key model.FlowKey) string {
	return key.Host + "_" + key.Path + flowKeySeparator + key.Destination
}

// ParseFlowKey recovers a flow key from its string form. The path portion can
// itself contain underscores, so the string splits on the first "_to_" and
// then on only the first remaining underscore.
func ParseFlowKey(s string) (model.FlowKey, error) {
	head, dest, ok := strings.Cut(s, flowKeySeparator)
	if !ok {
		return model.FlowKey{}, fmt.Errorf("%w: allocation key %q has no %q separator", ErrMalformedScenario, s, flowKeySeparator)
	}
	host, path, ok := strings.Cut(head, "_")
	if !ok {
		return model.FlowKey{}, fmt.Errorf("%w: allocation key %q has no host prefix", ErrMalformedScenario, s)
	}
	return model.FlowKey{Host: host, Path: path, Destination: dest}, nil
}

// PolicyResult is one policy's block in the report file: the allocation in
// its wire form plus the derived performance metrics.
type PolicyResult struct {
	ScenarioName       string                           `json:"scenario_name,omitempty"`
	Status             string                           `json:"lp_status,omitempty"`
	TotalCost          float64                          `json:"total_cost"`
	TotalSentTraffic   float64                          `json:"total_sent_traffic"`
	TotalUnsentTraffic float64                          `json:"total_unsent_traffic"`
	TrafficAllocation  map[string]float64               `json:"traffic_allocation"`
	Performance        *PerformanceAnalysis             `json:"performance_analysis,omitempty"`
	CongestionAnalysis map[string]DestinationCongestion `json:"congestion_analysis,omitempty"`
	Error              string                           `json:"error,omitempty"`
}

// TimeOptimalResult is a transfer-time policy's block in the report file.
// Durations are pointers because a stalled transfer has an infinite duration,
// which JSON cannot carry; it serializes as null.
type TimeOptimalResult struct {
	Status              string                         `json:"lp_status"`
	OptimizationGoal    string                         `json:"optimization_goal"`
	EffectiveThroughput float64                        `json:"effective_throughput_z"`
	TransferDurationSec *float64                       `json:"transfer_duration_sec"`
	DestinationDetails  map[string]destinationTransfer `json:"destination_details"`
	RateAllocationGbps  map[string]float64             `json:"rate_allocation_gbps"`
}

// destinationTransfer is the wire form of DestinationTransfer.
type destinationTransfer struct {
	AllocatedRate     float64  `json:"allocated_rate"`
	DataVolume        float64  `json:"data_volume"`
	AvgLatencyMS      float64  `json:"avg_latency_ms"`
	CompletionTimeSec *float64 `json:"completion_time_sec"`
}

// finiteOrNil drops non-finite values at the JSON boundary.
func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Report maps policy name to result block. Raw JSON values keep the two
// block shapes (allocation policies and time policies) in one document.
type Report map[string]json.RawMessage

// buildPolicyResult assembles one allocation policy's report block,
// running the analyzer over the allocation.
func buildPolicyResult(s *Scenario, name string, res AllocationResult) (PolicyResult, error) {
	out := PolicyResult{
		ScenarioName:      name,
		Status:            res.Status,
		TotalCost:         res.Objective,
		TrafficAllocation: make(map[string]float64, len(res.Allocation)),
	}
	for key, volume := range res.Allocation {
		out.TrafficAllocation[EncodeFlowKey(key)] = volume
	}

	analysis, err := AnalyzePerformance(s, res.Allocation)
	if err != nil {
		return PolicyResult{}, err
	}
	out.TotalSentTraffic = analysis.TotalSentTraffic
	out.TotalUnsentTraffic = analysis.TotalUnsentTraffic
	out.CongestionAnalysis = analysis.CongestionAnalysis
	out.Performance = &analysis
	return out, nil
}

func buildTimeResult(goal TransferGoal, res TimeOptimizationResult) TimeOptimalResult {
	goalName := "maximize"
	if goal == WorstCaseTransfer {
		goalName = "minimize"
	}
	out := TimeOptimalResult{
		Status:              res.Status,
		OptimizationGoal:    goalName,
		EffectiveThroughput: res.EffectiveThroughput,
		TransferDurationSec: finiteOrNil(res.DurationSec),
		DestinationDetails:  make(map[string]destinationTransfer, len(res.Details)),
		RateAllocationGbps:  make(map[string]float64, len(res.Allocation)),
	}
	for dest, d := range res.Details {
		out.DestinationDetails[dest] = destinationTransfer{
			AllocatedRate:     d.AllocatedRate,
			DataVolume:        d.DataVolume,
			AvgLatencyMS:      d.AvgLatencyMS,
			CompletionTimeSec: finiteOrNil(d.CompletionTimeSec),
		}
	}
	for key, volume := range res.Allocation {
		out.RateAllocationGbps[EncodeFlowKey(key)] = volume
	}
	return out
}

// ReportParameters records the modeling parameters a sweep run used, so a
// result file is interpretable without its filename.
type ReportParameters struct {
	Configuration string  `json:"configuration"`
	Axis          string  `json:"axis"`
	Value         float64 `json:"value"`
	Run           int     `json:"run"`
	Seed          int64   `json:"seed"`
}

// SetParameters attaches the sweep parameters block to the report.
func (r Report) SetParameters(p ReportParameters) error {
	return r.set("sweep_parameters", p)
}

func (r Report) set(policy string, block any) error {
	raw, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode %s report block: %w", policy, err)
	}
	r[policy] = raw
	return nil
}

// Write encodes the report as indented JSON.
func (r Report) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(r)
}

// WriteFile writes the report to path, creating or truncating it.
func (r Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := r.Write(f); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return f.Close()
}
