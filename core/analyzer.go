package core

import (
	"fmt"
	"sort"

	"github.com/ixplabs/egresssim/model"
)

// Utilization status labels. They are reporting labels only and drive no
// allocation decision.
const (
	UtilizationHeavilyCongested = "heavily congested"
	UtilizationHighlyUtilized   = "highly utilized"
)

// EgressUtilization reports how much of one egress link's capacity an
// allocation consumed.
type EgressUtilization struct {
	Traffic            float64 `json:"traffic"`
	Capacity           float64 `json:"capacity"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Status             string  `json:"status,omitempty"`
}

// DestinationCongestion compares theoretical and observed spillover for one
// destination. SpilloverTrafficRequired is the volume that cannot fit on the
// single best-latency link regardless of allocator; TrafficOnSpilloverPaths
// is what the allocator actually placed off that link. The two diverge
// between exact optimizers and heuristics and both are reported.
type DestinationCongestion struct {
	SpilloverTrafficRequired float64  `json:"spillover_traffic_required"`
	TrafficOnSpilloverPaths  float64  `json:"traffic_on_spillover_paths"`
	LowestLatencyPaths       []string `json:"lowest_latency_paths"`
}

// PerformanceAnalysis is the post-hoc view of one allocation. It is derived
// purely from the allocation and the scenario, so running it twice on the
// same inputs yields identical results.
// Congestion and totals serialize at the policy block's top level, not
// inside performance_analysis, matching the report file layout.
type PerformanceAnalysis struct {
	EgressUtilization  map[string]EgressUtilization     `json:"egress_utilization"`
	WeightedLatencyMS  *float64                         `json:"weighted_latency_ms,omitempty"`
	CongestionAnalysis map[string]DestinationCongestion `json:"-"`
	TotalSentTraffic   float64                          `json:"-"`
	TotalUnsentTraffic float64                          `json:"-"`
}

// AnalyzePerformance computes utilization, weighted latency, spillover, and
// unmet-demand metrics for an allocation produced by any allocator. A
// negative unmet figure is an invariant violation in the allocator and is
// returned as ErrNegativeUnmet, never clamped.
func AnalyzePerformance(s *Scenario, alloc model.Allocation) (PerformanceAnalysis, error) {
	trafficOnEgress := make(map[string]float64, len(s.Egresses()))
	var weightedLatency, totalTraffic float64
	for key, volume := range alloc {
		egress, ok := s.EgressOf(key.Path)
		if !ok {
			continue
		}
		trafficOnEgress[egress.ID] += volume
		weightedLatency += volume * egress.Latency
		totalTraffic += volume
	}

	analysis := PerformanceAnalysis{
		EgressUtilization:  make(map[string]EgressUtilization, len(s.Egresses())),
		CongestionAnalysis: make(map[string]DestinationCongestion, len(s.Destinations())),
		TotalSentTraffic:   totalTraffic,
	}

	for _, e := range s.Egresses() {
		traffic := trafficOnEgress[e.ID]
		var util float64
		if e.Capacity > 0 {
			util = 100 * traffic / e.Capacity
		}
		u := EgressUtilization{
			Traffic:            traffic,
			Capacity:           e.Capacity,
			UtilizationPercent: util,
		}
		switch {
		case util > 90:
			u.Status = UtilizationHeavilyCongested
		case util > 70:
			u.Status = UtilizationHighlyUtilized
		}
		analysis.EgressUtilization[e.ID] = u
	}

	if totalTraffic > 0 {
		avg := weightedLatency / totalTraffic
		analysis.WeightedLatencyMS = &avg
	}

	for _, d := range s.Destinations() {
		ranked := rankEgressesByLatency(s, d.ID)
		if len(ranked) == 0 {
			continue
		}
		best := ranked[0]
		bestCapacity, _ := s.Egress(best)

		required := d.Demand - bestCapacity.Capacity
		if required < 0 {
			required = 0
		}

		var spilled float64
		for key, volume := range alloc {
			if key.Destination != d.ID {
				continue
			}
			egress, ok := s.EgressOf(key.Path)
			if !ok || egress.ID == best {
				continue
			}
			spilled += volume
		}

		analysis.CongestionAnalysis[d.ID] = DestinationCongestion{
			SpilloverTrafficRequired: required,
			TrafficOnSpilloverPaths:  spilled,
			LowestLatencyPaths:       ranked,
		}
	}

	unsent := s.TotalDemand() - totalTraffic
	if unsent < -flowEpsilon {
		return PerformanceAnalysis{}, fmt.Errorf("%w: sent %.4f exceeds demand %.4f", ErrNegativeUnmet, totalTraffic, s.TotalDemand())
	}
	if unsent < 0 {
		unsent = 0
	}
	analysis.TotalUnsentTraffic = unsent
	return analysis, nil
}

// rankEgressesByLatency lists the egress links that reach a destination,
// lowest latency first, ties in declaration order.
func rankEgressesByLatency(s *Scenario, destinationID string) []string {
	var ids []string
	for _, e := range s.Egresses() {
		if s.Reaches(e.ID, destinationID) {
			ids = append(ids, e.ID)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := s.Egress(ids[i])
		b, _ := s.Egress(ids[j])
		return a.Latency < b.Latency
	})
	return ids
}
