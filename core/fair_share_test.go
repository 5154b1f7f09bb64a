package core

import (
	"math"
	"testing"
)

// unevenFile builds a single-host scenario where the lowest-latency egress is
// much smaller than the other one, so an even split leaves part of its share
// unplaced. Fair share forfeits that remainder; water-filling recovers it.
func unevenFile() *ScenarioFile {
	return &ScenarioFile{
		EndHosts:         []string{"h1"},
		EgressInterfaces: []string{"e_small", "e_big"},
		Destinations:     []string{"X"},
		PathsPerEndhost:  map[string][]string{"h1": {"p_h1_e_small", "p_h1_e_big"}},
		PathToEgressMapping: map[string]string{
			"p_h1_e_small": "e_small",
			"p_h1_e_big":   "e_big",
		},
		EgressToDestinationReachability: map[string][]string{
			"e_small": {"X"},
			"e_big":   {"X"},
		},
		EndhostUplinks:        map[string]float64{"h1": 100},
		EgressCapacities:      map[string]float64{"e_small": 10, "e_big": 100},
		EgressCosts:           map[string]float64{"e_small": 1, "e_big": 2},
		EgressLatencies:       map[string]float64{"e_small": 10, "e_big": 20},
		TrafficPerDestination: map[string]float64{"X": 40},
	}
}

func flowOn(t *testing.T, s *Scenario, res AllocationResult, egressID string) float64 {
	t.Helper()
	var total float64
	for key, v := range res.Allocation {
		egress, ok := s.EgressOf(key.Path)
		if !ok {
			t.Fatalf("allocation references unknown path %q", key.Path)
		}
		if egress.ID == egressID {
			total += v
		}
	}
	return total
}

func TestFairShare_EvenSplitWithoutRedistribution(t *testing.T) {
	s := buildTestScenario(t, unevenFile())

	res, err := FairShareAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if res.Status != StatusSimulated {
		t.Fatalf("status = %q, want %q", res.Status, StatusSimulated)
	}

	// Each path is offered 20. e_small caps out at 10 and its shortfall is
	// simply lost; e_big takes its 20 and nothing more.
	if got := flowOn(t, s, res, "e_small"); math.Abs(got-10) > 1e-6 {
		t.Errorf("flow on e_small = %v, want 10", got)
	}
	if got := flowOn(t, s, res, "e_big"); math.Abs(got-20) > 1e-6 {
		t.Errorf("flow on e_big = %v, want 20", got)
	}

	analysis, err := AnalyzePerformance(s, res.Allocation)
	if err != nil {
		t.Fatalf("AnalyzePerformance: %v", err)
	}
	if math.Abs(analysis.TotalUnsentTraffic-10) > 1e-6 {
		t.Errorf("unsent = %v, want 10", analysis.TotalUnsentTraffic)
	}
}

func TestFairShare_MaxPathsTruncatesToLowestLatency(t *testing.T) {
	s := buildTestScenario(t, unevenFile())

	res, err := FairShareAllocator{MaxPaths: 1}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}

	// The single allowed path is the 10 ms one; its 10 Gbps cap binds.
	if got := flowOn(t, s, res, "e_small"); math.Abs(got-10) > 1e-6 {
		t.Errorf("flow on e_small = %v, want 10", got)
	}
	if got := flowOn(t, s, res, "e_big"); got > flowEpsilon {
		t.Errorf("flow on e_big = %v, want 0", got)
	}
}

func TestFairShare_RespectsUplinkAcrossDestinations(t *testing.T) {
	// One host with a 30 Gbps uplink facing two 40 Gbps demands can never
	// place more than its uplink in total.
	file := unevenFile()
	file.EndhostUplinks = map[string]float64{"h1": 30}
	file.Destinations = []string{"X", "Y"}
	file.EgressToDestinationReachability = map[string][]string{
		"e_small": {"X", "Y"},
		"e_big":   {"X", "Y"},
	}
	file.TrafficPerDestination = map[string]float64{"X": 40, "Y": 40}
	s := buildTestScenario(t, file)

	res, err := FairShareAllocator{}.Simulate(s)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if total := res.Allocation.TotalSent(); total > 30+flowEpsilon {
		t.Errorf("total sent = %v exceeds 30 Gbps uplink", total)
	}
}
