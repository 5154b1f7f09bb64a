package core

import (
	"math"
	"testing"

	"github.com/ixplabs/egresssim/internal/lp"
)

func TestLatencyOptimizer_FillsLowLatencyCapacityFirst(t *testing.T) {
	s := buildTestScenario(t, twoHostFile())

	res, err := LatencyOptimizer{Solver: lp.SimplexSolver{}}.Solve(s)
	if err != nil {
		t.Fatalf("latency solve returned error: %v", err)
	}
	if res.Status != string(lp.StatusOptimal) {
		t.Fatalf("status = %q, want Optimal", res.Status)
	}

	// The 15 ms peering link saturates at 30 Gbps and the remaining 10 Gbps
	// spill onto the 60 ms transit link: 30*15 + 10*60 = 1050.
	if math.Abs(res.Objective-1050) > 1e-6 {
		t.Errorf("objective = %v, want 1050", res.Objective)
	}

	var onPeer, onTransit float64
	for key, v := range res.Allocation {
		egress, _ := s.EgressOf(key.Path)
		switch egress.ID {
		case "e_peer":
			onPeer += v
		case "e_transit":
			onTransit += v
		}
	}
	if math.Abs(onPeer-30) > 1e-6 {
		t.Errorf("traffic on e_peer = %v, want 30", onPeer)
	}
	if math.Abs(onTransit-10) > 1e-6 {
		t.Errorf("traffic on e_transit = %v, want 10", onTransit)
	}
}

func TestLatencyOptimizer_NoVariables(t *testing.T) {
	file := twoHostFile()
	file.EgressToDestinationReachability = map[string][]string{}
	s := buildTestScenario(t, file)

	res, err := LatencyOptimizer{Solver: lp.SimplexSolver{}}.Solve(s)
	if err != nil {
		t.Fatalf("latency solve returned error: %v", err)
	}
	if res.Status != string(lp.StatusNoVariables) {
		t.Fatalf("status = %q, want No_Variables", res.Status)
	}
}
