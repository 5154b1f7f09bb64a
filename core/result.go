package core

import (
	"github.com/ixplabs/egresssim/model"
)

// AllocationResult is the raw outcome of one allocator run, before the
// performance analyzer derives metrics from it.
type AllocationResult struct {
	// Status is the solver status for LP policies ("Optimal", "Infeasible",
	// "Unbounded", "No_Variables") or "Simulated" for heuristics.
	Status string
	// Objective is the solved objective value: total operator cost for the
	// cost LPs, latency-weighted traffic for the latency LP, accumulated
	// variable cost for heuristics.
	Objective float64
	// Allocation maps (host, path, destination) flows to volumes. Never nil.
	Allocation model.Allocation
}

// StatusSimulated marks results produced by a heuristic rather than a solver.
const StatusSimulated = "Simulated"

// cutoff below which a solved flow value is treated as numeric noise and
// dropped from the allocation, mirroring the 1e-6 filter of the original
// evaluation pipeline.
const flowEpsilon = 1e-6

// feasibleTriples enumerates every (host, path, destination) combination the
// scenario permits, in deterministic declaration order: hosts, then each
// host's paths, then the path egress's reachable destinations.
func feasibleTriples(s *Scenario) []model.FlowKey {
	var keys []model.FlowKey
	for _, h := range s.Hosts() {
		for _, p := range s.Paths(h.ID) {
			for _, destID := range s.ReachableDestinations(p.EgressID) {
				keys = append(keys, model.FlowKey{
					Host:        h.ID,
					Path:        p.ID,
					Destination: destID,
				})
			}
		}
	}
	return keys
}

// variableCostOf prices an allocation by per-Gbps egress costs only; fixed
// base costs are an LP-objective concern.
func variableCostOf(s *Scenario, alloc model.Allocation) float64 {
	var total float64
	for key, volume := range alloc {
		if egress, ok := s.EgressOf(key.Path); ok {
			total += volume * egress.VariableCost
		}
	}
	return total
}
