package core

import (
	"github.com/ixplabs/egresssim/model"
)

// WaterFillingAllocator is the iterative refinement of fair share: demand for
// a flow is spread evenly across the up-to-MaxPaths lowest-latency candidate
// paths, and whenever a path saturates, its unplaced share is redistributed
// among the surviving paths of the same pool. The loop reaches a fixed point
// when the demand is placed or every pooled path is exhausted; any residual
// is unsent.
type WaterFillingAllocator struct {
	MaxPaths int
	Filter   LinkFilter
}

// Simulate runs water-filling over the scenario, in host then destination
// declaration order against a shared ledger.
func (a WaterFillingAllocator) Simulate(s *Scenario) (AllocationResult, error) {
	if s.TotalUplink() == 0 {
		return AllocationResult{}, ErrZeroUplink
	}

	ledger := NewResourceLedger(s)
	alloc := model.Allocation{}

	for _, h := range s.Hosts() {
		for _, d := range s.Destinations() {
			cands := candidatePaths(s, h.ID, d.ID, a.Filter)
			if len(cands) == 0 {
				continue
			}
			sortByLatency(cands)
			if a.MaxPaths > 0 && len(cands) > a.MaxPaths {
				cands = cands[:a.MaxPaths]
			}

			a.fill(s, ledger, alloc, h, d, cands)
		}
	}

	return AllocationResult{
		Status:     StatusSimulated,
		Objective:  variableCostOf(s, alloc),
		Allocation: alloc,
	}, nil
}

// fill places one flow's demand onto a fixed candidate pool. Each round gives
// every active path an even share of whatever is still unplaced; paths that
// cannot absorb their full share drop out of the pool and the next round
// splits the remainder among the survivors.
func (a WaterFillingAllocator) fill(s *Scenario, ledger *ResourceLedger, alloc model.Allocation, h model.EndHost, d model.Destination, pool []candidate) {
	remaining := hostShare(s, h, d.Demand)
	active := make([]candidate, len(pool))
	copy(active, pool)

	for remaining > flowEpsilon && len(active) > 0 {
		share := remaining / float64(len(active))
		var next []candidate
		progressed := false

		for _, c := range active {
			sent := min3(share, ledger.RemainingUplink(h.ID), ledger.RemainingEgress(c.egress.ID))
			if sent > 0 {
				alloc.Add(model.FlowKey{Host: h.ID, Path: c.path.ID, Destination: d.ID}, sent)
				ledger.Consume(h.ID, c.egress.ID, sent)
				remaining -= sent
				progressed = true
			}
			// A path that took its full share stays in the pool;
			// one that saturated drops out.
			if sent >= share-flowEpsilon && ledger.RemainingEgress(c.egress.ID) > flowEpsilon {
				next = append(next, c)
			}
		}

		if !progressed {
			break
		}
		active = next
	}
}
