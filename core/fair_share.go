package core

import (
	"github.com/ixplabs/egresssim/model"
)

// FairShareAllocator models cooperative end hosts that split each flow evenly
// across the MaxPaths lowest-latency candidate paths (all candidates when
// MaxPaths is 0 or exceeds the candidate count). Each path receives
// min(even share, remaining uplink, remaining egress capacity); a path's
// shortfall is NOT redistributed to the others, which is what separates fair
// share from water-filling.
type FairShareAllocator struct {
	MaxPaths int
	Filter   LinkFilter
}

// Simulate runs the even split over the scenario, in host then destination
// declaration order against a shared ledger.
func (a FairShareAllocator) Simulate(s *Scenario) (AllocationResult, error) {
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

			share := hostShare(s, h, d.Demand) / float64(len(cands))
			for _, c := range cands {
				sent := min3(share, ledger.RemainingUplink(h.ID), ledger.RemainingEgress(c.egress.ID))
				if sent <= 0 {
					continue
				}
				alloc.Add(model.FlowKey{Host: h.ID, Path: c.path.ID, Destination: d.ID}, sent)
				ledger.Consume(h.ID, c.egress.ID, sent)
			}
		}
	}

	return AllocationResult{
		Status:     StatusSimulated,
		Objective:  variableCostOf(s, alloc),
		Allocation: alloc,
	}, nil
}
