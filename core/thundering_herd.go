package core

import (
	"github.com/ixplabs/egresssim/model"
)

// ThunderingHerdAllocator models selfish, latency-greedy end hosts. Every
// host sends each flow on its lowest-latency candidate path until that path's
// capacity runs out, then spills the remainder to the next-best candidate.
// Because all hosts prefer the same best links, capacity is consumed in a
// correlated burst and later hosts see it already gone.
type ThunderingHerdAllocator struct {
	Filter LinkFilter
}

// Simulate runs the herd over the scenario. Hosts are processed in
// declaration order, then destinations in declaration order; the ledger is
// shared across all of them, so this ordering is part of the result.
func (a ThunderingHerdAllocator) Simulate(s *Scenario) (AllocationResult, error) {
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

			remaining := hostShare(s, h, d.Demand)
			for _, c := range cands {
				if remaining <= flowEpsilon {
					break
				}
				canSend := min3(remaining, ledger.RemainingUplink(h.ID), ledger.RemainingEgress(c.egress.ID))
				if canSend <= 0 {
					continue
				}
				alloc.Add(model.FlowKey{Host: h.ID, Path: c.path.ID, Destination: d.ID}, canSend)
				ledger.Consume(h.ID, c.egress.ID, canSend)
				remaining -= canSend
			}
		}
	}

	return AllocationResult{
		Status:     StatusSimulated,
		Objective:  variableCostOf(s, alloc),
		Allocation: alloc,
	}, nil
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
