package core

import (
	"fmt"
	"math"

	"github.com/ixplabs/egresssim/internal/lp"
	"github.com/ixplabs/egresssim/model"
)

// TransferGoal selects the bulk-transfer bound the time optimizer computes.
type TransferGoal int

const (
	// BestCaseTransfer maximizes effective throughput (minimum duration).
	BestCaseTransfer TransferGoal = iota
	// WorstCaseTransfer minimizes effective throughput (maximum duration).
	WorstCaseTransfer
)

// DestinationTransfer summarizes the solved transfer toward one destination.
// CompletionTimeSec is +Inf when the transfer never completes; the report
// layer converts that to null at the JSON boundary.
type DestinationTransfer struct {
	AllocatedRate     float64
	DataVolume        float64
	AvgLatencyMS      float64
	CompletionTimeSec float64
}

// TimeOptimizationResult is the outcome of the makespan estimate for a
// one-shot bulk transfer.
type TimeOptimizationResult struct {
	Status string
	// EffectiveThroughput is the bottleneck variable Z, in 1/time units.
	EffectiveThroughput float64
	// DurationSec is 1/Z, +Inf when Z is numerically zero.
	DurationSec float64
	Allocation  model.Allocation
	Details     map[string]DestinationTransfer
}

// TimeOptimizer converts the rate-allocation LP into a time-to-completion
// estimate: an auxiliary bottleneck variable Z is constrained so the rate
// delivered to every destination is at least Z times its data volume, and
// the implied transfer duration is 1/Z.
type TimeOptimizer struct {
	Solver lp.Solver
}

// Solve runs the transfer-time model. It requires the scenario to carry
// data_volumes_per_destination; destinations without a volume impose no
// bottleneck row.
func (o TimeOptimizer) Solve(s *Scenario, goal TransferGoal) (TimeOptimizationResult, error) {
	triples := feasibleTriples(s)
	if len(triples) == 0 {
		return TimeOptimizationResult{
			Status:     string(lp.StatusNoVariables),
			Allocation: model.Allocation{},
		}, nil
	}

	sense := lp.Maximize
	if goal == WorstCaseTransfer {
		sense = lp.Minimize
	}
	prob := lp.NewProblem(sense)

	vars := make([]lp.Var, len(triples))
	for i, key := range triples {
		vars[i] = prob.AddVariable(fmt.Sprintf("x_%s_%s_%s", key.Host, key.Path, key.Destination))
	}
	z := prob.AddVariable("z_effective_throughput")
	prob.SetObjectiveCoeff(z, 1)

	byDest := groupTripleIndexes(triples, func(k model.FlowKey) string { return k.Destination })
	for _, d := range s.Destinations() {
		if d.DataVolume <= 0 {
			continue
		}
		idxs := byDest[d.ID]
		terms := make([]lp.Term, 0, len(idxs)+1)
		for _, i := range idxs {
			terms = append(terms, lp.Term{Var: vars[i], Coeff: 1})
		}
		terms = append(terms, lp.Term{Var: z, Coeff: -d.DataVolume})
		prob.AddConstraint(terms, lp.GreaterEq, 0)
	}

	byHost := groupTripleIndexes(triples, func(k model.FlowKey) string { return k.Host })
	for _, h := range s.Hosts() {
		idxs := byHost[h.ID]
		if len(idxs) == 0 {
			continue
		}
		terms := make([]lp.Term, 0, len(idxs))
		for _, i := range idxs {
			terms = append(terms, lp.Term{Var: vars[i], Coeff: 1})
		}
		prob.AddConstraint(terms, lp.LessEq, h.UplinkCapacity)
	}

	byEgress := make(map[string][]int)
	for i, key := range triples {
		egress, _ := s.EgressOf(key.Path)
		byEgress[egress.ID] = append(byEgress[egress.ID], i)
	}
	for _, e := range s.Egresses() {
		idxs := byEgress[e.ID]
		if len(idxs) == 0 {
			continue
		}
		terms := make([]lp.Term, 0, len(idxs))
		for _, i := range idxs {
			terms = append(terms, lp.Term{Var: vars[i], Coeff: 1})
		}
		prob.AddConstraint(terms, lp.LessEq, e.Capacity)
	}

	sol, err := o.Solver.Solve(prob)
	if err != nil {
		return TimeOptimizationResult{}, fmt.Errorf("time LP solve: %w", err)
	}

	result := TimeOptimizationResult{
		Status:     string(sol.Status),
		Allocation: model.Allocation{},
	}
	if sol.Status != lp.StatusOptimal {
		return result, nil
	}

	result.EffectiveThroughput = sol.Value(z)
	if result.EffectiveThroughput > 1e-9 {
		result.DurationSec = 1 / result.EffectiveThroughput
	} else {
		result.DurationSec = math.Inf(1)
	}

	for i, key := range triples {
		if v := sol.Value(vars[i]); v > flowEpsilon {
			result.Allocation[key] = v
		}
	}

	result.Details = make(map[string]DestinationTransfer, len(s.Destinations()))
	for _, d := range s.Destinations() {
		rate := result.Allocation.SentTo(d.ID)
		var avgLatency float64
		if rate > 1e-9 {
			var weighted float64
			for key, v := range result.Allocation {
				if key.Destination != d.ID {
					continue
				}
				egress, _ := s.EgressOf(key.Path)
				weighted += v * egress.Latency
			}
			avgLatency = weighted / rate
		}
		result.Details[d.ID] = DestinationTransfer{
			AllocatedRate:     rate,
			DataVolume:        d.DataVolume,
			AvgLatencyMS:      avgLatency,
			CompletionTimeSec: avgLatency/1000.0 + result.DurationSec,
		}
	}
	return result, nil
}
