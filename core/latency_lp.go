package core

import (
	"fmt"

	"github.com/ixplabs/egresssim/internal/lp"
	"github.com/ixplabs/egresssim/model"
)

// LatencyOptimizer minimizes total latency-weighted traffic: the LP analog of
// the thundering-herd heuristic and its optimal upper bound. It models a
// network that always fills the lowest-latency capacity first and spills to
// higher-latency links only once the better ones are saturated.
//
// Unlike the cost model, demand satisfaction is a single aggregate equality
// over total demand, not a per-destination one.
type LatencyOptimizer struct {
	Solver lp.Solver
}

// Solve builds and runs the latency model against the scenario.
func (o LatencyOptimizer) Solve(s *Scenario) (AllocationResult, error) {
	triples := feasibleTriples(s)
	if len(triples) == 0 {
		return AllocationResult{
			Status:     string(lp.StatusNoVariables),
			Allocation: model.Allocation{},
		}, nil
	}

	prob := lp.NewProblem(lp.Minimize)
	vars := make([]lp.Var, len(triples))
	aggregate := make([]lp.Term, len(triples))
	for i, key := range triples {
		v := prob.AddVariable(fmt.Sprintf("x_%s_%s_%s", key.Host, key.Path, key.Destination))
		egress, _ := s.EgressOf(key.Path)
		prob.SetObjectiveCoeff(v, egress.Latency)
		vars[i] = v
		aggregate[i] = lp.Term{Var: v, Coeff: 1}
	}

	prob.AddConstraint(aggregate, lp.Equal, s.TotalDemand())

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
		return AllocationResult{}, fmt.Errorf("latency LP solve: %w", err)
	}

	result := AllocationResult{
		Status:     string(sol.Status),
		Allocation: model.Allocation{},
	}
	if sol.Status != lp.StatusOptimal {
		return result, nil
	}
	result.Objective = sol.Objective
	for i, key := range triples {
		if v := sol.Value(vars[i]); v > flowEpsilon {
			result.Allocation[key] = v
		}
	}
	return result, nil
}
