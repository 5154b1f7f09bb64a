package core

import (
	"fmt"

	"github.com/ixplabs/egresssim/internal/lp"
	"github.com/ixplabs/egresssim/model"
)

// CostObjective selects between the operator-optimal (minimum cost) and
// operator-adversarial (maximum cost) solve. Running both on the same
// scenario brackets the operator's exposure for a fixed demand matrix.
type CostObjective int

const (
	MinimizeCost CostObjective = iota
	MaximizeCost
)

// bigMFallback stands in for the capacity of an egress whose capacity is
// unset when linking traffic to its link-used binary.
const bigMFallback = 1e9

// CostOptimizer formulates the operator-cost LP: continuous flow variables
// x[h,p,d] priced at the egress variable cost, plus a binary link-used
// variable per egress when fixed base costs are modeled.
type CostOptimizer struct {
	Solver lp.Solver
}

// Solve builds and runs the cost model against the scenario.
//
// Constraints: exact per-destination demand satisfaction, per-host uplink
// capacity, per-egress capacity, and (with base costs) a big-M row tying
// traffic on an egress to its binary. A scenario with no feasible triple
// yields status No_Variables and an empty allocation without invoking the
// solver; infeasible or unbounded solves are surfaced verbatim.
func (o CostOptimizer) Solve(s *Scenario, objective CostObjective) (AllocationResult, error) {
	triples := feasibleTriples(s)
	if len(triples) == 0 {
		return AllocationResult{
			Status:     string(lp.StatusNoVariables),
			Allocation: model.Allocation{},
		}, nil
	}

	// Any destination with demand but no variable reaching it makes the
	// equality row unsatisfiable; report that without a solver round trip.
	byDest := groupTripleIndexes(triples, func(k model.FlowKey) string { return k.Destination })
	for _, d := range s.Destinations() {
		if d.Demand > 0 && len(byDest[d.ID]) == 0 {
			return AllocationResult{
				Status:     string(lp.StatusInfeasible),
				Allocation: model.Allocation{},
			}, nil
		}
	}

	sense := lp.Minimize
	if objective == MaximizeCost {
		sense = lp.Maximize
	}
	prob := lp.NewProblem(sense)

	vars := make([]lp.Var, len(triples))
	for i, key := range triples {
		v := prob.AddVariable(fmt.Sprintf("x_%s_%s_%s", key.Host, key.Path, key.Destination))
		egress, _ := s.EgressOf(key.Path)
		prob.SetObjectiveCoeff(v, egress.VariableCost)
		vars[i] = v
	}

	withBaseCosts := false
	for _, e := range s.Egresses() {
		if e.BaseCost != 0 {
			withBaseCosts = true
			break
		}
	}

	linkUsed := make(map[string]lp.Var)
	if withBaseCosts {
		for _, e := range s.Egresses() {
			y := prob.AddVariable(fmt.Sprintf("y_%s", e.ID))
			prob.SetBinary(y)
			prob.SetObjectiveCoeff(y, e.BaseCost)
			linkUsed[e.ID] = y
		}
	}

	for _, d := range s.Destinations() {
		idxs := byDest[d.ID]
		if len(idxs) == 0 {
			continue // zero demand, nothing reaches it
		}
		terms := make([]lp.Term, 0, len(idxs))
		for _, i := range idxs {
			terms = append(terms, lp.Term{Var: vars[i], Coeff: 1})
		}
		prob.AddConstraint(terms, lp.Equal, d.Demand)
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

		if withBaseCosts {
			m := e.Capacity
			if m <= 0 {
				m = bigMFallback
			}
			linked := make([]lp.Term, 0, len(idxs)+1)
			linked = append(linked, terms...)
			linked = append(linked, lp.Term{Var: linkUsed[e.ID], Coeff: -m})
			prob.AddConstraint(linked, lp.LessEq, 0)
		}
	}

	sol, err := o.Solver.Solve(prob)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("cost LP solve: %w", err)
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

func groupTripleIndexes(triples []model.FlowKey, by func(model.FlowKey) string) map[string][]int {
	out := make(map[string][]int)
	for i, key := range triples {
		out[by(key)] = append(out[by(key)], i)
	}
	return out
}
