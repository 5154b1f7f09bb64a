package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	// integerTol decides when a relaxed binary counts as integral.
	integerTol = 1e-6
	// boundTol pads incumbent comparisons during branch and bound.
	boundTol = 1e-9
)

// SimplexSolver solves Problems with gonum's simplex method. Binary
// variables are handled by depth-first branch and bound over the LP
// relaxation; everything else is a single simplex call.
type SimplexSolver struct {
	// Tol is the simplex tolerance; zero selects gonum's default.
	Tol float64
}

// Solve runs the problem to a definite status. Infeasible and unbounded
// outcomes are reported in the Solution, not as errors; an error means the
// backend itself failed (e.g. a singular basis).
func (s SimplexSolver) Solve(p *Problem) (Solution, error) {
	if p.NumVariables() == 0 {
		return Solution{Status: StatusNoVariables}, nil
	}

	// Work internally in minimize form; flip the objective back at the end.
	negate := p.sense == Maximize

	if !p.hasBinaries() {
		sol, err := s.solveRelaxation(p, negate, nil)
		return sol, err
	}
	return s.branchAndBound(p, negate)
}

type fixing struct {
	v   Var
	val float64
}

func (s SimplexSolver) branchAndBound(p *Problem, negate bool) (Solution, error) {
	incumbent := Solution{Status: StatusInfeasible}
	best := math.Inf(1)

	// DFS over binary fixings. The stack never exceeds 2^k nodes for k
	// binaries; scenarios have one binary per egress, so k stays small.
	stack := [][]fixing{nil}
	sawUnbounded := false

	for len(stack) > 0 {
		fixings := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		relax, err := s.solveRelaxation(p, negate, fixings)
		if err != nil {
			return Solution{}, err
		}
		switch relax.Status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			// An unbounded relaxation at the root means the MIP itself has
			// no finite optimum; deeper nodes only tighten the problem.
			if len(fixings) == 0 {
				sawUnbounded = true
			}
			continue
		}

		obj := relax.Objective
		if negate {
			obj = -obj
		}
		if obj >= best-boundTol {
			continue // bound: cannot beat the incumbent
		}

		branch, ok := mostFractionalBinary(p, relax.Values)
		if !ok {
			incumbent = relax
			best = obj
			continue
		}

		// Explore the rounded-up side first so greedy-looking solutions are
		// found early and prune more of the tree.
		down := append(append([]fixing(nil), fixings...), fixing{v: branch, val: 0})
		up := append(append([]fixing(nil), fixings...), fixing{v: branch, val: 1})
		stack = append(stack, down, up)
	}

	if incumbent.Status != StatusOptimal {
		if sawUnbounded {
			return Solution{Status: StatusUnbounded}, nil
		}
		return Solution{Status: StatusInfeasible}, nil
	}
	return incumbent, nil
}

func mostFractionalBinary(p *Problem, values []float64) (Var, bool) {
	bestVar := Var(-1)
	bestDist := integerTol
	for i, isBin := range p.binary {
		if !isBin {
			continue
		}
		frac := values[i] - math.Floor(values[i])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			bestDist = dist
			bestVar = Var(i)
		}
	}
	return bestVar, bestVar >= 0
}

// solveRelaxation converts the problem (plus any branch fixings) to standard
// form and runs gonum's simplex.
//
// Standard form is minimize cᵀx subject to Ax = b, x ≥ 0: each ≤ row gains a
// slack column, each ≥ row a surplus column, and binaries get an upper-bound
// row y ≤ 1 in the relaxation.
func (s SimplexSolver) solveRelaxation(p *Problem, negate bool, fixings []fixing) (Solution, error) {
	type row struct {
		terms []Term
		op    Op
		rhs   float64
	}

	rows := make([]row, 0, len(p.cons)+len(p.binary)+len(fixings))
	for _, c := range p.cons {
		rows = append(rows, row{terms: c.terms, op: c.op, rhs: c.rhs})
	}
	for i, isBin := range p.binary {
		if isBin {
			rows = append(rows, row{terms: []Term{{Var: Var(i), Coeff: 1}}, op: LessEq, rhs: 1})
		}
	}
	for _, f := range fixings {
		rows = append(rows, row{terms: []Term{{Var: f.v, Coeff: 1}}, op: Equal, rhs: f.val})
	}

	nVars := p.NumVariables()
	nSlack := 0
	for _, r := range rows {
		if r.op != Equal {
			nSlack++
		}
	}
	nCols := nVars + nSlack

	c := make([]float64, nCols)
	for i, coeff := range p.obj {
		if negate {
			coeff = -coeff
		}
		c[i] = coeff
	}

	a := mat.NewDense(len(rows), nCols, nil)
	b := make([]float64, len(rows))
	slack := nVars
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			// Simplex wants b ≥ 0; flip the whole row.
			sign = -1.0
			if r.op == LessEq {
				r.op = GreaterEq
			} else if r.op == GreaterEq {
				r.op = LessEq
			}
		}
		for _, t := range r.terms {
			a.Set(i, int(t.Var), a.At(i, int(t.Var))+sign*t.Coeff)
		}
		b[i] = sign * r.rhs
		switch r.op {
		case LessEq:
			a.Set(i, slack, 1)
			slack++
		case GreaterEq:
			a.Set(i, slack, -1)
			slack++
		}
	}

	optF, optX, err := gonumlp.Simplex(c, a, b, s.Tol, nil)
	switch {
	case err == nil:
	case errors.Is(err, gonumlp.ErrInfeasible):
		return Solution{Status: StatusInfeasible}, nil
	case errors.Is(err, gonumlp.ErrUnbounded):
		return Solution{Status: StatusUnbounded}, nil
	default:
		return Solution{}, fmt.Errorf("simplex: %w", err)
	}

	if negate {
		optF = -optF
	}
	values := make([]float64, nVars)
	copy(values, optX[:nVars])
	return Solution{Status: StatusOptimal, Objective: optF, Values: values}, nil
}
