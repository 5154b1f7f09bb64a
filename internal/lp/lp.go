// Package lp provides a small linear-programming abstraction: a declarative
// Problem (variables, objective, constraints) and a pluggable Solver, so the
// allocation models stay independent of the concrete solver backend.
package lp

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Op is a constraint relation.
type Op int

const (
	LessEq Op = iota
	Equal
	GreaterEq
)

// Var identifies a decision variable within one Problem.
type Var int

// Term is a coefficient applied to a variable in a linear expression.
type Term struct {
	Var   Var
	Coeff float64
}

type constraint struct {
	terms []Term
	op    Op
	rhs   float64
}

// Problem is a linear program under construction. All variables are
// continuous and non-negative unless marked binary.
type Problem struct {
	sense  Sense
	names  []string
	obj    []float64
	binary []bool
	cons   []constraint
}

// NewProblem returns an empty problem with the given optimization sense.
func NewProblem(sense Sense) *Problem {
	return &Problem{sense: sense}
}

// AddVariable declares a new non-negative continuous variable and returns its
// handle. The objective coefficient defaults to zero.
func (p *Problem) AddVariable(name string) Var {
	p.names = append(p.names, name)
	p.obj = append(p.obj, 0)
	p.binary = append(p.binary, false)
	return Var(len(p.obj) - 1)
}

// SetObjectiveCoeff sets the objective coefficient of a variable.
func (p *Problem) SetObjectiveCoeff(v Var, coeff float64) {
	p.obj[v] = coeff
}

// SetBinary restricts a variable to {0, 1}.
func (p *Problem) SetBinary(v Var) {
	p.binary[v] = true
}

// AddConstraint appends a linear constraint Σ terms (op) rhs.
func (p *Problem) AddConstraint(terms []Term, op Op, rhs float64) {
	p.cons = append(p.cons, constraint{terms: terms, op: op, rhs: rhs})
}

// NumVariables returns the number of declared variables.
func (p *Problem) NumVariables() int { return len(p.obj) }

// VariableName returns the name a variable was declared with.
func (p *Problem) VariableName(v Var) string { return p.names[v] }

func (p *Problem) hasBinaries() bool {
	for _, b := range p.binary {
		if b {
			return true
		}
	}
	return false
}

// Status is the definite outcome of a solve, surfaced verbatim to callers.
type Status string

const (
	StatusOptimal     Status = "Optimal"
	StatusInfeasible  Status = "Infeasible"
	StatusUnbounded   Status = "Unbounded"
	StatusNoVariables Status = "No_Variables"
)

// Solution carries the outcome of a solve. Values is indexed by Var and only
// meaningful when Status is StatusOptimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Value returns the solved value of a variable.
func (s Solution) Value(v Var) float64 {
	if int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// Solver executes a Problem to a definite status. Implementations must be
// safe for use from multiple goroutines solving distinct problems.
type Solver interface {
	Solve(p *Problem) (Solution, error)
}
