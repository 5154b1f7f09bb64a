package core

import (
	"context"
	"fmt"

	"github.com/ixplabs/egresssim/internal/logging"
	"github.com/ixplabs/egresssim/internal/lp"
)

// EvaluationEngine runs the full policy suite over one scenario and collects
// the per-policy report blocks. Each evaluation is a pure synchronous
// computation; the engine holds no state across calls, so one engine can be
// shared by concurrent sweep workers.
type EvaluationEngine struct {
	solver lp.Solver
	logger logging.Logger
}

// NewEvaluationEngine builds an engine around the given LP backend. A nil
// logger is replaced with a no-op one.
func NewEvaluationEngine(solver lp.Solver, logger logging.Logger) *EvaluationEngine {
	if logger == nil {
		logger = logging.Noop()
	}
	return &EvaluationEngine{solver: solver, logger: logger}
}

// Evaluate runs every allocation policy against the scenario and assembles
// the result report. Transfer-time policies run only when the scenario
// declares data volumes.
func (e *EvaluationEngine) Evaluate(ctx context.Context, s *Scenario) (Report, error) {
	report := Report{}

	cost := CostOptimizer{Solver: e.solver}
	latency := LatencyOptimizer{Solver: e.solver}

	lpPolicies := []struct {
		name  string
		solve func() (AllocationResult, error)
	}{
		{PolicyISPOptimal, func() (AllocationResult, error) { return cost.Solve(s, MinimizeCost) }},
		{PolicyISPPessimal, func() (AllocationResult, error) { return cost.Solve(s, MaximizeCost) }},
		{PolicyLatencyOptimal, func() (AllocationResult, error) { return latency.Solve(s) }},
	}

	heuristics := []struct {
		name string
		sim  interface {
			Simulate(*Scenario) (AllocationResult, error)
		}
	}{
		{PolicyThunderingHerd, ThunderingHerdAllocator{}},
		{PolicyThunderingHerdAllLinks, ThunderingHerdAllocator{Filter: AllLinks}},
		{PolicyThunderingHerdPeering, ThunderingHerdAllocator{Filter: PeeringOnly}},
		{PolicyFairShareLatencyOptimal, FairShareAllocator{}},
		{PolicyFairShareLatencyOptimal2, FairShareAllocator{MaxPaths: 2}},
		{PolicyFairShareLatencyOptimal3, FairShareAllocator{MaxPaths: 3}},
		{PolicyWaterFillingOptimal1, WaterFillingAllocator{MaxPaths: 1}},
		{PolicyWaterFillingOptimal2, WaterFillingAllocator{MaxPaths: 2}},
		{PolicyWaterFillingOptimal3, WaterFillingAllocator{MaxPaths: 3}},
	}

	for _, p := range lpPolicies {
		res, err := p.solve()
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.name, err)
		}
		e.logger.Debug(ctx, "policy solved",
			logging.String("policy", p.name),
			logging.String("status", res.Status),
			logging.Float64("objective", res.Objective))
		block, err := buildPolicyResult(s, p.name, res)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.name, err)
		}
		if err := report.set(p.name, block); err != nil {
			return nil, err
		}
	}

	for _, p := range heuristics {
		res, err := p.sim.Simulate(s)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.name, err)
		}
		e.logger.Debug(ctx, "policy simulated",
			logging.String("policy", p.name),
			logging.Float64("sent", res.Allocation.TotalSent()))
		block, err := buildPolicyResult(s, p.name, res)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.name, err)
		}
		if err := report.set(p.name, block); err != nil {
			return nil, err
		}
	}

	if s.HasDataVolumes() {
		timeOpt := TimeOptimizer{Solver: e.solver}
		for _, tp := range []struct {
			name string
			goal TransferGoal
		}{
			{PolicyTimeOptimalBest, BestCaseTransfer},
			{PolicyTimeOptimalWorst, WorstCaseTransfer},
		} {
			res, err := timeOpt.Solve(s, tp.goal)
			if err != nil {
				return nil, fmt.Errorf("policy %s: %w", tp.name, err)
			}
			e.logger.Debug(ctx, "transfer time solved",
				logging.String("policy", tp.name),
				logging.String("status", res.Status),
				logging.Float64("duration_sec", res.DurationSec))
			if err := report.set(tp.name, buildTimeResult(tp.goal, res)); err != nil {
				return nil, err
			}
		}
	}

	return report, nil
}
