package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ixplabs/egresssim/core"
	"github.com/ixplabs/egresssim/internal/logging"
	"github.com/ixplabs/egresssim/internal/lp"
	"github.com/ixplabs/egresssim/internal/observability"
	"github.com/ixplabs/egresssim/internal/scenariogen"
)

// job is one (configuration, axis value, run index) point of the sweep.
type job struct {
	spec  ConfigurationSpec
	value float64
	run   int
	seed  int64
}

// Runner executes a parameter sweep: it generates one scenario per sweep
// point, evaluates the full policy suite over it, and writes a scenario and a
// result file per run. Runs share nothing and are dispatched to an ants
// worker pool; a failed run is logged and counted but never stops the sweep.
type Runner struct {
	cfg     Config
	logger  logging.Logger
	metrics *observability.SweepCollector
	tracer  trace.Tracer
	engine  *core.EvaluationEngine
}

// NewRunner wires a runner around the given collectors. Nil logger and
// collectors are tolerated.
func NewRunner(cfg Config, logger logging.Logger, metrics *observability.SweepCollector, solverMetrics *observability.SolverCollector) *Runner {
	if logger == nil {
		logger = logging.Noop()
	}
	var solver lp.Solver = lp.SimplexSolver{}
	if solverMetrics != nil {
		solver = instrumentedSolver{inner: solver, metrics: solverMetrics}
	}
	return &Runner{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("egresssim/sweep"),
		engine:  core.NewEvaluationEngine(solver, logger),
	}
}

// Run executes the whole sweep and returns an error only when the sweep
// itself cannot start; individual run failures are reported in the logs and
// the metrics, not as an error.
func (r *Runner) Run(ctx context.Context) error {
	graph, err := scenariogen.LoadTopologyGraphFile(r.cfg.GraphFile)
	if err != nil {
		return err
	}
	traffic, err := scenariogen.LoadTrafficMatrixFile(r.cfg.TrafficFile)
	if err != nil {
		return err
	}

	jobs := r.expandJobs()
	r.logger.Info(ctx, "sweep starting",
		logging.Int("jobs", len(jobs)),
		logging.Int("workers", r.cfg.Workers),
		logging.String("axis", r.cfg.Axis.Name))

	pool, err := ants.NewPool(r.cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var failures atomic.Int64
	for _, j := range jobs {
		j := j
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := r.runOne(ctx, graph, traffic, j); err != nil {
				failures.Add(1)
			}
		}); err != nil {
			wg.Done()
			failures.Add(1)
			r.logger.Error(ctx, "submit run to pool failed", logging.Err(err))
		}
	}
	wg.Wait()

	r.logger.Info(ctx, "sweep finished",
		logging.Int("jobs", len(jobs)),
		logging.Int("failed", int(failures.Load())))
	return nil
}

// expandJobs builds the full cartesian product of configurations, axis
// values, and run repetitions. Each job gets its own derived seed so a sweep
// is reproducible from the config seed alone.
func (r *Runner) expandJobs() []job {
	var jobs []job
	next := r.cfg.Seed
	for _, spec := range r.cfg.Configs {
		for _, v := range r.cfg.Axis.Values() {
			for run := 0; run < r.cfg.RunsPerPoint; run++ {
				next++
				jobs = append(jobs, job{spec: spec, value: v, run: run, seed: next})
			}
		}
	}
	return jobs
}

func (r *Runner) runOne(ctx context.Context, graph *scenariogen.TopologyGraph, traffic scenariogen.TrafficMatrix, j job) error {
	start := time.Now()
	ctx, log := logging.WithRunLogger(ctx, r.logger)
	log = log.With(
		logging.String("configuration", j.spec.Name),
		logging.Float64(r.cfg.Axis.Name, j.value),
		logging.Int("run", j.run))

	ctx, span := r.tracer.Start(ctx, "sweep.run",
		trace.WithAttributes(
			attribute.String("configuration", j.spec.Name),
			attribute.String("axis", r.cfg.Axis.Name),
			attribute.Float64("value", j.value),
			attribute.Int("run", j.run),
		))
	defer span.End()

	err := r.evaluatePoint(ctx, graph, traffic, j)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		log.Error(ctx, "run failed", logging.Err(err))
	} else {
		log.Info(ctx, "run complete", logging.Float64("duration_sec", time.Since(start).Seconds()))
	}
	r.metrics.ObserveRun(j.spec.Name, status, time.Since(start))
	return err
}

func (r *Runner) evaluatePoint(ctx context.Context, graph *scenariogen.TopologyGraph, traffic scenariogen.TrafficMatrix, j job) error {
	opts := scenariogen.Options{
		TransitBaseCost:     j.spec.TransitBaseCost,
		PeeringBaseCost:     j.spec.PeeringBaseCost,
		PeeringVariableCost: j.spec.PeeringVariableCost,
		UseWorstCaseLinks:   j.spec.UseWorstCaseLinks,
		PreferPeering:       j.spec.PreferPeering,
	}
	switch r.cfg.Axis.Name {
	case AxisTrafficFactor:
		opts.TrafficIncreaseFactor = j.value
	case AxisLatencyInflation:
		inflation := j.value
		opts.LatencyInflation = &inflation
	}

	gen := scenariogen.New(j.seed, r.logger)
	file, err := gen.Generate(ctx, graph, traffic, opts)
	if err != nil {
		return fmt.Errorf("generate scenario: %w", err)
	}
	r.metrics.SetScenarioCounts(len(file.EndHosts), len(file.EgressInterfaces), len(file.Destinations))

	scenarioPath := r.pointPath(j, "scenarios", "scenario")
	if err := writeScenarioFile(scenarioPath, file); err != nil {
		return err
	}

	scenario, err := file.Build()
	if err != nil {
		return err
	}
	report, err := r.engine.Evaluate(ctx, scenario)
	if err != nil {
		return err
	}
	if err := report.SetParameters(core.ReportParameters{
		Configuration: j.spec.Name,
		Axis:          r.cfg.Axis.Name,
		Value:         j.value,
		Run:           j.run,
		Seed:          j.seed,
	}); err != nil {
		return err
	}

	resultPath := r.pointPath(j, "results", "result")
	if err := os.MkdirAll(filepath.Dir(resultPath), 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	if err := report.WriteFile(resultPath); err != nil {
		return err
	}
	return nil
}

// pointPath is <output>/<configuration>/<kind>/<prefix>_factor_<value>_run_<n>.json,
// the layout the plotting pipeline scans.
func (r *Runner) pointPath(j job, kind, prefix string) string {
	dir := filepath.Join(r.cfg.OutputDir, j.spec.Name, kind)
	value := strconv.FormatFloat(j.value, 'f', -1, 64)
	return filepath.Join(dir, fmt.Sprintf("%s_factor_%s_run_%d.json", prefix, value, j.run))
}

func writeScenarioFile(path string, file *core.ScenarioFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create scenario dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scenario file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("write scenario file: %w", err)
	}
	return f.Close()
}

// instrumentedSolver records solve durations and terminal statuses around an
// inner LP backend.
type instrumentedSolver struct {
	inner   lp.Solver
	metrics *observability.SolverCollector
}

func (s instrumentedSolver) Solve(p *lp.Problem) (lp.Solution, error) {
	start := time.Now()
	sol, err := s.inner.Solve(p)
	status := string(sol.Status)
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveSolve(status, time.Since(start))
	return sol, err
}
