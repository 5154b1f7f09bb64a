package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SolverCollector exposes LP-solver-specific Prometheus metrics.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	SolveDuration prometheus.Histogram
	Solves        *prometheus.CounterVec
}

// NewSolverCollector registers solver metrics against the provided registerer.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_solve_duration_seconds",
		Help:    "Duration of one linear program solve, branch and bound included.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	duration, err := registerHistogram(reg, duration, "solver_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_solves_total",
		Help: "Total number of LP solves, labeled by terminal status.",
	}, []string{"status"})
	solves, err = registerCounterVec(reg, solves, "solver_solves_total")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:      gatherer,
		SolveDuration: duration,
		Solves:        solves,
	}, nil
}

// ObserveSolve records one completed solve.
func (c *SolverCollector) ObserveSolve(status string, duration time.Duration) {
	if c == nil {
		return
	}
	if c.SolveDuration != nil {
		c.SolveDuration.Observe(duration.Seconds())
	}
	if c.Solves != nil {
		c.Solves.WithLabelValues(status).Inc()
	}
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
