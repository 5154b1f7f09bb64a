package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SweepCollector bundles Prometheus metrics for the parameter-sweep worker
// pool and provides a ready /metrics handler.
type SweepCollector struct {
	gatherer prometheus.Gatherer

	Runs         *prometheus.CounterVec
	RunDurations *prometheus.HistogramVec

	ScenarioHosts        prometheus.Gauge
	ScenarioEgresses     prometheus.Gauge
	ScenarioDestinations prometheus.Gauge
}

// NewSweepCollector registers sweep Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSweepCollector(reg prometheus.Registerer) (*SweepCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_runs_total",
		Help: "Total number of completed sweep runs, labeled by configuration and outcome.",
	}, []string{"configuration", "status"})
	runs, err := registerCounterVec(reg, runs, "sweep_runs_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_run_duration_seconds",
		Help:    "Wall-clock duration of one scenario evaluation, generation included.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"configuration"})
	durations, err = registerHistogramVec(reg, durations, "sweep_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	hosts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_endhosts",
		Help: "Number of end hosts in the most recently generated scenario.",
	}), "scenario_endhosts")
	if err != nil {
		return nil, err
	}
	egresses, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_egress_interfaces",
		Help: "Number of egress interfaces in the most recently generated scenario.",
	}), "scenario_egress_interfaces")
	if err != nil {
		return nil, err
	}
	destinations, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scenario_destinations",
		Help: "Number of destinations in the most recently generated scenario.",
	}), "scenario_destinations")
	if err != nil {
		return nil, err
	}

	return &SweepCollector{
		gatherer:             gatherer,
		Runs:                 runs,
		RunDurations:         durations,
		ScenarioHosts:        hosts,
		ScenarioEgresses:     egresses,
		ScenarioDestinations: destinations,
	}, nil
}

// ObserveRun records one finished run.
func (c *SweepCollector) ObserveRun(configuration, status string, duration time.Duration) {
	if c == nil {
		return
	}
	if c.Runs != nil {
		c.Runs.WithLabelValues(configuration, status).Inc()
	}
	if c.RunDurations != nil {
		c.RunDurations.WithLabelValues(configuration).Observe(duration.Seconds())
	}
}

// SetScenarioCounts updates the scenario-shape gauges.
func (c *SweepCollector) SetScenarioCounts(hosts, egresses, destinations int) {
	if c == nil {
		return
	}
	if c.ScenarioHosts != nil {
		c.ScenarioHosts.Set(float64(hosts))
	}
	if c.ScenarioEgresses != nil {
		c.ScenarioEgresses.Set(float64(egresses))
	}
	if c.ScenarioDestinations != nil {
		c.ScenarioDestinations.Set(float64(destinations))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SweepCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
