package sweep

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Axis names selectable in the sweep config.
const (
	AxisTrafficFactor    = "traffic_factor"
	AxisLatencyInflation = "latency_inflation"
)

// ErrInvalidConfig covers structural problems in a sweep config file.
var ErrInvalidConfig = errors.New("invalid sweep config")

// ConfigurationSpec is one named cost-model configuration of the sweep.
type ConfigurationSpec struct {
	Name                string   `mapstructure:"name"`
	Description         string   `mapstructure:"description"`
	TransitBaseCost     *float64 `mapstructure:"transit_base_cost"`
	PeeringBaseCost     *float64 `mapstructure:"peering_base_cost"`
	PeeringVariableCost *float64 `mapstructure:"peering_variable_cost"`
	UseWorstCaseLinks   bool     `mapstructure:"use_worst_case_links"`
	PreferPeering       bool     `mapstructure:"prefer_peering"`
}

// AxisSpec describes the swept parameter range, inclusive on both ends.
type AxisSpec struct {
	Name string  `mapstructure:"name"`
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	Step float64 `mapstructure:"step"`
}

// Values expands the axis into its sample points.
func (a AxisSpec) Values() []float64 {
	var out []float64
	// Small epsilon keeps the inclusive upper bound stable under float steps.
	for v := a.Min; v <= a.Max+1e-9; v += a.Step {
		out = append(out, v)
	}
	return out
}

// Config is the full sweep description loaded from YAML.
type Config struct {
	GraphFile     string              `mapstructure:"graph_file"`
	TrafficFile   string              `mapstructure:"traffic_file"`
	OutputDir     string              `mapstructure:"output_dir"`
	Workers       int                 `mapstructure:"workers"`
	Seed          int64               `mapstructure:"seed"`
	RunsPerPoint  int                 `mapstructure:"runs_per_point"`
	MetricsListen string              `mapstructure:"metrics_listen"`
	Axis          AxisSpec            `mapstructure:"axis"`
	Configs       []ConfigurationSpec `mapstructure:"configurations"`
}

// LoadConfig reads and validates a sweep config from a YAML file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("output_dir", "results")
	v.SetDefault("workers", 4)
	v.SetDefault("runs_per_point", 1)
	v.SetDefault("axis.name", AxisTrafficFactor)
	v.SetDefault("axis.min", 1)
	v.SetDefault("axis.max", 20)
	v.SetDefault("axis.step", 1)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read sweep config %q: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GraphFile == "" {
		return fmt.Errorf("%w: graph_file is required", ErrInvalidConfig)
	}
	if c.TrafficFile == "" {
		return fmt.Errorf("%w: traffic_file is required", ErrInvalidConfig)
	}
	if len(c.Configs) == 0 {
		return fmt.Errorf("%w: at least one configuration is required", ErrInvalidConfig)
	}
	if c.Axis.Name != AxisTrafficFactor && c.Axis.Name != AxisLatencyInflation {
		return fmt.Errorf("%w: unknown axis %q", ErrInvalidConfig, c.Axis.Name)
	}
	if c.Axis.Step <= 0 {
		return fmt.Errorf("%w: axis step must be positive", ErrInvalidConfig)
	}
	if c.Axis.Max < c.Axis.Min {
		return fmt.Errorf("%w: axis max below min", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.RunsPerPoint <= 0 {
		return fmt.Errorf("%w: runs_per_point must be positive", ErrInvalidConfig)
	}
	for i, spec := range c.Configs {
		if spec.Name == "" {
			return fmt.Errorf("%w: configuration %d has no name", ErrInvalidConfig, i)
		}
	}
	return nil
}
