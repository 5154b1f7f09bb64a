package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ScenarioFile is the on-disk JSON shape of a scenario, as produced by the
// scenario generator. Field names are part of the external contract shared
// with the plotting pipeline, so they must not change.
type ScenarioFile struct {
	EndHosts                        []string            `json:"endhosts"`
	EgressInterfaces                []string            `json:"egress_interfaces"`
	Destinations                    []string            `json:"destinations"`
	PathsPerEndhost                 map[string][]string `json:"paths_per_endhost"`
	PathToEgressMapping             map[string]string   `json:"path_to_egress_mapping"`
	EgressToDestinationReachability map[string][]string `json:"egress_to_destination_reachability"`
	EndhostUplinks                  map[string]float64  `json:"endhost_uplinks"`
	EgressCapacities                map[string]float64  `json:"egress_capacities"`
	EgressCosts                     map[string]float64  `json:"egress_costs"`
	EgressBaseCosts                 map[string]float64  `json:"egress_base_costs,omitempty"`
	EgressLatencies                 map[string]float64  `json:"egress_latencies"`
	EgressTypes                     map[string]string   `json:"egress_types,omitempty"`
	TrafficPerDestination           map[string]float64  `json:"traffic_per_destination"`
	DataVolumesPerDestination       map[string]float64  `json:"data_volumes_per_destination,omitempty"`
}

// Build validates the raw file and assembles an immutable Scenario.
func (f *ScenarioFile) Build() (*Scenario, error) {
	return buildScenario(f)
}

// LoadScenario reads a scenario JSON document from r, validates it, and
// returns the indexed Scenario.
//
// It fails with ErrMalformedScenario (wrapped) on structural problems;
// ordinary zero capacities or missing cost entries are not errors, they just
// contribute zero everywhere.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var file ScenarioFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", ErrMalformedScenario, err)
	}
	return file.Build()
}

// LoadScenarioFile opens and loads a scenario from a path.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	return LoadScenario(f)
}
