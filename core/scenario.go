package core

import (
	"errors"
	"fmt"

	"github.com/ixplabs/egresssim/model"
)

var (
	// ErrMalformedScenario marks fatal structural problems in a scenario
	// file: missing required fields or references to undeclared entities.
	ErrMalformedScenario = errors.New("malformed scenario")
	// ErrNoFeasibleVariables is the non-fatal "nothing to solve" condition:
	// no valid (host, path, destination) triple exists.
	ErrNoFeasibleVariables = errors.New("no feasible (host, path, destination) variables")
	// ErrNegativeUnmet indicates an allocator produced more traffic than was
	// demanded. It is an invariant violation and is never clamped away.
	ErrNegativeUnmet = errors.New("negative unmet demand")
)

// Scenario is the validated, immutable representation of one allocation
// problem: hosts, egress interfaces, destinations, demands, capacities,
// costs, latencies and reachability.
//
// A Scenario carries no mutable counters; "remaining capacity" bookkeeping
// lives in ResourceLedger so the same Scenario can be reused across any
// number of allocator runs, including concurrent ones.
type Scenario struct {
	hosts        []model.EndHost
	egresses     []model.EgressInterface
	destinations []model.Destination

	hostIndex   map[string]int
	egressIndex map[string]int
	destIndex   map[string]int

	pathsByHost  map[string][]model.Path
	pathIndex    map[string]model.Path
	reachability map[string][]string
	reachSet     map[string]map[string]struct{}
}

// Hosts returns the end hosts in declaration order. Declaration order is the
// deterministic processing order for the heuristic allocators, so callers
// must not rely on any other ordering.
func (s *Scenario) Hosts() []model.EndHost { return s.hosts }

// Egresses returns the egress interfaces in declaration order.
func (s *Scenario) Egresses() []model.EgressInterface { return s.egresses }

// Destinations returns the destinations in declaration order.
func (s *Scenario) Destinations() []model.Destination { return s.destinations }

// Host returns a host by ID.
func (s *Scenario) Host(id string) (model.EndHost, bool) {
	i, ok := s.hostIndex[id]
	if !ok {
		return model.EndHost{}, false
	}
	return s.hosts[i], true
}

// Egress returns an egress interface by ID.
func (s *Scenario) Egress(id string) (model.EgressInterface, bool) {
	i, ok := s.egressIndex[id]
	if !ok {
		return model.EgressInterface{}, false
	}
	return s.egresses[i], true
}

// Destination returns a destination by ID.
func (s *Scenario) Destination(id string) (model.Destination, bool) {
	i, ok := s.destIndex[id]
	if !ok {
		return model.Destination{}, false
	}
	return s.destinations[i], true
}

// Paths returns the host's paths in declaration order.
func (s *Scenario) Paths(hostID string) []model.Path {
	return s.pathsByHost[hostID]
}

// Path returns a path by ID.
func (s *Scenario) Path(id string) (model.Path, bool) {
	p, ok := s.pathIndex[id]
	return p, ok
}

// EgressOf returns the egress interface a path exits through.
func (s *Scenario) EgressOf(pathID string) (model.EgressInterface, bool) {
	p, ok := s.pathIndex[pathID]
	if !ok {
		return model.EgressInterface{}, false
	}
	return s.Egress(p.EgressID)
}

// ReachableDestinations returns the destination IDs an egress can deliver
// to, in declaration order.
func (s *Scenario) ReachableDestinations(egressID string) []string {
	return s.reachability[egressID]
}

// Reaches reports whether an egress can deliver to a destination.
func (s *Scenario) Reaches(egressID, destinationID string) bool {
	set, ok := s.reachSet[egressID]
	if !ok {
		return false
	}
	_, ok = set[destinationID]
	return ok
}

// Demand returns the required traffic volume toward a destination, 0 for an
// unknown destination.
func (s *Scenario) Demand(destinationID string) float64 {
	if d, ok := s.Destination(destinationID); ok {
		return d.Demand
	}
	return 0
}

// TotalDemand sums demand over every destination.
func (s *Scenario) TotalDemand() float64 {
	var total float64
	for _, d := range s.destinations {
		total += d.Demand
	}
	return total
}

// TotalUplink sums uplink capacity over every host.
func (s *Scenario) TotalUplink() float64 {
	var total float64
	for _, h := range s.hosts {
		total += h.UplinkCapacity
	}
	return total
}

// HasDataVolumes reports whether the scenario carries bulk-transfer volumes,
// enabling the time-optimization mode.
func (s *Scenario) HasDataVolumes() bool {
	for _, d := range s.destinations {
		if d.DataVolume > 0 {
			return true
		}
	}
	return false
}

// buildScenario validates the raw file shape and assembles the indexed,
// immutable Scenario.
func buildScenario(file *ScenarioFile) (*Scenario, error) {
	if len(file.EndHosts) == 0 {
		return nil, fmt.Errorf("%w: no endhosts", ErrMalformedScenario)
	}
	if len(file.EgressInterfaces) == 0 {
		return nil, fmt.Errorf("%w: no egress_interfaces", ErrMalformedScenario)
	}
	if len(file.Destinations) == 0 {
		return nil, fmt.Errorf("%w: no destinations", ErrMalformedScenario)
	}
	if len(file.TrafficPerDestination) == 0 {
		return nil, fmt.Errorf("%w: no traffic_per_destination", ErrMalformedScenario)
	}
	if len(file.EgressCapacities) == 0 {
		return nil, fmt.Errorf("%w: no egress_capacities", ErrMalformedScenario)
	}

	s := &Scenario{
		hostIndex:    make(map[string]int, len(file.EndHosts)),
		egressIndex:  make(map[string]int, len(file.EgressInterfaces)),
		destIndex:    make(map[string]int, len(file.Destinations)),
		pathsByHost:  make(map[string][]model.Path, len(file.EndHosts)),
		pathIndex:    make(map[string]model.Path),
		reachability: make(map[string][]string, len(file.EgressInterfaces)),
		reachSet:     make(map[string]map[string]struct{}, len(file.EgressInterfaces)),
	}

	for _, id := range file.EndHosts {
		if id == "" {
			return nil, fmt.Errorf("%w: endhost with empty id", ErrMalformedScenario)
		}
		if _, dup := s.hostIndex[id]; dup {
			return nil, fmt.Errorf("%w: duplicate endhost %q", ErrMalformedScenario, id)
		}
		s.hostIndex[id] = len(s.hosts)
		s.hosts = append(s.hosts, model.EndHost{
			ID:             id,
			UplinkCapacity: file.EndhostUplinks[id],
		})
	}

	for _, id := range file.EgressInterfaces {
		if id == "" {
			return nil, fmt.Errorf("%w: egress with empty id", ErrMalformedScenario)
		}
		if _, dup := s.egressIndex[id]; dup {
			return nil, fmt.Errorf("%w: duplicate egress %q", ErrMalformedScenario, id)
		}
		s.egressIndex[id] = len(s.egresses)
		s.egresses = append(s.egresses, model.EgressInterface{
			ID:           id,
			Capacity:     file.EgressCapacities[id],
			VariableCost: file.EgressCosts[id],
			BaseCost:     file.EgressBaseCosts[id],
			Latency:      file.EgressLatencies[id],
			Type:         model.ParseLinkType(file.EgressTypes[id]),
		})
	}

	for _, id := range file.Destinations {
		if id == "" {
			return nil, fmt.Errorf("%w: destination with empty id", ErrMalformedScenario)
		}
		if _, dup := s.destIndex[id]; dup {
			return nil, fmt.Errorf("%w: duplicate destination %q", ErrMalformedScenario, id)
		}
		s.destIndex[id] = len(s.destinations)
		s.destinations = append(s.destinations, model.Destination{
			ID:         id,
			Demand:     file.TrafficPerDestination[id],
			DataVolume: file.DataVolumesPerDestination[id],
		})
	}

	for _, hostID := range file.EndHosts {
		for _, pathID := range file.PathsPerEndhost[hostID] {
			if pathID == "" {
				return nil, fmt.Errorf("%w: host %q declares a path with empty id", ErrMalformedScenario, hostID)
			}
			egressID, ok := file.PathToEgressMapping[pathID]
			if !ok {
				return nil, fmt.Errorf("%w: path %q has no egress mapping", ErrMalformedScenario, pathID)
			}
			if _, ok := s.egressIndex[egressID]; !ok {
				return nil, fmt.Errorf("%w: path %q references undeclared egress %q", ErrMalformedScenario, pathID, egressID)
			}
			if _, dup := s.pathIndex[pathID]; dup {
				return nil, fmt.Errorf("%w: duplicate path %q", ErrMalformedScenario, pathID)
			}
			p := model.Path{ID: pathID, HostID: hostID, EgressID: egressID}
			s.pathIndex[pathID] = p
			s.pathsByHost[hostID] = append(s.pathsByHost[hostID], p)
		}
	}
	for hostID := range file.PathsPerEndhost {
		if _, ok := s.hostIndex[hostID]; !ok {
			return nil, fmt.Errorf("%w: paths declared for undeclared host %q", ErrMalformedScenario, hostID)
		}
	}

	for egressID, dests := range file.EgressToDestinationReachability {
		if _, ok := s.egressIndex[egressID]; !ok {
			return nil, fmt.Errorf("%w: reachability declared for undeclared egress %q", ErrMalformedScenario, egressID)
		}
		set := make(map[string]struct{}, len(dests))
		ordered := make([]string, 0, len(dests))
		for _, destID := range dests {
			if _, ok := s.destIndex[destID]; !ok {
				return nil, fmt.Errorf("%w: egress %q reaches undeclared destination %q", ErrMalformedScenario, egressID, destID)
			}
			if _, dup := set[destID]; dup {
				continue
			}
			set[destID] = struct{}{}
			ordered = append(ordered, destID)
		}
		s.reachability[egressID] = ordered
		s.reachSet[egressID] = set
	}

	return s, nil
}
