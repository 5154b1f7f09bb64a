package core

import (
	"errors"
	"sort"

	"github.com/ixplabs/egresssim/model"
)

// ErrZeroUplink means the scenario has no uplink capacity at all, so demand
// cannot be split across hosts.
var ErrZeroUplink = errors.New("total uplink capacity is zero")

// LinkFilter restricts which egress link types a heuristic may use.
type LinkFilter int

const (
	// AllLinks places traffic on any reachable egress.
	AllLinks LinkFilter = iota
	// PeeringOnly skips transit egresses; peering links carry everything
	// they can and the rest goes unsent.
	PeeringOnly
)

// candidate is one usable (path, egress) pair for a (host, destination) flow.
type candidate struct {
	path   model.Path
	egress model.EgressInterface
}

// candidatePaths lists the host's paths whose egress reaches the destination,
// in path declaration order, after applying the link filter.
func candidatePaths(s *Scenario, hostID, destinationID string, filter LinkFilter) []candidate {
	var out []candidate
	for _, p := range s.Paths(hostID) {
		egress, ok := s.Egress(p.EgressID)
		if !ok || !s.Reaches(egress.ID, destinationID) {
			continue
		}
		if filter == PeeringOnly && egress.Type == model.LinkTypeTransit {
			continue
		}
		out = append(out, candidate{path: p, egress: egress})
	}
	return out
}

// byLatency sorts candidates by egress latency ascending. The sort is stable
// so ties keep path declaration order.
func sortByLatency(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].egress.Latency < cands[j].egress.Latency
	})
}

// hostShare is the portion of a destination's demand originated by one host,
// proportional to the host's share of total uplink capacity. All heuristics
// split demand this way so their results stay comparable.
func hostShare(s *Scenario, host model.EndHost, demand float64) float64 {
	return demand * (host.UplinkCapacity / s.TotalUplink())
}
