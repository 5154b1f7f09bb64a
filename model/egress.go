package model

import "strings"

// LinkType indicates whether an egress interface is a transit or a peering
// link. Transit links reach arbitrary destinations (paid, higher latency);
// peering links reach only the directly connected peer.
type LinkType int

const (
	LinkTypeTransit LinkType = iota
	LinkTypePeering
)

func (t LinkType) String() string {
	switch t {
	case LinkTypePeering:
		return "peering"
	default:
		return "transit"
	}
}

// ParseLinkType maps a scenario-file link-type string to a LinkType.
// Unknown or empty values default to transit, which keeps an untyped egress
// usable by every policy.
func ParseLinkType(s string) LinkType {
	if strings.EqualFold(strings.TrimSpace(s), "peering") {
		return LinkTypePeering
	}
	return LinkTypeTransit
}

// EgressInterface is an outbound link from the operator to an external peer
// or transit provider. It is owned by the operator and shared across all
// hosts and all destinations reachable through it.
type EgressInterface struct {
	ID string
	// Capacity is the link rate in Gbps. Zero means the link is structurally
	// unusable, not invalid.
	Capacity float64
	// VariableCost is the operator cost per Gbps of traffic on the link.
	VariableCost float64
	// BaseCost is the fixed cost incurred if the link carries any traffic at
	// all. It may be zero.
	BaseCost float64
	// Latency is the propagation plus congestion-adjusted delay in ms.
	Latency float64
	Type    LinkType
}
