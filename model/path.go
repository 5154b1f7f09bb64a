package model

// Path is a (host, egress) pair. Every host has exactly one path per egress
// interface; a path's reachable destination set equals its egress interface's
// reachable set.
type Path struct {
	ID       string
	HostID   string
	EgressID string
}

// FlowKey identifies one allocated flow as a proper (host, path, destination)
// record. The legacy "{host}_{path}_to_{destination}" string form exists only
// at the JSON report boundary.
type FlowKey struct {
	Host        string
	Path        string
	Destination string
}

// Allocation maps flows to non-negative traffic volumes. An allocation is
// produced once per (scenario, policy) pair and never mutated afterwards.
type Allocation map[FlowKey]float64

// Add accumulates volume on a flow.
func (a Allocation) Add(key FlowKey, volume float64) {
	a[key] += volume
}

// TotalSent returns the sum of all allocated volumes.
func (a Allocation) TotalSent() float64 {
	var total float64
	for _, v := range a {
		total += v
	}
	return total
}

// SentTo returns the total volume delivered to one destination.
func (a Allocation) SentTo(destination string) float64 {
	var total float64
	for k, v := range a {
		if k.Destination == destination {
			total += v
		}
	}
	return total
}
