package model

// Destination represents an external network that traffic must be delivered
// to.
type Destination struct {
	ID string
	// Demand is the required aggregate traffic volume toward this
	// destination, in the same rate unit as capacities (Gbps).
	Demand float64
	// DataVolume is the optional bulk-transfer size used by the
	// time-optimization mode; zero when the scenario does not model it.
	DataVolume float64
}
