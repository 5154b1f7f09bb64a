package model

// EndHost represents a traffic source inside the operator's network.
// Each host has a single aggregate uplink shared by all of its flows.
type EndHost struct {
	ID string
	// UplinkCapacity is the aggregate uplink rate in Gbps.
	UplinkCapacity float64
}
