package core

// ResourceLedger tracks remaining host uplink and egress capacity during one
// heuristic allocator run. Counters start at the scenario's stated values and
// only ever decrease; they are never reset mid-run.
//
// A ledger is scoped to a single run and passed explicitly into the
// allocators, so separate scenario evaluations can execute concurrently
// without sharing state.
type ResourceLedger struct {
	uplink map[string]float64
	egress map[string]float64
}

// NewResourceLedger seeds a fresh ledger from the scenario's capacities.
func NewResourceLedger(s *Scenario) *ResourceLedger {
	l := &ResourceLedger{
		uplink: make(map[string]float64, len(s.Hosts())),
		egress: make(map[string]float64, len(s.Egresses())),
	}
	for _, h := range s.Hosts() {
		l.uplink[h.ID] = h.UplinkCapacity
	}
	for _, e := range s.Egresses() {
		l.egress[e.ID] = e.Capacity
	}
	return l
}

// RemainingUplink returns the unspent uplink capacity of a host.
func (l *ResourceLedger) RemainingUplink(hostID string) float64 {
	return l.uplink[hostID]
}

// RemainingEgress returns the unspent capacity of an egress interface.
func (l *ResourceLedger) RemainingEgress(egressID string) float64 {
	return l.egress[egressID]
}

// Consume debits volume from both the host uplink and the egress interface.
func (l *ResourceLedger) Consume(hostID, egressID string, volume float64) {
	l.uplink[hostID] -= volume
	l.egress[egressID] -= volume
}
