package scenariogen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedGraph covers structural problems in a topology graph file.
var ErrMalformedGraph = errors.New("malformed topology graph")

// GraphNode is one node of the topology graph. Nodes of type "internal" are
// the traffic-originating end hosts.
type GraphNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// GraphEdge is one edge of the topology graph. Edges with edge_type
// "external" are egress interfaces; their link_type distinguishes transit
// from peering and "to" names the neighbor network.
type GraphEdge struct {
	ID           string `json:"id"`
	EdgeType     string `json:"edge_type"`
	LinkType     string `json:"link_type"`
	To           string `json:"to"`
	Capacity     string `json:"capacity,omitempty"`
	LinkCapacity string `json:"link_capacity,omitempty"`
}

// TopologyGraph is the network graph the generator derives scenarios from.
type TopologyGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// EndHosts lists internal nodes in declaration order.
func (g *TopologyGraph) EndHosts() []string {
	var out []string
	for _, n := range g.Nodes {
		if n.Type == "internal" {
			out = append(out, n.ID)
		}
	}
	return out
}

// EgressEdges lists external edges in declaration order.
func (g *TopologyGraph) EgressEdges() []GraphEdge {
	var out []GraphEdge
	for _, e := range g.Edges {
		if e.EdgeType == "external" {
			out = append(out, e)
		}
	}
	return out
}

// CapacityGbps parses the edge's capacity field, whichever of the two names
// it was declared under.
func (e GraphEdge) CapacityGbps() (float64, error) {
	raw := e.Capacity
	if raw == "" {
		raw = e.LinkCapacity
	}
	if raw == "" {
		return 0, nil
	}
	return ParseCapacity(raw)
}

// ParseCapacity converts a capacity string such as "100G", "200 Gbps", or
// "40000M" into Gbps. A bare number is taken as Gbps already.
func ParseCapacity(s string) (float64, error) {
	c := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	c = strings.TrimSuffix(c, "b/s")
	c = strings.TrimSuffix(c, "bps")
	c = strings.TrimSuffix(c, "b")

	scale := 1.0
	switch {
	case strings.HasSuffix(c, "g"):
		c = strings.TrimSuffix(c, "g")
	case strings.HasSuffix(c, "m"):
		c, scale = strings.TrimSuffix(c, "m"), 1.0/1e3
	case strings.HasSuffix(c, "k"):
		c, scale = strings.TrimSuffix(c, "k"), 1.0/1e6
	}
	v, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0, fmt.Errorf("parse capacity %q: %w", s, err)
	}
	return v * scale, nil
}

// LoadTopologyGraph decodes a topology graph JSON document.
func LoadTopologyGraph(r io.Reader) (*TopologyGraph, error) {
	var g TopologyGraph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", ErrMalformedGraph, err)
	}
	if len(g.Nodes) == 0 || len(g.Edges) == 0 {
		return nil, fmt.Errorf("%w: graph needs nodes and edges", ErrMalformedGraph)
	}
	return &g, nil
}

// LoadTopologyGraphFile opens and loads a topology graph from a path.
func LoadTopologyGraphFile(path string) (*TopologyGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph %q: %w", path, err)
	}
	defer f.Close()
	return LoadTopologyGraph(f)
}
