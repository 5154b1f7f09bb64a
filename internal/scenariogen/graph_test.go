package scenariogen

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCapacity(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"100G", 100},
		{"100g", 100},
		{"200 Gbps", 200},
		{"40Gb/s", 40},
		{"400Gbps", 400},
		{"40000M", 40},
		{"10000000K", 10},
		{"25", 25},
		{"2.5G", 2.5},
	}
	for _, tc := range cases {
		got, err := ParseCapacity(tc.in)
		if err != nil {
			t.Errorf("ParseCapacity(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCapacity(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseCapacity_Invalid(t *testing.T) {
	for _, in := range []string{"", "fast", "G100"} {
		if _, err := ParseCapacity(in); err == nil {
			t.Errorf("ParseCapacity(%q) = nil error, want failure", in)
		}
	}
}

func TestLoadTopologyGraph(t *testing.T) {
	jsonData := `
{
  "nodes": [
    {"id": "dc1", "type": "internal"},
    {"id": "border", "type": "border"}
  ],
  "edges": [
    {"id": "L1", "edge_type": "external", "link_type": "transit", "to": "cogent", "capacity": "100G"},
    {"id": "L2", "edge_type": "external", "link_type": "peering", "to": "swissix", "link_capacity": "40G"},
    {"id": "L3", "edge_type": "internal", "to": "dc1"}
  ]
}
`
	g, err := LoadTopologyGraph(strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("LoadTopologyGraph: %v", err)
	}
	if hosts := g.EndHosts(); len(hosts) != 1 || hosts[0] != "dc1" {
		t.Errorf("EndHosts = %v, want [dc1]", hosts)
	}
	edges := g.EgressEdges()
	if len(edges) != 2 {
		t.Fatalf("EgressEdges count = %d, want 2", len(edges))
	}
	if c, err := edges[1].CapacityGbps(); err != nil || c != 40 {
		t.Errorf("L2 capacity = %v (%v), want 40", c, err)
	}
}

func TestLoadTopologyGraph_Empty(t *testing.T) {
	if _, err := LoadTopologyGraph(strings.NewReader(`{"nodes": [], "edges": []}`)); !errors.Is(err, ErrMalformedGraph) {
		t.Fatalf("err = %v, want ErrMalformedGraph", err)
	}
}
