package scenariogen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrMalformedTraffic covers structural problems in a traffic matrix CSV.
var ErrMalformedTraffic = errors.New("malformed traffic matrix")

// TrafficEntry is one destination's measured outbound demand.
type TrafficEntry struct {
	Destination string
	TrafficGbps float64
}

// TrafficMatrix holds per-destination demand in file order. Order matters:
// it becomes the scenario's destination declaration order, which the
// heuristic allocators depend on.
type TrafficMatrix []TrafficEntry

// LoadTrafficMatrix reads a CSV with header columns "to" and
// "traffic_out_gbps" (extra columns are ignored).
func LoadTrafficMatrix(r io.Reader) (TrafficMatrix, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedTraffic, err)
	}

	destCol, trafficCol := -1, -1
	for i, name := range header {
		switch name {
		case "to":
			destCol = i
		case "traffic_out_gbps":
			trafficCol = i
		}
	}
	if destCol < 0 || trafficCol < 0 {
		return nil, fmt.Errorf("%w: missing %q or %q column", ErrMalformedTraffic, "to", "traffic_out_gbps")
	}

	var matrix TrafficMatrix
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read record: %v", ErrMalformedTraffic, err)
		}
		gbps, err := strconv.ParseFloat(record[trafficCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: traffic value for %q: %v", ErrMalformedTraffic, record[destCol], err)
		}
		matrix = append(matrix, TrafficEntry{Destination: record[destCol], TrafficGbps: gbps})
	}
	if len(matrix) == 0 {
		return nil, fmt.Errorf("%w: no destinations", ErrMalformedTraffic)
	}
	return matrix, nil
}

// LoadTrafficMatrixFile opens and loads a traffic matrix from a path.
func LoadTrafficMatrixFile(path string) (TrafficMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open traffic matrix %q: %w", path, err)
	}
	defer f.Close()
	return LoadTrafficMatrix(f)
}
