package scenariogen

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/ixplabs/egresssim/core"
	"github.com/ixplabs/egresssim/internal/logging"
	"github.com/ixplabs/egresssim/model"
)

// Base cost tiers by link capacity (Gbps) and type, in currency units per
// billing period. Variable costs are per Gbps.
const (
	baseTransitCost10G  = 2000
	baseTransitCost100G = 10000
	baseTransitCost400G = 30000
	basePeeringPortCost = 500

	defaultHostUplinkGbps = 100

	baseLatencyMS = 10.0
	stepLatencyMS = 5.0
)

// defaultNameMap translates graph neighbor names to the destination names
// used by the traffic matrix export.
var defaultNameMap = map[string]string{
	"géant":     "geant",
	"ams-ix":    "amsix",
	"de-cix":    "decix",
	"belwü":     "belwue2",
	"cern":      "cern",
	"interxion": "interxion",
	"swissix":   "swissix",
	"cixp":      "cixp",
	"cogent":    "cogent",
	"lumen":     "lumen",
	"level3":    "level3",
	"telia":     "telia",
	"tix":       "tix",
}

// Options steer one scenario generation.
type Options struct {
	// TrafficIncreaseFactor scales every destination's demand. Zero means 1.
	TrafficIncreaseFactor float64
	// CostDifferenceFactor is the transit variable-cost multiplier relative
	// to peering. Zero means 3.5.
	CostDifferenceFactor float64
	// PreferPeering removes peering-reachable destinations from transit
	// reachability entirely. This is a hard reachability edit applied at
	// construction time, not a runtime routing bias.
	PreferPeering bool
	// Cost overrides; nil keeps the capacity-tiered defaults.
	TransitBaseCost     *float64
	PeeringBaseCost     *float64
	PeeringVariableCost *float64
	// UseWorstCaseLinks reassigns latencies so the lowest-capacity link to
	// each destination carries the lowest latency, the adversarial case for
	// latency-greedy allocators.
	UseWorstCaseLinks bool
	// LatencyInflation, when set, reassigns latencies per destination with a
	// randomly chosen best path at 10ms, the second-best at 10ms times the
	// factor, and later ranks 5ms apart above that.
	LatencyInflation *float64
	// NameMap overrides the graph-to-traffic destination name translation.
	NameMap map[string]string
}

// Generator derives scenario files from a topology graph and a traffic
// matrix. All randomness (latency draws, cost jitter, best-path shuffles)
// comes from the seeded source, so a fixed seed reproduces the scenario.
type Generator struct {
	rng    *rand.Rand
	logger logging.Logger
}

// New builds a generator with a deterministic random source.
func New(seed int64, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), logger: logger}
}

// Generate assembles a scenario file from the graph and the traffic matrix.
func (g *Generator) Generate(ctx context.Context, graph *TopologyGraph, traffic TrafficMatrix, opts Options) (*core.ScenarioFile, error) {
	if opts.TrafficIncreaseFactor == 0 {
		opts.TrafficIncreaseFactor = 1.0
	}
	if opts.CostDifferenceFactor == 0 {
		opts.CostDifferenceFactor = 3.5
	}
	nameMap := opts.NameMap
	if nameMap == nil {
		nameMap = defaultNameMap
	}

	hosts := graph.EndHosts()
	edges := graph.EgressEdges()
	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: no internal nodes", ErrMalformedGraph)
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: no external edges", ErrMalformedGraph)
	}

	file := &core.ScenarioFile{
		EndHosts:                        hosts,
		PathsPerEndhost:                 make(map[string][]string, len(hosts)),
		PathToEgressMapping:             map[string]string{},
		EgressToDestinationReachability: make(map[string][]string, len(edges)),
		EndhostUplinks:                  make(map[string]float64, len(hosts)),
		EgressCapacities:                make(map[string]float64, len(edges)),
		EgressCosts:                     make(map[string]float64, len(edges)),
		EgressBaseCosts:                 make(map[string]float64, len(edges)),
		EgressLatencies:                 make(map[string]float64, len(edges)),
		EgressTypes:                     make(map[string]string, len(edges)),
		TrafficPerDestination:           make(map[string]float64, len(traffic)),
	}

	for _, entry := range traffic {
		file.Destinations = append(file.Destinations, entry.Destination)
		file.TrafficPerDestination[entry.Destination] = entry.TrafficGbps * opts.TrafficIncreaseFactor
	}
	destSet := make(map[string]bool, len(file.Destinations))
	for _, d := range file.Destinations {
		destSet[d] = true
	}

	// Reachability: a peering link reaches only its directly connected peer;
	// a transit link reaches every peering destination plus its own neighbor.
	var peeringDests []string
	peeringSet := map[string]bool{}
	for _, e := range edges {
		if model.ParseLinkType(e.LinkType) != model.LinkTypePeering {
			continue
		}
		dest := translate(nameMap, e.To)
		if destSet[dest] && !peeringSet[dest] {
			peeringSet[dest] = true
			peeringDests = append(peeringDests, dest)
		}
	}

	for _, e := range edges {
		file.EgressTypes[e.ID] = model.ParseLinkType(e.LinkType).String()
		dest := translate(nameMap, e.To)
		if model.ParseLinkType(e.LinkType) == model.LinkTypePeering {
			if destSet[dest] {
				file.EgressToDestinationReachability[e.ID] = []string{dest}
			} else {
				file.EgressToDestinationReachability[e.ID] = []string{}
			}
			continue
		}
		reach := make([]string, len(peeringDests))
		copy(reach, peeringDests)
		if destSet[dest] && !peeringSet[dest] {
			reach = append(reach, dest)
		}
		file.EgressToDestinationReachability[e.ID] = reach
	}

	if opts.PreferPeering {
		for _, e := range edges {
			if model.ParseLinkType(e.LinkType) != model.LinkTypeTransit {
				continue
			}
			var filtered []string
			for _, d := range file.EgressToDestinationReachability[e.ID] {
				if !peeringSet[d] {
					filtered = append(filtered, d)
				}
			}
			file.EgressToDestinationReachability[e.ID] = filtered
		}
		g.logger.Info(ctx, "prefer-peering enabled, peering destinations removed from transit reachability",
			logging.Int("peering_destinations", len(peeringDests)))
	}

	// Capacities, latencies, and cost tiers.
	for _, e := range edges {
		capacity, err := e.CapacityGbps()
		if err != nil {
			return nil, err
		}
		file.EgressCapacities[e.ID] = capacity

		if model.ParseLinkType(e.LinkType) == model.LinkTypeTransit {
			file.EgressLatencies[e.ID] = g.uniform(50, 70)
			file.EgressCosts[e.ID] = opts.CostDifferenceFactor * g.uniform(0.9, 1.1)
			if opts.TransitBaseCost != nil {
				file.EgressBaseCosts[e.ID] = *opts.TransitBaseCost
			} else {
				switch {
				case capacity <= 10:
					file.EgressBaseCosts[e.ID] = baseTransitCost10G
				case capacity <= 100:
					file.EgressBaseCosts[e.ID] = baseTransitCost100G
				default:
					file.EgressBaseCosts[e.ID] = baseTransitCost400G
				}
			}
		} else {
			file.EgressLatencies[e.ID] = g.uniform(10, 20)
			jitter := g.uniform(0.9, 1.1)
			if opts.PeeringVariableCost != nil {
				file.EgressCosts[e.ID] = *opts.PeeringVariableCost * jitter
			} else {
				file.EgressCosts[e.ID] = jitter
			}
			if opts.PeeringBaseCost != nil {
				file.EgressBaseCosts[e.ID] = *opts.PeeringBaseCost
			} else {
				file.EgressBaseCosts[e.ID] = basePeeringPortCost
			}
		}
	}

	for _, e := range edges {
		file.EgressInterfaces = append(file.EgressInterfaces, e.ID)
	}

	if opts.UseWorstCaseLinks {
		g.applyWorstCaseLatencies(file)
		g.logger.Info(ctx, "worst-case latencies assigned by link capacity")
	}
	if opts.LatencyInflation != nil {
		g.applyLatencyInflation(file, *opts.LatencyInflation)
		g.logger.Info(ctx, "latencies adjusted for inflation",
			logging.Float64("latency_inflation", *opts.LatencyInflation))
	}

	// Full path mesh: every host gets one path per egress.
	for _, h := range hosts {
		file.EndhostUplinks[h] = defaultHostUplinkGbps
		for _, e := range edges {
			pathID := fmt.Sprintf("p_%s_%s", h, e.ID)
			file.PathsPerEndhost[h] = append(file.PathsPerEndhost[h], pathID)
			file.PathToEgressMapping[pathID] = e.ID
		}
	}

	g.logger.Debug(ctx, "scenario generated",
		logging.Int("hosts", len(hosts)),
		logging.Int("egresses", len(edges)),
		logging.Int("destinations", len(file.Destinations)))
	return file, nil
}

// applyWorstCaseLatencies gives the lowest-capacity link to each destination
// the lowest latency (10, 11, 12, ...). A link reachable from several
// destinations keeps the minimum it was assigned anywhere, so a link that is
// someone's best stays attractive.
func (g *Generator) applyWorstCaseLatencies(file *core.ScenarioFile) {
	assigned := map[string]float64{}
	for _, dest := range file.Destinations {
		links := linksReaching(file, dest)
		sort.SliceStable(links, func(i, j int) bool {
			return file.EgressCapacities[links[i]] < file.EgressCapacities[links[j]]
		})
		for i, id := range links {
			latency := baseLatencyMS + float64(i)
			if prev, ok := assigned[id]; !ok || latency < prev {
				assigned[id] = latency
			}
		}
	}
	for id, latency := range assigned {
		file.EgressLatencies[id] = latency
	}
}

// applyLatencyInflation picks a random best path per destination and spreads
// the rest at inflated latencies: rank 0 at the base, rank 1 at base times
// the factor, later ranks 5ms apart above that. Shared links keep the lowest
// value assigned across destinations.
func (g *Generator) applyLatencyInflation(file *core.ScenarioFile, inflation float64) {
	assigned := map[string]float64{}
	for _, dest := range file.Destinations {
		links := linksReaching(file, dest)
		if len(links) == 0 {
			continue
		}
		g.rng.Shuffle(len(links), func(i, j int) {
			links[i], links[j] = links[j], links[i]
		})
		for rank, id := range links {
			var latency float64
			switch rank {
			case 0:
				latency = baseLatencyMS
			case 1:
				latency = baseLatencyMS * inflation
			default:
				latency = baseLatencyMS*inflation + float64(rank-1)*stepLatencyMS
			}
			if prev, ok := assigned[id]; !ok || latency < prev {
				assigned[id] = latency
			}
		}
	}
	for id, latency := range assigned {
		file.EgressLatencies[id] = latency
	}
}

// linksReaching lists egress IDs that reach dest, in egress declaration order.
func linksReaching(file *core.ScenarioFile, dest string) []string {
	var out []string
	for _, id := range file.EgressInterfaces {
		for _, d := range file.EgressToDestinationReachability[id] {
			if d == dest {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func translate(nameMap map[string]string, name string) string {
	if mapped, ok := nameMap[name]; ok {
		return mapped
	}
	return name
}
