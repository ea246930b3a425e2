package topology

// Node is one vertex of the loaded network graph. Immutable once loaded.
type Node struct {
	ID            int
	AS            string
	IP            string
	Label         string
	CountryCode   string
	Bandwidth     string
	BandwidthUp   string
	BandwidthDown string
	PacketLoss    float64
	Longitude     float64
	Latitude      float64

	line int
}

// Edge is one link of the loaded network graph. Immutable once loaded.
type Edge struct {
	Source     int
	Target     int
	Latency    string
	Bandwidth  string
	PacketLoss float64

	line int
}

// Edge attribute defaults, applied when the graph text omits them.
const (
	DefaultLatency   = "10 ms"
	DefaultBandwidth = "1000 Mbit"
)

// Graph is a validated topology. A flat graph stands in when no graph
// file was supplied: one implicit switch, no AS structure.
type Graph struct {
	Nodes []Node
	Edges []Edge

	// Components is the number of connected components found during
	// validation. More than one is legal but worth a warning.
	Components int

	flat bool
	byID map[int]*Node
}

// Flat reports whether this graph is the implicit single-switch fallback.
func (g *Graph) Flat() bool {
	return g.flat
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id int) *Node {
	return g.byID[id]
}

// NewFlat returns the fallback topology used when no graph file is given.
func NewFlat() *Graph {
	return &Graph{flat: true, byID: map[int]*Node{}, Components: 1}
}

func (g *Graph) index() {
	g.byID = make(map[int]*Node, len(g.Nodes))
	for i := range g.Nodes {
		g.byID[g.Nodes[i].ID] = &g.Nodes[i]
	}
}
