package topology

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
)

const sampleGraph = `
graph [
  directed 0
  node [
    id 0
    AS "64496"
    label "frankfurt"
    ip "10.5.0.7"
    bandwidth "100 Mbit"
  ]
  node [
    id 1
    AS "64496"
    packet_loss 0.01
  ]
  node [
    id 2
  ]
  edge [
    source 0
    target 1
    latency "20 ms"
  ]
  edge [
    source 1
    target 2
  ]
]
`

func TestParseSampleGraph(t *testing.T) {
	g, err := Parse(sampleGraph)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
	if g.Flat() {
		t.Fatal("parsed graph reported as flat")
	}

	n0 := g.Node(0)
	if n0 == nil || n0.AS != "64496" || n0.IP != "10.5.0.7" || n0.Label != "frankfurt" {
		t.Fatalf("node 0 attributes wrong: %+v", n0)
	}
	if g.Node(1).PacketLoss != 0.01 {
		t.Fatalf("node 1 packet_loss = %v", g.Node(1).PacketLoss)
	}
	if g.Node(2).AS != "" {
		t.Fatal("node 2 should have no AS")
	}

	if g.Edges[0].Latency != "20 ms" {
		t.Fatalf("edge 0 latency = %q", g.Edges[0].Latency)
	}
	// Defaults fill omitted edge attributes.
	if g.Edges[1].Latency != DefaultLatency || g.Edges[1].Bandwidth != DefaultBandwidth {
		t.Fatalf("edge 1 defaults wrong: %+v", g.Edges[1])
	}

	if g.Components != 1 {
		t.Fatalf("components = %d, want 1", g.Components)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error // sentinel, or nil for a plain parse error
	}{
		{"empty input", "", nil},
		{"not a graph", "digraph [ ]", nil},
		{"unterminated string", `graph [ node [ id 0 label "oops ] ]`, nil},
		{"node without id", "graph [ node [ label \"x\" ] ]", ErrMissingNodeID},
		{"duplicate node id", "graph [ node [ id 0 ] node [ id 0 ] ]", ErrDuplicateNodeID},
		{"dangling edge", "graph [ node [ id 0 ] edge [ source 0 target 9 ] ]", ErrDanglingEdge},
		{"edge missing target", "graph [ node [ id 0 ] edge [ source 0 ] ]", ErrMissingEndpoint},
		{"attribute without value", "graph [ node [ id ] ]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error %v is not %v", err, tt.want)
			}
		})
	}
}

func TestParseErrorCarriesLine(t *testing.T) {
	input := "graph [\n  node [\n    id 0\n  ]\n  node [\n    id 0\n  ]\n]"
	_, err := Parse(input)
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GraphError, got %T: %v", err, err)
	}
	if ge.Line != 5 {
		t.Fatalf("duplicate reported at line %d, want 5", ge.Line)
	}
	if !strings.Contains(err.Error(), "line 5") {
		t.Fatalf("error text lacks line context: %v", err)
	}
}

func TestDisconnectedGraphIsWarningNotError(t *testing.T) {
	g, err := Parse("graph [ node [ id 0 ] node [ id 1 ] node [ id 2 ] edge [ source 0 target 1 ] ]")
	if err != nil {
		t.Fatalf("disconnected graph must load: %v", err)
	}
	if g.Components != 2 {
		t.Fatalf("components = %d, want 2", g.Components)
	}
}

func TestLoadFlatFallback(t *testing.T) {
	g, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !g.Flat() {
		t.Fatal("empty path should yield the flat topology")
	}
	if len(g.Nodes) != 0 {
		t.Fatal("flat topology has no explicit nodes")
	}
}

func TestLoadSnappyCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "net.gml.snappy")
	compressed := snappy.Encode(nil, []byte(sampleGraph))
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load snappy graph: %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(g.Nodes))
	}
}
