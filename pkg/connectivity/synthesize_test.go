package connectivity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blocknetlab/shadowforge/pkg/netdesc"
)

func daemons(n int) []*netdesc.Agent {
	agents := make([]*netdesc.Agent, n)
	for i := range agents {
		agents[i] = &netdesc.Agent{
			ID:   fmt.Sprintf("node-%03d", i),
			Role: netdesc.RoleDaemon,
		}
	}
	return agents
}

func TestTemplateMinimumCounts(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    Template
		count   int
		wantErr bool
	}{
		{"hub_spoke rejects one agent", HubSpoke, 1, true},
		{"hub_spoke accepts two", HubSpoke, 2, false},
		{"ring rejects two agents", Ring, 2, true},
		{"ring accepts three", Ring, 3, false},
		{"mesh accepts one", Mesh, 1, false},
		{"mesh accepts fifty-one with warning", Mesh, 51, false},
		{"dag accepts any count", DAG, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Synthesize(Explicit, tt.tmpl, daemons(tt.count), nil, nil)
			if tt.wantErr {
				if !errors.Is(err, ErrTooFewAgents) {
					t.Fatalf("want ErrTooFewAgents, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestHubSpokeTemplate(t *testing.T) {
	plan, err := Synthesize(Explicit, HubSpoke, daemons(4), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Peers["node-000"]) != 0 {
		t.Fatal("hub must not list spokes as peers")
	}
	for i := 1; i < 4; i++ {
		peers := plan.Peers[fmt.Sprintf("node-%03d", i)]
		if len(peers) != 1 || peers[0] != "node-000" {
			t.Fatalf("spoke %d peers = %v", i, peers)
		}
	}
}

func TestRingTemplateWraps(t *testing.T) {
	plan, err := Synthesize(Explicit, Ring, daemons(3), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := plan.Peers["node-002"]; len(got) != 1 || got[0] != "node-000" {
		t.Fatalf("last ring member peers = %v, want wrap to node-000", got)
	}
}

func TestDAGLinksOnlyEarlierAgents(t *testing.T) {
	plan, err := Synthesize(Explicit, DAG, daemons(10), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	index := map[string]int{}
	for i := 0; i < 10; i++ {
		index[fmt.Sprintf("node-%03d", i)] = i
	}
	for owner, peers := range plan.Peers {
		for _, p := range peers {
			if index[p] >= index[owner] {
				t.Fatalf("agent %s links forward to %s", owner, p)
			}
		}
	}
	if len(plan.Peers["node-000"]) != 0 {
		t.Fatal("root must have no DAG links")
	}
}

func TestMeshAllPairs(t *testing.T) {
	plan, err := Synthesize(Explicit, Mesh, daemons(4), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if got := len(plan.Peers[fmt.Sprintf("node-%03d", i)]); got != 3 {
			t.Fatalf("mesh member %d has %d peers, want 3", i, got)
		}
	}
}

func TestMinerRingOverlaysTemplate(t *testing.T) {
	agents := daemons(5)
	agents[1].Weight = 10
	agents[3].Weight = 5

	plan, err := Synthesize(Explicit, HubSpoke, agents, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Miners 1 and 3 link each other on top of the hub-spoke edges.
	if !hasPeer(plan, "node-001", "node-003") || !hasPeer(plan, "node-003", "node-001") {
		t.Fatalf("miner ring missing: %v", plan.Peers)
	}
}

func TestScriptOnlyAgentsExcluded(t *testing.T) {
	agents := daemons(3)
	agents = append(agents, &netdesc.Agent{ID: "watcher", Role: netdesc.RoleScript})

	plan, err := Synthesize(Explicit, Mesh, agents, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := plan.Peers["watcher"]; ok {
		t.Fatal("script-only agent must not get a peer list")
	}
	for owner, peers := range plan.Peers {
		if hasString(peers, "watcher") {
			t.Fatalf("agent %s peers with script-only watcher", owner)
		}
	}
}

func TestAutomaticModeSeedOrder(t *testing.T) {
	agents := daemons(4)
	agents[2].Weight = 100
	agents[3].Weight = 50

	plan, err := Synthesize(Automatic, DAG, agents, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Heaviest miner first, then by weight, ties in declaration order.
	want := []string{"node-002", "node-003", "node-000", "node-001"}
	for i, id := range want {
		if plan.SeedOrder[i] != id {
			t.Fatalf("seed order = %v, want %v", plan.SeedOrder, want)
		}
	}
	// Automatic mode synthesizes no template edges, only the miner ring.
	if len(plan.Peers["node-001"]) != 0 {
		t.Fatalf("non-miner got explicit peers in automatic mode: %v", plan.Peers)
	}
}

func TestHybridEnablesResponder(t *testing.T) {
	plan, err := Synthesize(Hybrid, DAG, daemons(3), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !plan.EnableDiscoveryResponder {
		t.Fatal("hybrid mode must enable the discovery responder")
	}
	if len(plan.Peers) == 0 {
		t.Fatal("hybrid mode must still synthesize template connections")
	}
}

func TestExplicitModeMergesSeeds(t *testing.T) {
	plan, err := Synthesize(Explicit, DAG, daemons(3), []string{"203.0.113.5:28080"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.ExtraSeeds) != 1 || plan.ExtraSeeds[0] != "203.0.113.5:28080" {
		t.Fatalf("extra seeds = %v", plan.ExtraSeeds)
	}
}

func hasPeer(plan *Plan, owner, target string) bool {
	return hasString(plan.Peers[owner], target)
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
