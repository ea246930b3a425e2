package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blocknetlab/shadowforge/pkg/registry"
)

const threeNodeDescription = `
params:
  discovery_mode: explicit
  duration: 1h
  seed: 42
  output_dir: /tmp/shadowforge-out
  daemon_path: /usr/bin/chaind
  wallet_path: /usr/bin/chain-wallet-rpc
agents:
  - name: node
    role: daemon
    count: 3
`

func TestCompileThreeNodeNetwork(t *testing.T) {
	c := New(nil, nil)
	res, err := c.Compile([]byte(threeNodeDescription))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(res.Agents) != 3 {
		t.Fatalf("got %d agents, want 3", len(res.Agents))
	}

	// Every agent resolves to a unique private-range address.
	seen := map[string]bool{}
	for _, a := range res.Agents {
		addr, err := netip.ParseAddr(a.IP)
		if err != nil {
			t.Fatalf("agent %s ip %q: %v", a.ID, a.IP, err)
		}
		if !addr.IsPrivate() {
			t.Fatalf("agent %s got non-private address %s", a.ID, a.IP)
		}
		if seen[a.IP] {
			t.Fatalf("address %s assigned twice", a.IP)
		}
		seen[a.IP] = true
	}

	// Default template links each daemon only to earlier-declared ones.
	index := map[string]int{}
	for i, a := range res.Agents {
		index[a.ID] = i
	}
	for owner, peers := range res.Plan.Peers {
		for _, p := range peers {
			if index[p] >= index[owner] {
				t.Fatalf("agent %s peers forward with %s", owner, p)
			}
		}
	}

	// The emitted simulator config names all three hosts.
	cfg := string(res.SimConfig)
	for i := 0; i < 3; i++ {
		if !strings.Contains(cfg, fmt.Sprintf("node-%03d:", i)) {
			t.Fatalf("host node-%03d missing from config:\n%s", i, cfg)
		}
	}
	if !strings.Contains(cfg, "stop_time: 3600s") {
		t.Fatal("simulation duration missing from config")
	}
}

func TestCompileIsByteIdentical(t *testing.T) {
	input := []byte(threeNodeDescription)

	first, err := New(nil, nil).Compile(input)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := New(nil, nil).Compile(input)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first.SimConfig, again.SimConfig) {
			t.Fatalf("run %d: simulator config differs", i)
		}
		if first.RunID != again.RunID {
			t.Fatalf("run %d: run id differs", i)
		}
		for j := range first.Agents {
			if first.Agents[j].IP != again.Agents[j].IP {
				t.Fatalf("run %d: agent %s moved from %s to %s",
					i, first.Agents[j].ID, first.Agents[j].IP, again.Agents[j].IP)
			}
		}
	}
}

func TestCompileRejectsBadCombination(t *testing.T) {
	desc := `
params:
  discovery_mode: explicit
  topology_template: ring
  duration: 1h
  output_dir: /tmp/out
  daemon_path: /usr/bin/chaind
agents:
  - name: lonely
    role: daemon
    count: 2
`
	_, err := New(nil, nil).Compile([]byte(desc))
	if err == nil {
		t.Fatal("ring over two daemons must fail the pass")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageConnectivity {
		t.Fatalf("error not attributed to the connectivity stage: %v", err)
	}
}

func TestMinersLandInWeightTable(t *testing.T) {
	desc := `
params:
  discovery_mode: automatic
  duration: 30m
  output_dir: /tmp/out
  daemon_path: /usr/bin/chaind
agents:
  - name: miner
    role: daemon
    count: 2
    weight: 10
  - name: relay
    role: daemon
`
	res, err := New(nil, nil).Compile([]byte(desc))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Weights) != 2 {
		t.Fatalf("got %d miner rows, want 2", len(res.Weights))
	}
	for _, mw := range res.Weights {
		if mw.Weight != 10 || mw.Wallet != registry.WalletPlaceholder {
			t.Fatalf("miner row wrong: %+v", mw)
		}
	}
	// All three daemons are externally reachable.
	if len(res.Externals) != 3 {
		t.Fatalf("got %d external nodes, want 3", len(res.Externals))
	}
}

func TestWriteArtifacts(t *testing.T) {
	out := t.TempDir()
	desc := fmt.Sprintf(`
params:
  discovery_mode: explicit
  duration: 1h
  output_dir: %s
  daemon_path: /usr/bin/chaind
  wallet_path: /usr/bin/chain-wallet-rpc
agents:
  - name: trader
    role: full
    attributes:
      script: trade.py
      needs_funds: "true"
  - name: relay
    role: daemon
`, out)

	c := New(nil, nil)
	res, err := c.Compile([]byte(desc))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.WriteArtifacts(res); err != nil {
		t.Fatal(err)
	}

	// Simulator config in place.
	if _, err := os.Stat(filepath.Join(out, SimConfigFile)); err != nil {
		t.Fatalf("simulator config missing: %v", err)
	}

	// The behavior wrapper is executable.
	info, err := os.Stat(filepath.Join(out, "scripts", "trader_behavior.sh"))
	if err != nil {
		t.Fatalf("wrapper script missing: %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("wrapper not executable: %v", info.Mode())
	}

	// Registries land under the coordination directory default.
	roster, err := registry.ReadRoster(filepath.Join(out, "shared"))
	if err != nil {
		t.Fatalf("roster unreadable: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster has %d entries, want 2", len(roster))
	}
	if roster[0].ID != "trader" || roster[0].Attributes["needs_funds"] != "true" {
		t.Fatalf("roster entry wrong: %+v", roster[0])
	}
}

func TestCompileWritesNothing(t *testing.T) {
	out := t.TempDir()
	desc := fmt.Sprintf(`
params:
  discovery_mode: explicit
  duration: 1h
  output_dir: %s
  daemon_path: /usr/bin/chaind
agents:
  - name: node
    role: daemon
    count: 2
`, out)

	if _, err := New(nil, nil).Compile([]byte(desc)); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("compile alone wrote %d entries to the output directory", len(entries))
	}
}
