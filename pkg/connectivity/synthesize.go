// Package connectivity builds the initial peer graph of the simulated
// network: per-daemon explicit peer lists under a topology template, seed
// ordering for automatic discovery, and the miner ring that keeps the
// mining subnetwork connected no matter which template is chosen.
package connectivity

import (
	"github.com/blocknetlab/shadowforge/pkg/logging"
	"github.com/blocknetlab/shadowforge/pkg/netdesc"
)

// Plan is the synthesized connectivity of one compile pass.
type Plan struct {
	Mode     DiscoveryMode
	Template Template

	// Peers maps daemon agent id to its explicit peer list, in
	// synthesis order. Empty in automatic mode except for miner ring
	// entries.
	Peers map[string][]string

	// SeedOrder ranks daemon agents for automatic discovery: miners
	// first, heavier weights first, declaration order on ties.
	SeedOrder []string

	// ExtraSeeds are user-supplied seed addresses merged into every
	// daemon's peer arguments in explicit mode.
	ExtraSeeds []string

	// EnableDiscoveryResponder is set in hybrid mode; an auxiliary
	// name-resolution responder fills the gaps the template leaves.
	EnableDiscoveryResponder bool
}

// Synthesize validates the mode/template combination and builds the peer
// plan over the daemon-bearing agents. Agents without a daemon never
// appear in peer lists.
func Synthesize(mode DiscoveryMode, tmpl Template, agents []*netdesc.Agent, extraSeeds []string, logger logging.Logger) (*Plan, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	daemons := daemonAgents(agents)
	if err := ValidateCombo(mode, tmpl, len(daemons)); err != nil {
		return nil, err
	}
	if tmpl == Mesh && mode != Automatic && len(daemons) > MeshWarnLimit {
		logger.Warn("full mesh over a large network",
			logging.Stage("connectivity"),
			logging.Int("daemons", len(daemons)),
			logging.Int("connections", len(daemons)*(len(daemons)-1)/2),
		)
	}

	plan := &Plan{
		Mode:     mode,
		Template: tmpl,
		Peers:    make(map[string][]string),
	}

	switch mode {
	case Automatic:
		plan.SeedOrder = seedOrder(daemons)
	case Explicit:
		applyTemplate(plan, tmpl, daemons)
		plan.ExtraSeeds = append(plan.ExtraSeeds, extraSeeds...)
	case Hybrid:
		applyTemplate(plan, tmpl, daemons)
		plan.EnableDiscoveryResponder = true
	}

	// The miner ring applies regardless of mode and template so block
	// propagation between miners never depends on discovery luck.
	addMinerRing(plan, daemons)

	logger.Info("peer connectivity synthesized",
		logging.Stage("connectivity"),
		logging.String("mode", mode.String()),
		logging.String("template", tmpl.String()),
		logging.Int("daemons", len(daemons)),
	)
	return plan, nil
}

func daemonAgents(agents []*netdesc.Agent) []*netdesc.Agent {
	var out []*netdesc.Agent
	for _, a := range agents {
		if a.Role.HasDaemon() {
			out = append(out, a)
		}
	}
	return out
}

// applyTemplate fills plan.Peers for each daemon per the template.
func applyTemplate(plan *Plan, tmpl Template, daemons []*netdesc.Agent) {
	n := len(daemons)
	switch tmpl {
	case HubSpoke:
		for i := 1; i < n; i++ {
			addPeer(plan, daemons[i].ID, daemons[0].ID)
		}
	case Mesh:
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i != j {
					addPeer(plan, daemons[i].ID, daemons[j].ID)
				}
			}
		}
	case Ring:
		for i := 0; i < n; i++ {
			addPeer(plan, daemons[i].ID, daemons[(i+1)%n].ID)
		}
	case DAG:
		// Each agent links back to a small fixed set of earlier
		// agents: its predecessor, the midpoint and the root.
		for i := 1; i < n; i++ {
			addPeer(plan, daemons[i].ID, daemons[i-1].ID)
			addPeer(plan, daemons[i].ID, daemons[i/2].ID)
			addPeer(plan, daemons[i].ID, daemons[0].ID)
		}
	}
}

// addMinerRing cross-connects the mining agents in a ring.
func addMinerRing(plan *Plan, daemons []*netdesc.Agent) {
	var miners []*netdesc.Agent
	for _, a := range daemons {
		if a.IsMiner() {
			miners = append(miners, a)
		}
	}
	if len(miners) < 2 {
		return
	}
	for i := range miners {
		addPeer(plan, miners[i].ID, miners[(i+1)%len(miners)].ID)
	}
}

// addPeer appends target to owner's list, skipping self-links and
// duplicates while preserving insertion order.
func addPeer(plan *Plan, owner, target string) {
	if owner == target {
		return
	}
	for _, p := range plan.Peers[owner] {
		if p == target {
			return
		}
	}
	plan.Peers[owner] = append(plan.Peers[owner], target)
}

// seedOrder ranks daemons for automatic discovery. Stable: ties keep
// declaration order.
func seedOrder(daemons []*netdesc.Agent) []string {
	ranked := make([]*netdesc.Agent, len(daemons))
	copy(ranked, daemons)
	// Insertion sort keeps the ordering stable without pulling in a
	// comparator dance for four lines of logic.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Weight > ranked[j-1].Weight; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	out := make([]string, len(ranked))
	for i, a := range ranked {
		out[i] = a.ID
	}
	return out
}
