// Package placement distributes the agent list across topology graph
// nodes. Nodes sharing an AS id form one group; a node without an AS id
// is a group of its own, never silently merged with others. With several
// groups, agents are split proportionally to group size with
// largest-remainder rounding so the totals always match exactly; with a
// single group they are dealt round-robin; with no loaded topology there
// is nothing to place.
package placement

import (
	"fmt"

	"github.com/blocknetlab/shadowforge/pkg/logging"
	"github.com/blocknetlab/shadowforge/pkg/topology"
)

// Placement is the resolved location of one agent.
type Placement struct {
	NodeID int
	Region string // AS id when the node has one, "" otherwise
}

// Result maps agent id to its placement. Agents absent from the map run
// on the flat topology.
type Result map[string]Placement

type group struct {
	key   string
	as    string
	nodes []*topology.Node
}

// Place assigns agents (in the given order) to graph nodes.
func Place(agentIDs []string, g *topology.Graph, logger logging.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	res := make(Result)
	if g == nil || g.Flat() || len(g.Nodes) == 0 {
		return res, nil
	}

	groups := groupByAS(g)
	if len(groups) == 1 {
		// Single group: plain round robin across its nodes.
		nodes := groups[0].nodes
		for i, id := range agentIDs {
			n := nodes[i%len(nodes)]
			res[id] = Placement{NodeID: n.ID, Region: n.AS}
		}
		return res, nil
	}

	quotas := apportion(len(agentIDs), groups)
	next := 0
	for gi, grp := range groups {
		for k := 0; k < quotas[gi]; k++ {
			n := grp.nodes[k%len(grp.nodes)]
			res[agentIDs[next]] = Placement{NodeID: n.ID, Region: n.AS}
			next++
		}
	}
	if next != len(agentIDs) {
		// Quota arithmetic is exact by construction; this is a bug trap.
		return nil, fmt.Errorf("placement assigned %d of %d agents", next, len(agentIDs))
	}

	logger.Debug("agents placed across AS groups",
		logging.Stage("placement"),
		logging.Int("groups", len(groups)),
		logging.Count(len(agentIDs)),
	)
	return res, nil
}

// groupByAS partitions nodes into AS groups in first-appearance order.
func groupByAS(g *topology.Graph) []group {
	var groups []group
	index := make(map[string]int)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		key := "as:" + n.AS
		if n.AS == "" {
			// Singleton group per AS-less node.
			key = fmt.Sprintf("node:%d", n.ID)
		}
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, group{key: key, as: n.AS})
		}
		groups[gi].nodes = append(groups[gi].nodes, n)
	}
	return groups
}

// apportion splits total agents across groups proportionally to node
// count using the largest-remainder method. Remainder ties go to the
// earlier group, which keeps the result deterministic.
func apportion(total int, groups []group) []int {
	sum := 0
	for _, g := range groups {
		sum += len(g.nodes)
	}
	quotas := make([]int, len(groups))
	remainders := make([]int, len(groups))
	assigned := 0
	for i, g := range groups {
		exact := total * len(g.nodes)
		quotas[i] = exact / sum
		remainders[i] = exact % sum
		assigned += quotas[i]
	}
	for assigned < total {
		best := 0
		for i := 1; i < len(remainders); i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		quotas[best]++
		remainders[best] = -1
		assigned++
	}
	return quotas
}
