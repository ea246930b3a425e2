package topology

// validate runs the structural checks in a fixed order: unique node ids
// first, then edge endpoint resolution, then the component count. The
// first two are hard errors; the component count is recorded for the
// caller to warn on.
func (g *Graph) validate() error {
	seen := make(map[int]int, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			return nodeError(n.ID, n.line, ErrDuplicateNodeID)
		}
		seen[n.ID] = n.line
	}
	g.index()

	for i, e := range g.Edges {
		if g.Node(e.Source) == nil || g.Node(e.Target) == nil {
			return edgeError(i, e.line, ErrDanglingEdge)
		}
	}

	g.Components = g.countComponents()
	return nil
}

// countComponents runs union-find over the edge list.
func (g *Graph) countComponents() int {
	if len(g.Nodes) == 0 {
		return 0
	}
	parent := make(map[int]int, len(g.Nodes))
	for _, n := range g.Nodes {
		parent[n.ID] = n.ID
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, e := range g.Edges {
		rs, rt := find(e.Source), find(e.Target)
		if rs != rt {
			parent[rs] = rt
		}
	}
	roots := make(map[int]struct{})
	for _, n := range g.Nodes {
		roots[find(n.ID)] = struct{}{}
	}
	return len(roots)
}
