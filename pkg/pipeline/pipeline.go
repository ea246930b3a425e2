// Package pipeline orchestrates the whole compile pass: topology load,
// placement, address allocation, connectivity synthesis, process and
// timing generation, and registry emission. The pass is single-threaded
// and processes agents in declaration order; identical inputs produce
// byte-identical artifacts. Everything is computed in memory first, so a
// hard error anywhere aborts with no output written.
package pipeline

import (
	"fmt"
	"time"

	"github.com/blocknetlab/shadowforge/pkg/addressing"
	"github.com/blocknetlab/shadowforge/pkg/connectivity"
	"github.com/blocknetlab/shadowforge/pkg/logging"
	"github.com/blocknetlab/shadowforge/pkg/metrics"
	"github.com/blocknetlab/shadowforge/pkg/netdesc"
	"github.com/blocknetlab/shadowforge/pkg/placement"
	"github.com/blocknetlab/shadowforge/pkg/registry"
	"github.com/blocknetlab/shadowforge/pkg/schedule"
	"github.com/blocknetlab/shadowforge/pkg/simconfig"
	"github.com/blocknetlab/shadowforge/pkg/topology"
)

// Compiler runs compile passes. One Compiler may run many passes; all
// per-pass state lives in the pass, never on the Compiler.
type Compiler struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a Compiler.
func New(logger logging.Logger, m *metrics.Registry) *Compiler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Compiler{logger: logger, metrics: m}
}

// Result is everything one successful pass produced, still in memory.
type Result struct {
	Desc      *netdesc.Description
	Agents    []*netdesc.Agent
	Graph     *topology.Graph
	Plan      *connectivity.Plan
	Schedules []*schedule.AgentSchedule
	SimConfig []byte
	Roster    []registry.RosterEntry
	Weights   []registry.MinerWeight
	Externals []registry.ExternalNode
	RunID     string
}

// Compile resolves the whole network from raw description bytes without
// writing anything. WriteArtifacts commits a Result to disk.
func (c *Compiler) Compile(descData []byte) (*Result, error) {
	desc, agents, err := netdesc.Parse(descData)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Desc:   desc,
		Agents: agents,
		RunID:  registry.RunID(descData, desc.Params.Seed),
	}

	// Stage 1: topology.
	start := time.Now()
	res.Graph, err = topology.Load(desc.Params.GraphPath, c.logger)
	if err != nil {
		c.metrics.RecordStageError(StageTopology)
		return nil, stageError(StageTopology, err)
	}
	if res.Graph.Components > 1 {
		c.metrics.RecordWarning("disconnected_graph")
	}
	c.metrics.ObserveStage(StageTopology, time.Since(start))

	// Stage 3 runs before stage 2 hands out addresses, since the chain
	// inspects each agent's placed node. Declaration order throughout.
	start = time.Now()
	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}
	placed, err := placement.Place(ids, res.Graph, c.logger)
	if err != nil {
		c.metrics.RecordStageError(StagePlacement)
		return nil, stageError(StagePlacement, err)
	}
	c.metrics.ObserveStage(StagePlacement, time.Since(start))

	// Stage 2: address allocation, exactly once per agent, in order.
	start = time.Now()
	state := addressing.NewAllocationState(c.logger)
	for i, a := range agents {
		req := addressing.Request{AgentID: a.ID, SubnetGroup: a.SubnetGroup}
		if pl, ok := placed[a.ID]; ok {
			a.NodeID = pl.NodeID
			a.Region = pl.Region
			if n := res.Graph.Node(pl.NodeID); n != nil {
				req.NodeIP = n.IP
				req.NodeAS = n.AS
			}
		}
		alloc, err := state.Allocate(req)
		if err != nil {
			c.metrics.RecordStageError(StageAddressing)
			return nil, stageError(StageAddressing, err)
		}
		a.IP = alloc.Addr.String()
		if a.Region == "" {
			a.Region = alloc.Region
		}
		a.P2PPort = desc.Params.P2PPortBase + i
		a.RPCPort = desc.Params.RPCPortBase + i
		a.WalletPort = desc.Params.WalletPortBase + i
		c.metrics.RecordAllocation(alloc.Rule)
	}
	asMinted, groupMinted := state.MintedBlocks()
	c.metrics.BlocksMinted.WithLabelValues("as").Add(float64(asMinted))
	c.metrics.BlocksMinted.WithLabelValues("group").Add(float64(groupMinted))
	c.metrics.ObserveStage(StageAddressing, time.Since(start))

	// Stage 4: connectivity.
	start = time.Now()
	mode, err := connectivity.ParseMode(desc.Params.DiscoveryMode)
	if err != nil {
		return nil, stageError(StageConnectivity, err)
	}
	tmpl, err := connectivity.ParseTemplate(desc.Params.Template)
	if err != nil {
		return nil, stageError(StageConnectivity, err)
	}
	res.Plan, err = connectivity.Synthesize(mode, tmpl, agents, desc.Params.SeedNodes, c.logger)
	if err != nil {
		c.metrics.RecordStageError(StageConnectivity)
		return nil, stageError(StageConnectivity, err)
	}
	c.metrics.ObserveStage(StageConnectivity, time.Since(start))

	// Stage 5: processes and timing.
	start = time.Now()
	endpoint := make(map[string]string)
	remoteDaemon := ""
	for _, a := range agents {
		if a.Role.HasDaemon() {
			endpoint[a.ID] = fmt.Sprintf("%s:%d", a.IP, a.P2PPort)
			if remoteDaemon == "" {
				remoteDaemon = fmt.Sprintf("%s:%d", a.IP, a.RPCPort)
			}
		}
	}
	gen := schedule.NewGenerator(&desc.Params, res.Plan, endpoint, remoteDaemon, c.logger)
	for _, a := range agents {
		sched, err := gen.Generate(a)
		if err != nil {
			c.metrics.RecordStageError(StageSchedule)
			return nil, stageError(StageSchedule, err)
		}
		res.Schedules = append(res.Schedules, sched)
	}
	c.metrics.ObserveStage(StageSchedule, time.Since(start))

	// Stage 6 inputs: registries, built in memory.
	res.Roster, res.Weights, res.Externals = buildRegistries(agents)

	// Simulator config.
	start = time.Now()
	cfg, err := simconfig.Build(&desc.Params, agents, res.Schedules, res.Graph)
	if err != nil {
		return nil, stageError(StageEmit, err)
	}
	res.SimConfig, err = cfg.Marshal()
	if err != nil {
		return nil, stageError(StageEmit, err)
	}
	c.metrics.ObserveStage(StageEmit, time.Since(start))

	c.metrics.AgentsCompiled.Set(float64(len(agents)))
	c.logger.Info("network compiled",
		logging.Count(len(agents)),
		logging.String("run_id", res.RunID),
	)
	return res, nil
}

// buildRegistries derives the three coordination tables from the
// resolved agents, in declaration order.
func buildRegistries(agents []*netdesc.Agent) ([]registry.RosterEntry, []registry.MinerWeight, []registry.ExternalNode) {
	roster := make([]registry.RosterEntry, 0, len(agents))
	var weights []registry.MinerWeight
	var externals []registry.ExternalNode

	for _, a := range agents {
		entry := registry.RosterEntry{
			ID:     a.ID,
			IP:     a.IP,
			Daemon: a.Role.HasDaemon(),
			Wallet: a.Role.HasWallet(),
			Script: a.Role.HasScript(),
			Miner:  a.IsMiner(),
		}
		if entry.Daemon {
			entry.P2PPort = a.P2PPort
			entry.RPCPort = a.RPCPort
		}
		if entry.Wallet {
			entry.WalletPort = a.WalletPort
		}
		if len(a.Attrs) > 0 {
			entry.Attributes = make(map[string]string, len(a.Attrs))
			for _, kv := range a.Attrs {
				entry.Attributes[kv.Key] = kv.Value
			}
		}
		roster = append(roster, entry)

		if a.IsMiner() {
			weights = append(weights, registry.MinerWeight{
				ID:     a.ID,
				IP:     a.IP,
				Wallet: registry.WalletPlaceholder,
				Weight: a.Weight,
			})
		}
		if a.Role.HasDaemon() {
			externals = append(externals, registry.ExternalNode{
				ID:      a.ID,
				IP:      a.IP,
				RPCPort: a.RPCPort,
			})
		}
	}
	return roster, weights, externals
}
