// Package schedule turns each resolved agent into its ordered OS-process
// list: daemon, then wallet after a bring-up delay, then behavior script
// after a readiness margin, with same-role agents staggered one second
// apart and fund-spending agents held back until the coinbase maturity
// window has elapsed. Upgrade phases emit one daemon process per phase.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blocknetlab/shadowforge/pkg/connectivity"
	"github.com/blocknetlab/shadowforge/pkg/logging"
	"github.com/blocknetlab/shadowforge/pkg/netdesc"
)

// Generator owns the cross-agent timing state of one compile pass:
// per-role stagger counters and the precomputed maturity window.
type Generator struct {
	params       *netdesc.RunParams
	plan         *connectivity.Plan
	endpoint     map[string]string // agent id -> ip:p2p_port
	remoteDaemon string            // rpc endpoint script-only agents attach to
	stagger      map[netdesc.Role]int
	maturity     time.Duration
	logger       logging.Logger
}

// NewGenerator creates a generator for one pass. endpoint must map every
// daemon-bearing agent id to its resolved ip:port; remoteDaemon is the
// RPC endpoint script-only agents attach to.
func NewGenerator(params *netdesc.RunParams, plan *connectivity.Plan, endpoint map[string]string, remoteDaemon string, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Generator{
		params:       params,
		plan:         plan,
		endpoint:     endpoint,
		remoteDaemon: remoteDaemon,
		stagger:      make(map[netdesc.Role]int),
		maturity:     params.MaturityWindow(),
		logger:       logger,
	}
}

// Generate builds the schedule for one agent. Must be called once per
// agent in declaration order; the stagger counters advance per call.
func (g *Generator) Generate(a *netdesc.Agent) (*AgentSchedule, error) {
	// Phase lists are validated before any process is emitted.
	if err := a.Phases.Validate(); err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.ID, err)
	}

	base := time.Duration(g.stagger[a.Role]) * RoleStagger
	g.stagger[a.Role]++

	sched := &AgentSchedule{AgentID: a.ID}

	if a.Role.HasDaemon() {
		if len(a.Phases) > 0 {
			g.daemonPhases(sched, a)
		} else {
			sched.Processes = append(sched.Processes, g.daemonProcess(a, g.params.DaemonPath, nil, base, 0))
		}
	}

	walletStart := base + g.params.DaemonBringUp.Std()
	if a.Role.HasWallet() {
		sched.Processes = append(sched.Processes, g.walletProcess(a, walletStart))
	}

	if a.Role.HasScript() {
		scriptStart := walletStart + g.params.WalletReadiness.Std()
		// Spending agents cannot act before their funds mature; the
		// window is computed from configuration, never observed live.
		if a.Attrs.GetBool("needs_funds") && scriptStart < g.maturity {
			scriptStart = g.maturity
		}
		proc, script := g.scriptProcess(a, scriptStart)
		sched.Processes = append(sched.Processes, proc)
		sched.Scripts = append(sched.Scripts, script)
	}

	g.logger.Debug("agent schedule generated",
		logging.Stage("schedule"),
		logging.AgentID(a.ID),
		logging.Int("processes", len(sched.Processes)),
	)
	return sched, nil
}

// daemonPhases emits one daemon process per upgrade phase. The stagger
// does not shift phase times: phase boundaries are absolute offsets the
// operator chose, and sliding them could close a configured gap.
func (g *Generator) daemonPhases(sched *AgentSchedule, a *netdesc.Agent) {
	for _, ph := range a.Phases {
		var extra []string
		if ph.Args != "" {
			extra = strings.Fields(ph.Args)
		}
		stop := time.Duration(0)
		if ph.Stop != nil {
			stop = ph.Stop.Std()
		}
		sched.Processes = append(sched.Processes, g.daemonProcess(a, ph.Binary, extra, ph.Start.Std(), stop))
	}
}

// daemonProcess renders the daemon CLI contract: bind address, data
// directory, ports, and the peer list from the connectivity plan.
func (g *Generator) daemonProcess(a *netdesc.Agent, path string, extraArgs []string, start, stop time.Duration) Process {
	args := []string{
		"--non-interactive",
		"--data-dir", "/home/" + a.ID + "/.chain",
		"--p2p-bind-ip", a.IP,
		"--p2p-bind-port", strconv.Itoa(a.P2PPort),
		"--rpc-bind-ip", a.IP,
		"--rpc-bind-port", strconv.Itoa(a.RPCPort),
		"--confirm-external-bind",
	}

	for _, peerID := range g.plan.Peers[a.ID] {
		if ep, ok := g.endpoint[peerID]; ok {
			args = append(args, "--add-exclusive-node", ep)
		}
	}
	if g.plan.Mode == connectivity.Explicit {
		for _, seed := range g.plan.ExtraSeeds {
			args = append(args, "--seed-node", seed)
		}
	}
	if g.plan.Mode == connectivity.Automatic {
		// Highest-priority seeds first; an agent never seeds itself.
		n := 0
		for _, seedID := range g.plan.SeedOrder {
			if seedID == a.ID || n == 3 {
				continue
			}
			if ep, ok := g.endpoint[seedID]; ok {
				args = append(args, "--seed-node", ep)
				n++
			}
		}
	}
	if g.plan.EnableDiscoveryResponder {
		args = append(args, "--allow-dns-seed")
	}
	args = append(args, extraArgs...)

	return Process{
		Path:        path,
		Args:        args,
		Env:         []EnvVar{{Key: "HOME", Value: "/home/" + a.ID}},
		StartOffset: start,
		StopOffset:  stop,
	}
}

// walletProcess renders the wallet CLI contract, attached to the agent's
// own daemon.
func (g *Generator) walletProcess(a *netdesc.Agent, start time.Duration) Process {
	args := []string{
		"--daemon-address", fmt.Sprintf("%s:%d", a.IP, a.RPCPort),
		"--rpc-bind-ip", a.IP,
		"--rpc-bind-port", strconv.Itoa(a.WalletPort),
		"--wallet-dir", "/home/" + a.ID + "/wallet",
		"--disable-rpc-login",
		"--trusted-daemon",
	}
	return Process{
		Path:        g.params.WalletPath,
		Args:        args,
		Env:         []EnvVar{{Key: "HOME", Value: "/home/" + a.ID}},
		StartOffset: start,
	}
}

// scriptProcess renders the behavior-script wrapper and its process. The
// script itself is opaque: it is referenced by the "script" attribute and
// receives the whole attribute map through its environment.
func (g *Generator) scriptProcess(a *netdesc.Agent, start time.Duration) (Process, Script) {
	wrapper := a.ID + "_behavior.sh"
	content := renderWrapper(g, a)

	daemonRPC := fmt.Sprintf("%s:%d", a.IP, a.RPCPort)
	if !a.Role.HasDaemon() {
		daemonRPC = g.remoteDaemon
	}
	env := []EnvVar{
		{Key: "AGENT_ID", Value: a.ID},
		{Key: "AGENT_IP", Value: a.IP},
		{Key: "DAEMON_RPC", Value: daemonRPC},
		{Key: "WALLET_RPC", Value: fmt.Sprintf("%s:%d", a.IP, a.WalletPort)},
		{Key: "COORD_DIR", Value: g.params.CoordDir},
	}

	return Process{
			Path:        "/bin/bash",
			Args:        []string{g.params.ScriptDir + "/" + wrapper},
			Env:         env,
			StartOffset: start,
		}, Script{
			Name:    wrapper,
			Content: content,
		}
}
