package netdesc

import (
	"time"
)

// RunParams are the global parameters of one compile pass.
type RunParams struct {
	// Discovery and connectivity
	DiscoveryMode string   `yaml:"discovery_mode" validate:"required,oneof=automatic explicit hybrid"`
	Template      string   `yaml:"topology_template" validate:"omitempty,oneof=hub_spoke mesh ring dag"`
	SeedNodes     []string `yaml:"seed_nodes"`

	// Topology graph file, optional. A ".snappy" suffix selects
	// transparent decompression.
	GraphPath string `yaml:"graph_path"`

	// Simulation
	Duration Duration `yaml:"duration" validate:"required"`
	Seed     int64    `yaml:"seed"`

	// Artifact locations
	OutputDir string `yaml:"output_dir" validate:"required"`
	CoordDir  string `yaml:"coordination_dir"`

	// Participant binaries
	DaemonPath string `yaml:"daemon_path" validate:"required"`
	WalletPath string `yaml:"wallet_path"`
	ScriptDir  string `yaml:"script_dir"`

	// Chain timing
	BlockInterval    Duration `yaml:"block_interval"`
	CoinbaseMaturity int      `yaml:"coinbase_maturity" validate:"omitempty,min=1"`

	// Process bring-up delays
	DaemonBringUp   Duration `yaml:"daemon_bringup"`
	WalletReadiness Duration `yaml:"wallet_readiness"`

	// Port bases; each agent gets base+index
	P2PPortBase    int `yaml:"p2p_port_base"`
	RPCPortBase    int `yaml:"rpc_port_base"`
	WalletPortBase int `yaml:"wallet_port_base"`
}

// Default run parameter values, applied after unmarshal.
const (
	DefaultTemplate         = "dag"
	DefaultBlockInterval    = 2 * time.Minute
	DefaultCoinbaseMaturity = 60
	DefaultDaemonBringUp    = 30 * time.Second
	DefaultWalletReadiness  = 15 * time.Second
	DefaultP2PPortBase      = 28080
	DefaultRPCPortBase      = 28081
	DefaultWalletPortBase   = 28090
)

// ApplyDefaults fills unset optional parameters.
func (p *RunParams) ApplyDefaults() {
	if p.Template == "" {
		p.Template = DefaultTemplate
	}
	if p.BlockInterval == 0 {
		p.BlockInterval = Duration(DefaultBlockInterval)
	}
	if p.CoinbaseMaturity == 0 {
		p.CoinbaseMaturity = DefaultCoinbaseMaturity
	}
	if p.DaemonBringUp == 0 {
		p.DaemonBringUp = Duration(DefaultDaemonBringUp)
	}
	if p.WalletReadiness == 0 {
		p.WalletReadiness = Duration(DefaultWalletReadiness)
	}
	if p.P2PPortBase == 0 {
		p.P2PPortBase = DefaultP2PPortBase
	}
	if p.RPCPortBase == 0 {
		p.RPCPortBase = DefaultRPCPortBase
	}
	if p.WalletPortBase == 0 {
		p.WalletPortBase = DefaultWalletPortBase
	}
	if p.CoordDir == "" && p.OutputDir != "" {
		p.CoordDir = p.OutputDir + "/shared"
	}
	if p.ScriptDir == "" && p.OutputDir != "" {
		p.ScriptDir = p.OutputDir + "/scripts"
	}
}

// MaturityWindow is the wall-clock time before mined funds become
// spendable, computed once from configuration and never observed at run
// time.
func (p *RunParams) MaturityWindow() time.Duration {
	return time.Duration(p.CoinbaseMaturity) * p.BlockInterval.Std()
}

// AgentGroup declares a run of identically configured agents. Expansion
// mints one Agent per Count in declaration order.
type AgentGroup struct {
	Name        string    `yaml:"name" validate:"required"`
	Role        string    `yaml:"role" validate:"required,oneof=daemon wallet full script"`
	Count       int       `yaml:"count" validate:"omitempty,min=1"`
	Weight      float64   `yaml:"weight" validate:"omitempty,min=0"`
	SubnetGroup string    `yaml:"subnet_group"`
	Attrs       Attrs     `yaml:"attributes"`
	Phases      PhaseList `yaml:"phases"`
}

// Description is the whole declarative network description.
type Description struct {
	Params RunParams    `yaml:"params" validate:"required"`
	Groups []AgentGroup `yaml:"agents" validate:"required,min=1,dive"`
}
